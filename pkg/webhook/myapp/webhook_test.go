/*
Copyright 2025 The Crossplane Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package myapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gomodules.xyz/jsonpatch/v2"
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/test"
)

func raw(t *testing.T, a *v1.MyApp) []byte {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("json.Marshal(...): %v", err)
	}
	return b
}

func create(b []byte) admission.Request {
	return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{
		UID:       types.UID("6c1cbb2e"),
		Operation: admissionv1.Create,
		Namespace: "ns1",
		Name:      "demo",
		Object:    runtime.RawExtension{Raw: b},
	}}
}

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"app":                          "app",
		"app.kubernetes.io/managed-by": "app.kubernetes.io~1managed-by",
		"a~b/c":                        "a~0b~1c",
		"~1":                           "~01",
	}
	for in, want := range cases {
		if got := escape(in); got != want {
			t.Errorf("escape(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestDefaults(t *testing.T) {
	cases := map[string]struct {
		reason string
		app    *v1.MyApp
		want   []jsonpatch.JsonPatchOperation
	}{
		"NoLabelsNoResources": {
			reason: "A MyApp without labels should get a labels map, and one without resources should get the defaults.",
			app:    test.NewMyApp("ns1", "demo"),
			want: []jsonpatch.JsonPatchOperation{
				{Operation: "add", Path: "/metadata/labels", Value: map[string]string{LabelManagedBy: DefaultManagedBy}},
				{Operation: "add", Path: "/spec/resources", Value: map[string]string{"cpu": DefaultCPU, "memory": DefaultMemory}},
			},
		},
		"LabelsAndResources": {
			reason: "A MyApp with labels and resources should only get the managed-by label.",
			app: test.NewMyApp("ns1", "demo",
				test.WithLabels(map[string]string{"team": "a"}),
				test.WithResources("1", "1Gi")),
			want: []jsonpatch.JsonPatchOperation{
				{Operation: "add", Path: "/metadata/labels/app.kubernetes.io~1managed-by", Value: DefaultManagedBy},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := Defaults(tc.app, DefaultManagedBy)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("\n%s\nDefaults(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestDefaultsAdditiveAndIdempotent(t *testing.T) {
	cases := map[string]*v1.MyApp{
		"Bare": test.NewMyApp("ns1", "demo"),
		"Labelled": test.NewMyApp("ns1", "demo",
			test.WithLabels(map[string]string{"team": "a", LabelManagedBy: "someone-else"})),
		"Full": test.NewMyApp("ns1", "demo",
			test.WithLabels(map[string]string{"team": "a"}),
			test.WithEnvVars(map[string]string{"MODE": "prod"}),
			test.WithResources("500m", "256Mi")),
	}

	for name, app := range cases {
		t.Run(name, func(t *testing.T) {
			once, err := ApplyDefaults(raw(t, app), Defaults(app, DefaultManagedBy))
			if err != nil {
				t.Fatalf("ApplyDefaults(...): %v", err)
			}
			mutated := &v1.MyApp{}
			if err := json.Unmarshal(once, mutated); err != nil {
				t.Fatalf("json.Unmarshal(...): %v", err)
			}

			// Nothing the author set is lost.
			want := app.DeepCopy()
			if want.Labels == nil {
				want.Labels = map[string]string{}
			}
			want.Labels[LabelManagedBy] = DefaultManagedBy
			if want.Spec.Resources == nil {
				want.Spec.Resources = &v1.ResourceRequirements{CPU: DefaultCPU, Memory: DefaultMemory}
			}
			if diff := cmp.Diff(want, mutated); diff != "" {
				t.Errorf("ApplyDefaults(...): -want, +got:\n%s", diff)
			}

			// Defaulting again changes nothing.
			twice, err := ApplyDefaults(once, Defaults(mutated, DefaultManagedBy))
			if err != nil {
				t.Fatalf("ApplyDefaults(...): %v", err)
			}
			again := &v1.MyApp{}
			if err := json.Unmarshal(twice, again); err != nil {
				t.Fatalf("json.Unmarshal(...): %v", err)
			}
			if diff := cmp.Diff(mutated, again); diff != "" {
				t.Errorf("ApplyDefaults(ApplyDefaults(...)): -want, +got:\n%s", diff)
			}
		})
	}
}

func TestValidatorHandle(t *testing.T) {
	type want struct {
		allowed bool
		code    int32
		message string
		result  string
	}

	cases := map[string]struct {
		reason string
		req    func(t *testing.T) admission.Request
		want   want
	}{
		"Valid": {
			reason: "A valid MyApp should be allowed.",
			req:    func(t *testing.T) admission.Request { return create(raw(t, test.NewMyApp("ns1", "demo"))) },
			want:   want{allowed: true, code: http.StatusOK, result: "allowed"},
		},
		"ZeroReplicas": {
			reason: "A MyApp with no replicas should be denied with the reason.",
			req: func(t *testing.T) admission.Request {
				return create(raw(t, test.NewMyApp("ns1", "demo", test.WithReplicas(0))))
			},
			want: want{code: http.StatusForbidden, message: v1.MsgReplicasOutOfRange, result: "denied"},
		},
		"LatestTag": {
			reason: "A MyApp using the latest tag should be denied with the reason.",
			req: func(t *testing.T) admission.Request {
				return create(raw(t, test.NewMyApp("ns1", "demo", test.WithImage("nginx:latest"))))
			},
			want: want{code: http.StatusForbidden, message: v1.MsgImageLatest, result: "denied"},
		},
		"Undecodable": {
			reason: "An object that cannot be decoded is a bad request.",
			req:    func(_ *testing.T) admission.Request { return create([]byte(`{"spec": `)) },
			want:   want{code: http.StatusBadRequest, message: errDecode, result: "error"},
		},
		"Delete": {
			reason: "Deletes carry no object and should be allowed.",
			req: func(_ *testing.T) admission.Request {
				return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{Operation: admissionv1.Delete}}
			},
			want: want{allowed: true, code: http.StatusOK, result: "allowed"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sink := test.NewRecordingSink()
			v := NewValidator(test.Scheme(), WithLogger(logging.NewLogrLogger(testr.New(t))), WithMetrics(sink))
			got := v.Handle(context.Background(), tc.req(t))

			if got.Allowed != tc.want.allowed {
				t.Errorf("\n%s\nv.Handle(...): want allowed %t, got %t", tc.reason, tc.want.allowed, got.Allowed)
			}
			if got.Result.Code != tc.want.code {
				t.Errorf("\n%s\nv.Handle(...): want code %d, got %d", tc.reason, tc.want.code, got.Result.Code)
			}
			if !strings.Contains(got.Result.Message, tc.want.message) {
				t.Errorf("\n%s\nv.Handle(...): want message containing %q, got %q", tc.reason, tc.want.message, got.Result.Message)
			}
			if diff := cmp.Diff([]test.Webhook{{Kind: KindValidate, Result: tc.want.result}}, sink.Webhooks); diff != "" {
				t.Errorf("\n%s\nv.Handle(...): -want metrics, +got metrics:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestMutatorHandle(t *testing.T) {
	cases := map[string]struct {
		reason  string
		req     func(t *testing.T) admission.Request
		allowed bool
		code    int32
		patches int
		result  string
	}{
		"Bare": {
			reason:  "A MyApp without labels or resources should be patched twice.",
			req:     func(t *testing.T) admission.Request { return create(raw(t, test.NewMyApp("ns1", "demo"))) },
			allowed: true,
			code:    http.StatusOK,
			patches: 2,
			result:  "patched",
		},
		"WithResources": {
			reason: "A MyApp with resources should only get the managed-by label.",
			req: func(t *testing.T) admission.Request {
				return create(raw(t, test.NewMyApp("ns1", "demo", test.WithResources("1", "1Gi"))))
			},
			allowed: true,
			code:    http.StatusOK,
			patches: 1,
			result:  "patched",
		},
		"Undecodable": {
			reason: "An object that cannot be decoded is a bad request.",
			req:    func(_ *testing.T) admission.Request { return create([]byte(`[]`)) },
			code:   http.StatusBadRequest,
			result: "error",
		},
		"Delete": {
			reason: "Deletes carry no object and should be allowed.",
			req: func(_ *testing.T) admission.Request {
				return admission.Request{AdmissionRequest: admissionv1.AdmissionRequest{Operation: admissionv1.Delete}}
			},
			allowed: true,
			code:    http.StatusOK,
			result:  "allowed",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sink := test.NewRecordingSink()
			m := NewMutator(test.Scheme(), WithMetrics(sink))
			got := m.Handle(context.Background(), tc.req(t))

			if got.Allowed != tc.allowed {
				t.Errorf("\n%s\nm.Handle(...): want allowed %t, got %t", tc.reason, tc.allowed, got.Allowed)
			}
			if got.Result.Code != tc.code {
				t.Errorf("\n%s\nm.Handle(...): want code %d, got %d", tc.reason, tc.code, got.Result.Code)
			}
			if len(got.Patches) != tc.patches {
				t.Errorf("\n%s\nm.Handle(...): want %d patches, got %d", tc.reason, tc.patches, len(got.Patches))
			}
			for _, p := range got.Patches {
				if p.Operation != "add" {
					t.Errorf("\n%s\nm.Handle(...): want only add operations, got %q", tc.reason, p.Operation)
				}
			}
			if diff := cmp.Diff([]test.Webhook{{Kind: KindMutate, Result: tc.result}}, sink.Webhooks); diff != "" {
				t.Errorf("\n%s\nm.Handle(...): -want metrics, +got metrics:\n%s", tc.reason, diff)
			}
		})
	}
}

type mux map[string]http.Handler

func (m mux) Register(path string, h http.Handler) { m[path] = h }

func review(t *testing.T, obj []byte) *bytes.Buffer {
	t.Helper()
	ar := admissionv1.AdmissionReview{
		TypeMeta: metav1.TypeMeta{APIVersion: "admission.k8s.io/v1", Kind: "AdmissionReview"},
		Request: &admissionv1.AdmissionRequest{
			UID:       types.UID("0e7f4d3c"),
			Kind:      metav1.GroupVersionKind{Group: v1.Group, Version: v1.Version, Kind: v1.MyAppKind},
			Resource:  metav1.GroupVersionResource{Group: v1.Group, Version: v1.Version, Resource: v1.MyAppPlural},
			Namespace: "ns1",
			Name:      "demo",
			Operation: admissionv1.Create,
			Object:    runtime.RawExtension{Raw: obj},
		},
	}
	b, err := json.Marshal(ar)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func serve(t *testing.T, h http.Handler, body *bytes.Buffer) *admissionv1.AdmissionResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	out := &admissionv1.AdmissionReview{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	require.NotNil(t, out.Response)
	require.Equal(t, types.UID("0e7f4d3c"), out.Response.UID)
	return out.Response
}

func TestRegisterServeHTTP(t *testing.T) {
	hooks := mux{}
	Register(hooks, test.Scheme(), WithManagedBy("controller"))
	require.Len(t, hooks, 2)
	require.IsType(t, &webhook.Admission{}, hooks[ValidatePath])
	require.IsType(t, &webhook.Admission{}, hooks[MutatePath])

	t.Run("ValidateDenied", func(t *testing.T) {
		obj := raw(t, test.NewMyApp("ns1", "demo", test.WithReplicas(101)))
		rsp := serve(t, hooks[ValidatePath], review(t, obj))
		require.False(t, rsp.Allowed)
		require.Contains(t, rsp.Result.Message, "spec.replicas: Invalid value: 101: "+v1.MsgReplicasOutOfRange)
	})

	t.Run("ValidateAllowed", func(t *testing.T) {
		obj := raw(t, test.NewMyApp("ns1", "demo"))
		rsp := serve(t, hooks[ValidatePath], review(t, obj))
		require.True(t, rsp.Allowed)
	})

	t.Run("Mutate", func(t *testing.T) {
		obj := raw(t, test.NewMyApp("ns1", "demo", test.WithLabels(map[string]string{"team": "a"})))
		rsp := serve(t, hooks[MutatePath], review(t, obj))
		require.True(t, rsp.Allowed)
		require.NotNil(t, rsp.PatchType)
		require.Equal(t, admissionv1.PatchTypeJSONPatch, *rsp.PatchType)

		ops := []jsonpatch.JsonPatchOperation{}
		require.NoError(t, json.Unmarshal(rsp.Patch, &ops))
		patched, err := ApplyDefaults(obj, ops)
		require.NoError(t, err)

		got := &v1.MyApp{}
		require.NoError(t, json.Unmarshal(patched, got))
		require.Equal(t, map[string]string{"team": "a", LabelManagedBy: "controller"}, got.GetLabels())
		require.Equal(t, &v1.ResourceRequirements{CPU: DefaultCPU, Memory: DefaultMemory}, got.Spec.Resources)
	})
}
