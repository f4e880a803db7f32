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
	"context"
	"net/http"
	"time"

	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/metrics"
)

// Paths at which the webhooks are served.
const (
	ValidatePath = "/validate-example-com-v1-myapp"
	MutatePath   = "/mutate-example-com-v1-myapp"
)

// Webhook kinds, as recorded by metrics.
const (
	KindValidate = "validate"
	KindMutate   = "mutate"
)

const (
	errDecode  = "cannot decode MyApp"
	errPatch   = "cannot default MyApp"
	msgDefault = "defaulted MyApp"
)

// An Option configures a webhook handler.
type Option func(*handler)

// WithLogger specifies how the handler should log messages.
func WithLogger(l logging.Logger) Option {
	return func(h *handler) {
		h.log = l
	}
}

// WithMetrics specifies where the handler should record metrics.
func WithMetrics(m metrics.Sink) Option {
	return func(h *handler) {
		h.metrics = m
	}
}

// WithManagedBy specifies the value of the managed-by label the mutating
// webhook sets.
func WithManagedBy(id string) Option {
	return func(h *handler) {
		h.managedBy = id
	}
}

type handler struct {
	decoder   admission.Decoder
	log       logging.Logger
	metrics   metrics.Sink
	managedBy string
}

func newHandler(s *runtime.Scheme, opts ...Option) handler {
	h := handler{
		decoder:   admission.NewDecoder(s),
		log:       logging.NewNopLogger(),
		metrics:   metrics.NopSink{},
		managedBy: DefaultManagedBy,
	}
	for _, fn := range opts {
		fn(&h)
	}
	return h
}

// A Validator refuses MyApps whose spec is invalid.
type Validator struct {
	handler
}

// NewValidator returns a Validator that decodes objects using the supplied
// scheme.
func NewValidator(s *runtime.Scheme, opts ...Option) *Validator {
	return &Validator{handler: newHandler(s, opts...)}
}

// Handle an admission request.
func (v *Validator) Handle(_ context.Context, req admission.Request) admission.Response {
	start := time.Now()
	log := v.log.WithValues("uid", req.UID, "operation", req.Operation, "name", req.Name, "namespace", req.Namespace)

	// Deletes carry no object to validate.
	if req.Operation == admissionv1.Delete {
		v.metrics.ObserveWebhook(KindValidate, metrics.ResultAllowed, time.Since(start))
		return admission.Allowed("")
	}

	a := &v1.MyApp{}
	if err := v.decoder.Decode(req, a); err != nil {
		log.Debug(errDecode, "error", err)
		v.metrics.ObserveWebhook(KindValidate, metrics.ResultError, time.Since(start))
		return admission.Errored(http.StatusBadRequest, errors.Wrap(err, errDecode))
	}

	if errs := Validate(a); len(errs) > 0 {
		log.Debug("Denied MyApp", "reason", errs.ToAggregate().Error())
		v.metrics.ObserveWebhook(KindValidate, metrics.ResultDenied, time.Since(start))
		return admission.Denied(errs.ToAggregate().Error())
	}

	v.metrics.ObserveWebhook(KindValidate, metrics.ResultAllowed, time.Since(start))
	return admission.Allowed("")
}

// A Mutator fills in the defaults of MyApps.
type Mutator struct {
	handler
}

// NewMutator returns a Mutator that decodes objects using the supplied scheme.
func NewMutator(s *runtime.Scheme, opts ...Option) *Mutator {
	return &Mutator{handler: newHandler(s, opts...)}
}

// Handle an admission request.
func (m *Mutator) Handle(_ context.Context, req admission.Request) admission.Response {
	start := time.Now()
	log := m.log.WithValues("uid", req.UID, "operation", req.Operation, "name", req.Name, "namespace", req.Namespace)

	if req.Operation == admissionv1.Delete {
		m.metrics.ObserveWebhook(KindMutate, metrics.ResultAllowed, time.Since(start))
		return admission.Allowed("")
	}

	a := &v1.MyApp{}
	if err := m.decoder.Decode(req, a); err != nil {
		log.Debug(errDecode, "error", err)
		m.metrics.ObserveWebhook(KindMutate, metrics.ResultError, time.Since(start))
		return admission.Errored(http.StatusBadRequest, errors.Wrap(err, errDecode))
	}

	ops := Defaults(a, m.managedBy)

	// Refuse to hand the API server a patch it could not apply.
	if _, err := ApplyDefaults(req.Object.Raw, ops); err != nil {
		log.Debug(errPatch, "error", err)
		m.metrics.ObserveWebhook(KindMutate, metrics.ResultError, time.Since(start))
		return admission.Errored(http.StatusInternalServerError, errors.Wrap(err, errPatch))
	}

	log.Debug("Defaulted MyApp", "operations", len(ops))
	m.metrics.ObserveWebhook(KindMutate, metrics.ResultPatched, time.Since(start))
	return admission.Patched(msgDefault, ops...)
}

// A Registerer registers HTTP handlers at paths. The manager's webhook server
// satisfies this interface.
type Registerer interface {
	Register(path string, hook http.Handler)
}

// Register the MyApp webhooks with the supplied server.
func Register(srv Registerer, s *runtime.Scheme, opts ...Option) {
	srv.Register(ValidatePath, &webhook.Admission{Handler: NewValidator(s, opts...)})
	srv.Register(MutatePath, &webhook.Admission{Handler: NewMutator(s, opts...)})
}
