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

package meta

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const finalizer = "myapps.example.com/finalizer"

func TestAddFinalizer(t *testing.T) {
	type want struct {
		changed    bool
		finalizers []string
	}

	cases := map[string]struct {
		reason string
		o      metav1.Object
		want   want
	}{
		"Empty": {
			reason: "A finalizer should be added to an object without finalizers.",
			o:      &metav1.ObjectMeta{},
			want:   want{changed: true, finalizers: []string{finalizer}},
		},
		"AppendsInOrder": {
			reason: "A new finalizer should be appended after existing finalizers.",
			o:      &metav1.ObjectMeta{Finalizers: []string{"a", "b"}},
			want:   want{changed: true, finalizers: []string{"a", "b", finalizer}},
		},
		"AlreadyPresent": {
			reason: "Adding a finalizer that is already present should not duplicate it.",
			o:      &metav1.ObjectMeta{Finalizers: []string{"a", finalizer}},
			want:   want{changed: false, finalizers: []string{"a", finalizer}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			changed := AddFinalizer(tc.o, finalizer)
			if diff := cmp.Diff(tc.want.changed, changed); diff != "" {
				t.Errorf("\n%s\nAddFinalizer(...): -want changed, +got changed:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want.finalizers, tc.o.GetFinalizers()); diff != "" {
				t.Errorf("\n%s\nAddFinalizer(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestAddFinalizerTwice(t *testing.T) {
	o := &metav1.ObjectMeta{}
	AddFinalizer(o, finalizer)
	AddFinalizer(o, finalizer)

	if diff := cmp.Diff([]string{finalizer}, o.GetFinalizers()); diff != "" {
		t.Errorf("AddFinalizer(...) twice: -want, +got:\n%s", diff)
	}
}

func TestRemoveFinalizer(t *testing.T) {
	type want struct {
		changed    bool
		finalizers []string
	}

	cases := map[string]struct {
		reason string
		o      metav1.Object
		want   want
	}{
		"Only": {
			reason: "Removing the only finalizer should leave none.",
			o:      &metav1.ObjectMeta{Finalizers: []string{finalizer}},
			want:   want{changed: true},
		},
		"KeepsOrder": {
			reason: "Removing a finalizer should preserve the order of the others.",
			o:      &metav1.ObjectMeta{Finalizers: []string{"a", finalizer, "b"}},
			want:   want{changed: true, finalizers: []string{"a", "b"}},
		},
		"Absent": {
			reason: "Removing an absent finalizer should be a no-op.",
			o:      &metav1.ObjectMeta{Finalizers: []string{"a"}},
			want:   want{changed: false, finalizers: []string{"a"}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			changed := RemoveFinalizer(tc.o, finalizer)
			if diff := cmp.Diff(tc.want.changed, changed); diff != "" {
				t.Errorf("\n%s\nRemoveFinalizer(...): -want changed, +got changed:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want.finalizers, tc.o.GetFinalizers(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("\n%s\nRemoveFinalizer(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestFinalizerSet(t *testing.T) {
	o := &metav1.ObjectMeta{Finalizers: []string{"a"}}
	s := Finalizers(o)

	if !s.Insert("b") || s.Insert("a") {
		t.Errorf("Insert(...): want true for a new token and false for an existing one")
	}
	if !s.Has("b") || s.Has(finalizer) {
		t.Errorf("Has(...): want b present and %s absent", finalizer)
	}
	if !s.Remove("a") || s.Remove("a") {
		t.Errorf("Remove(...): want true once and then false")
	}
	if diff := cmp.Diff([]string{"b"}, s.List()); diff != "" {
		t.Errorf("List(): -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, o.GetFinalizers()); diff != "" {
		t.Errorf("GetFinalizers(): -want, +got:\n%s", diff)
	}
}

func TestWasDeleted(t *testing.T) {
	now := metav1.Now()
	if WasDeleted(&metav1.ObjectMeta{}) {
		t.Errorf("WasDeleted(...): want false without a deletion timestamp")
	}
	if !WasDeleted(&metav1.ObjectMeta{DeletionTimestamp: &now}) {
		t.Errorf("WasDeleted(...): want true with a deletion timestamp")
	}
}
