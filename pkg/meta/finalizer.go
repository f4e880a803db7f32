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

// Package meta contains helpers for working with object metadata.
package meta

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	xpmeta "github.com/crossplane/crossplane-runtime/pkg/meta"
)

// A FinalizerSet is a view of an object's finalizers as a set that keeps
// insertion order.
type FinalizerSet struct {
	o metav1.Object
}

// Finalizers returns the finalizers of the supplied object as a set.
func Finalizers(o metav1.Object) FinalizerSet {
	return FinalizerSet{o: o}
}

// Has returns true if the set contains the token.
func (s FinalizerSet) Has(token string) bool {
	return xpmeta.FinalizerExists(s.o, token)
}

// Insert appends the token unless it is already present. It returns true if
// the set changed.
func (s FinalizerSet) Insert(token string) bool {
	if s.Has(token) {
		return false
	}
	xpmeta.AddFinalizer(s.o, token)
	return true
}

// Remove deletes the token, keeping the order of the remaining tokens. It
// returns true if the set changed.
func (s FinalizerSet) Remove(token string) bool {
	if !s.Has(token) {
		return false
	}
	xpmeta.RemoveFinalizer(s.o, token)
	return true
}

// List returns the tokens in insertion order.
func (s FinalizerSet) List() []string {
	return s.o.GetFinalizers()
}

// FinalizerExists returns true if the object has the finalizer.
func FinalizerExists(o metav1.Object, finalizer string) bool {
	return Finalizers(o).Has(finalizer)
}

// AddFinalizer adds the finalizer to the object if it is not already present.
// It returns true if the object's finalizers changed.
func AddFinalizer(o metav1.Object, finalizer string) bool {
	return Finalizers(o).Insert(finalizer)
}

// RemoveFinalizer removes the finalizer from the object. It returns true if the
// object's finalizers changed.
func RemoveFinalizer(o metav1.Object, finalizer string) bool {
	return Finalizers(o).Remove(finalizer)
}

// WasDeleted returns true if the object has been marked for deletion.
func WasDeleted(o metav1.Object) bool {
	return xpmeta.WasDeleted(o)
}
