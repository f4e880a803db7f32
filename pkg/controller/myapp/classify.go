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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/n3wscott/myapp-controller/pkg/meta"
)

// A Class is what a reconcile must do with an object, inferred from its
// deletion timestamp and whether it carries the controller's finalizer.
type Class int

// Classes of object.
const (
	// NeedsFinalizer objects are live but not yet protected by our finalizer.
	NeedsFinalizer Class = iota

	// Active objects are live and protected; their children are reconciled.
	Active

	// Cleanup objects are being deleted and still carry our finalizer.
	Cleanup

	// Done objects are being deleted and no longer carry our finalizer.
	Done
)

func (c Class) String() string {
	switch c {
	case NeedsFinalizer:
		return "NeedsFinalizer"
	case Active:
		return "Active"
	case Cleanup:
		return "Cleanup"
	case Done:
		return "Done"
	}
	return "Unknown"
}

// Classify returns the Class of the supplied object. It must be called afresh
// on every reconcile; the object may have changed since the last one.
func Classify(o metav1.Object, finalizer string) Class {
	has := meta.FinalizerExists(o, finalizer)
	switch {
	case meta.WasDeleted(o) && has:
		return Cleanup
	case meta.WasDeleted(o):
		return Done
	case has:
		return Active
	default:
		return NeedsFinalizer
	}
}
