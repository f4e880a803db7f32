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
	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// An ErrorKind classifies why a reconcile failed.
type ErrorKind string

// Kinds of reconcile error. All of them are retried.
const (
	// StoreError means an API server call failed or conflicted.
	StoreError ErrorKind = "store_error"

	// ValidationError means the spec violated an invariant at reconcile time.
	ValidationError ErrorKind = "validation_error"

	// FinalizerError means adding or removing the finalizer, or deleting
	// children during cleanup, failed.
	FinalizerError ErrorKind = "finalizer_error"
)

// A ReconcileError is an error of a known kind.
type ReconcileError struct {
	Kind ErrorKind
	err  error
}

func (e *ReconcileError) Error() string {
	return string(e.Kind) + ": " + e.err.Error()
}

// Unwrap returns the underlying error.
func (e *ReconcileError) Unwrap() error {
	return e.err
}

// NewError wraps the supplied error with a kind. It returns nil if err is nil.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &ReconcileError{Kind: kind, err: err}
}

// Wrap wraps the supplied error with a message and a kind. It returns nil if
// err is nil.
func Wrap(kind ErrorKind, err error, msg string) error {
	return NewError(kind, errors.Wrap(err, msg))
}

// KindOf returns the kind of the supplied error. Errors of no known kind are
// store errors.
func KindOf(err error) ErrorKind {
	var re *ReconcileError
	if errors.As(err, &re) {
		return re.Kind
	}
	return StoreError
}
