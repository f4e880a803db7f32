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

// Package test contains test doubles shared by the controller's packages.
package test

import (
	"sync"
	"time"
)

// A Reconcile is one recorded reconcile.
type Reconcile struct {
	Namespace string
	Name      string
	Result    string
}

// An Error is one recorded reconcile error.
type Error struct {
	Kind      string
	Namespace string
}

// A Webhook is one recorded admission request.
type Webhook struct {
	Kind   string
	Result string
}

// A ManagedKey identifies a managed resources gauge.
type ManagedKey struct {
	Kind      string
	Namespace string
}

// RecordingSink is a metrics sink that remembers what it was told.
type RecordingSink struct {
	mu sync.Mutex

	Active     map[string]int
	Reconciles []Reconcile
	Errors     []Error
	Managed    map[ManagedKey]int
	Webhooks   []Webhook
}

// NewRecordingSink creates a new RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		Active:  map[string]int{},
		Managed: map[ManagedKey]int{},
	}
}

// ReconcileStarted records an in-flight reconcile.
func (s *RecordingSink) ReconcileStarted(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Active[namespace]++
}

// ReconcileFinished records a finished reconcile.
func (s *RecordingSink) ReconcileFinished(namespace, name, result string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Active[namespace]--
	s.Reconciles = append(s.Reconciles, Reconcile{Namespace: namespace, Name: name, Result: result})
}

// RecordError records a reconcile error.
func (s *RecordingSink) RecordError(kind, namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, Error{Kind: kind, Namespace: namespace})
}

// SetManagedResources records a managed resources gauge.
func (s *RecordingSink) SetManagedResources(kind, namespace string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Managed[ManagedKey{Kind: kind, Namespace: namespace}] = count
}

// ObserveWebhook records an admission request.
func (s *RecordingSink) ObserveWebhook(kind, result string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Webhooks = append(s.Webhooks, Webhook{Kind: kind, Result: result})
}
