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
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultErrorRequeue is how long to wait before retrying a failed reconcile.
const DefaultErrorRequeue = 60 * time.Second

// A BackoffPolicy decides how long to wait before retrying a failed reconcile.
type BackoffPolicy interface {
	RequeueAfter(kind ErrorKind) time.Duration
}

// A BackoffPolicyFn is a function that satisfies BackoffPolicy.
type BackoffPolicyFn func(kind ErrorKind) time.Duration

// RequeueAfter calls fn.
func (fn BackoffPolicyFn) RequeueAfter(kind ErrorKind) time.Duration {
	return fn(kind)
}

// FixedBackoff retries every kind of error after the same delay.
type FixedBackoff struct {
	Delay time.Duration
}

// RequeueAfter returns the fixed delay.
func (b FixedBackoff) RequeueAfter(_ ErrorKind) time.Duration {
	return b.Delay
}

// KindBackoff retries each kind of error after its own delay, optionally
// jittered.
type KindBackoff struct {
	// Delays by error kind.
	Delays map[ErrorKind]time.Duration

	// Default is used for kinds missing from Delays.
	Default time.Duration

	// JitterFactor adds up to Delay*JitterFactor to each delay. Zero disables
	// jitter.
	JitterFactor float64
}

// RequeueAfter returns the delay for the supplied kind.
func (b KindBackoff) RequeueAfter(kind ErrorKind) time.Duration {
	d, ok := b.Delays[kind]
	if !ok {
		d = b.Default
	}
	if b.JitterFactor > 0 {
		return wait.Jitter(d, b.JitterFactor)
	}
	return d
}
