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

	"golang.org/x/time/rate"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/event"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/crossplane/crossplane-runtime/pkg/resource"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/metrics"
)

// ControllerName is the name of the MyApp controller.
const ControllerName = "myapp.example.com"

const errSetup = "cannot set up MyApp controller"

// Our own status writes change neither spec nor metadata, so they do not
// trigger another reconcile.
var desiredStateChanged = resource.DesiredStateChanged()

// Options configure how the MyApp controller is set up.
type Options struct {
	Logger  logging.Logger
	Metrics metrics.Sink

	// MaxConcurrentReconciles is the number of MyApps that may be reconciled
	// at once. A single MyApp is never reconciled concurrently.
	MaxConcurrentReconciles int

	// MaxReconcileRate is the number of reconciles per second allowed across
	// all MyApps.
	MaxReconcileRate int

	// Reconciler options, e.g. resync interval and backoff policy.
	ReconcilerOptions []ReconcilerOption
}

// NewRateLimiter returns a rate limiter that takes the slower of a per-item
// exponential backoff and a global token bucket.
func NewRateLimiter(qps int) workqueue.TypedRateLimiter[reconcile.Request] {
	return workqueue.NewTypedMaxOfRateLimiter[reconcile.Request](
		workqueue.NewTypedItemExponentialFailureRateLimiter[reconcile.Request](1*time.Second, 30*time.Second),
		&workqueue.TypedBucketRateLimiter[reconcile.Request]{Limiter: rate.NewLimiter(rate.Limit(qps), qps*10)},
	)
}

// Setup adds a controller that reconciles MyApp resources to the manager.
func Setup(mgr ctrl.Manager, o Options) error {
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NopSink{}
	}
	if o.MaxConcurrentReconciles < 1 {
		o.MaxConcurrentReconciles = 1
	}
	if o.MaxReconcileRate < 1 {
		o.MaxReconcileRate = 10
	}

	opts := append([]ReconcilerOption{
		WithLogger(o.Logger.WithValues("controller", ControllerName)),
		WithRecorder(event.NewAPIRecorder(mgr.GetEventRecorderFor(ControllerName))),
		WithMetrics(o.Metrics),
	}, o.ReconcilerOptions...)
	r := NewReconciler(mgr.GetClient(), opts...)

	err := ctrl.NewControllerManagedBy(mgr).
		Named(ControllerName).
		For(&v1.MyApp{}, builder.WithPredicates(desiredStateChanged)).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: o.MaxConcurrentReconciles,
			RateLimiter:             NewRateLimiter(o.MaxReconcileRate),
		}).
		Complete(r)
	return errors.Wrap(err, errSetup)
}
