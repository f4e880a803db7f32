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

// Package myapp reconciles MyApp resources.
package myapp

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	xpv1 "github.com/crossplane/crossplane-runtime/apis/common/v1"
	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/event"
	"github.com/crossplane/crossplane-runtime/pkg/logging"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/meta"
	"github.com/n3wscott/myapp-controller/pkg/metrics"
	"github.com/n3wscott/myapp-controller/pkg/resource/child"
)

const (
	// DefaultResyncInterval is how long to wait before revisiting a MyApp
	// that reconciled successfully.
	DefaultResyncInterval = 300 * time.Second

	// DefaultFinalizerRequeue is how long to wait before revisiting a MyApp
	// that just had its finalizer added.
	DefaultFinalizerRequeue = 1 * time.Second

	// DefaultIdentity is the value of the managed-by label on children.
	DefaultIdentity = "controller"
)

// Error strings.
const (
	errGet             = "cannot get MyApp"
	errAddFinalizer    = "cannot add MyApp finalizer"
	errRemoveFinalizer = "cannot remove MyApp finalizer"
	errDeleteChild     = "cannot delete child resource"
	errGetChild        = "cannot get child resource"
	errCreateChild     = "cannot create child resource"
	errBuildChildren   = "cannot build child resources"
	errUpdateStatus    = "cannot update MyApp status"
	errValidate        = "MyApp spec is invalid"
)

// Event reasons.
const (
	reasonCreatedChild   event.Reason = "CreatedChildResource"
	reasonDeletedChild   event.Reason = "DeletedChildResource"
	reasonFinalized      event.Reason = "Finalized"
	reasonReconcileError event.Reason = "ReconcileError"
)

// ReconcilerOption is used to configure the Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger specifies how the Reconciler should log messages.
func WithLogger(log logging.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.log = log
	}
}

// WithRecorder specifies how the Reconciler should record Kubernetes events.
func WithRecorder(er event.Recorder) ReconcilerOption {
	return func(r *Reconciler) {
		r.record = er
	}
}

// WithMetrics specifies where the Reconciler should record metrics.
func WithMetrics(m metrics.Sink) ReconcilerOption {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithResyncInterval specifies how long the Reconciler should wait before
// revisiting a MyApp after a successful reconcile, even if nothing changed.
func WithResyncInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.resync = d
	}
}

// WithFinalizerRequeue specifies how long the Reconciler should wait before
// revisiting a MyApp after adding its finalizer.
func WithFinalizerRequeue(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.finalizerRequeue = d
	}
}

// WithBackoffPolicy specifies how long the Reconciler should wait before
// retrying a failed reconcile.
func WithBackoffPolicy(p BackoffPolicy) ReconcilerOption {
	return func(r *Reconciler) {
		r.backoff = p
	}
}

// WithIdentity specifies the managed-by label value of children.
func WithIdentity(id string) ReconcilerOption {
	return func(r *Reconciler) {
		r.identity = id
	}
}

// WithFinalizer specifies the finalizer the Reconciler owns.
func WithFinalizer(f string) ReconcilerOption {
	return func(r *Reconciler) {
		r.finalizer = f
	}
}

// WithClock specifies how the Reconciler tells the time.
func WithClock(c clock.PassiveClock) ReconcilerOption {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// A Reconciler reconciles MyApp resources.
type Reconciler struct {
	client client.Client

	identity  string
	finalizer string

	resync           time.Duration
	finalizerRequeue time.Duration
	backoff          BackoffPolicy

	log     logging.Logger
	record  event.Recorder
	metrics metrics.Sink
	clock   clock.PassiveClock
}

// NewReconciler returns a new Reconciler of MyApp resources.
func NewReconciler(c client.Client, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		client:           c,
		identity:         DefaultIdentity,
		finalizer:        v1.Finalizer,
		resync:           DefaultResyncInterval,
		finalizerRequeue: DefaultFinalizerRequeue,
		backoff:          FixedBackoff{Delay: DefaultErrorRequeue},
		log:              logging.NewNopLogger(),
		record:           event.NewNopRecorder(),
		metrics:          metrics.NopSink{},
		clock:            clock.RealClock{},
	}

	for _, f := range opts {
		f(r)
	}

	return r
}

// Reconcile a MyApp. Failures of every kind are recorded and turned into a
// delayed requeue; Reconcile never returns an error.
func (r *Reconciler) Reconcile(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
	log := r.log.WithValues("request", req)
	log.Debug("Reconciling")

	start := r.clock.Now()
	r.metrics.ReconcileStarted(req.Namespace)

	app := &v1.MyApp{}
	if err := r.client.Get(ctx, req.NamespacedName, app); err != nil {
		if kerrors.IsNotFound(err) {
			// Deleted before we got here. Nothing left to do.
			r.metrics.ReconcileFinished(req.Namespace, req.Name, metrics.ResultSuccess, r.clock.Since(start))
			return reconcile.Result{}, nil
		}
		return r.fail(ctx, log, req, nil, start, Wrap(StoreError, err, errGet))
	}

	class := Classify(app, r.finalizer)
	log = log.WithValues("class", class.String(), "generation", app.GetGeneration())

	var (
		result reconcile.Result
		err    error
	)
	switch class {
	case Cleanup:
		result, err = r.cleanup(ctx, log, app)
	case Done:
		log.Debug("Finalizer already removed; waiting for the object to go away")
	case NeedsFinalizer:
		result, err = r.addFinalizer(ctx, log, app)
	case Active:
		result, err = r.sync(ctx, log, app)
	}
	if err != nil {
		return r.fail(ctx, log, req, app, start, err)
	}

	r.metrics.ReconcileFinished(req.Namespace, req.Name, metrics.ResultSuccess, r.clock.Since(start))
	return result, nil
}

// fail records a failed reconcile and schedules a retry.
func (r *Reconciler) fail(_ context.Context, log logging.Logger, req reconcile.Request, app *v1.MyApp, start time.Time, err error) (reconcile.Result, error) {
	kind := KindOf(err)
	after := r.backoff.RequeueAfter(kind)

	log.Info("Cannot reconcile MyApp", "error", err, "error-kind", string(kind), "requeue-after", after)
	r.metrics.RecordError(string(kind), req.Namespace)
	r.metrics.ReconcileFinished(req.Namespace, req.Name, metrics.ResultError, r.clock.Since(start))
	if app != nil {
		r.record.Event(app, event.Warning(reasonReconcileError, err, "error-kind", string(kind)))
	}

	return reconcile.Result{RequeueAfter: after}, nil
}

func (r *Reconciler) addFinalizer(ctx context.Context, log logging.Logger, app *v1.MyApp) (reconcile.Result, error) {
	orig := app.DeepCopy()
	if meta.AddFinalizer(app, r.finalizer) {
		p := client.MergeFromWithOptions(orig, client.MergeFromWithOptimisticLock{})
		if err := r.client.Patch(ctx, app, p); err != nil {
			return reconcile.Result{}, Wrap(FinalizerError, err, errAddFinalizer)
		}
		log.Debug("Added finalizer", "finalizer", r.finalizer)
	}
	return reconcile.Result{RequeueAfter: r.finalizerRequeue}, nil
}

func (r *Reconciler) cleanup(ctx context.Context, log logging.Logger, app *v1.MyApp) (reconcile.Result, error) {
	for _, c := range child.Empty(app) {
		err := r.client.Delete(ctx, c, client.PropagationPolicy(metav1.DeletePropagationBackground))
		if kerrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return reconcile.Result{}, Wrap(FinalizerError, err, errDeleteChild)
		}
		log.Debug("Deleted child resource", "name", c.GetName())
		r.record.Event(app, event.Normal(reasonDeletedChild, "Deleted child resource "+c.GetName()))
	}

	orig := app.DeepCopy()
	if meta.RemoveFinalizer(app, r.finalizer) {
		p := client.MergeFromWithOptions(orig, client.MergeFromWithOptimisticLock{})
		// The MyApp may already be gone if another reconcile removed the
		// finalizer first.
		if err := r.client.Patch(ctx, app, p); client.IgnoreNotFound(err) != nil {
			return reconcile.Result{}, Wrap(FinalizerError, err, errRemoveFinalizer)
		}
	}
	log.Info("Removed finalizer", "finalizer", r.finalizer)
	r.record.Event(app, event.Normal(reasonFinalized, "Deleted child resources and removed finalizer"))

	// Children we just deleted may linger in the cache.
	r.countManaged(ctx, log, app.GetNamespace(), app.GetUID())
	return reconcile.Result{}, nil
}

func (r *Reconciler) sync(ctx context.Context, log logging.Logger, app *v1.MyApp) (reconcile.Result, error) {
	// Admission should have caught this, but it may not be installed.
	if errs := app.Validate(); len(errs) > 0 {
		err := Wrap(ValidationError, errs.ToAggregate(), errValidate)
		r.markFailed(ctx, log, app, err)
		return reconcile.Result{}, err
	}

	children, err := child.Build(app, r.identity)
	if err != nil {
		return reconcile.Result{}, Wrap(ValidationError, err, errBuildChildren)
	}

	for _, c := range children {
		created, err := r.ensure(ctx, c)
		if err != nil {
			return reconcile.Result{}, err
		}
		if created {
			log.Debug("Created child resource", "name", c.GetName())
			r.record.Event(app, event.Normal(reasonCreatedChild, "Created child resource "+c.GetName()))
		}
	}

	now := metav1.NewTime(r.clock.Now())
	ready := v1.Ready(now)
	if !statusIs(app, v1.StateRunning, ready) || app.Status.ObservedGeneration != app.GetGeneration() {
		orig := app.DeepCopy()
		app.Status.State = v1.StateRunning
		app.Status.ObservedGeneration = app.GetGeneration()
		app.Status.SetConditions(ready)
		app.Status.LastUpdated = &now
		p := client.MergeFromWithOptions(orig, client.MergeFromWithOptimisticLock{})
		if err := r.client.Status().Patch(ctx, app, p); err != nil {
			return reconcile.Result{}, Wrap(StoreError, err, errUpdateStatus)
		}
	}

	r.countManaged(ctx, log, app.GetNamespace(), "")
	log.Debug("Successfully reconciled", "requeue-after", r.resync)
	return reconcile.Result{RequeueAfter: r.resync}, nil
}

// ensure creates the supplied child if it does not exist. An existing child is
// never updated. It returns true if it created the child.
func (r *Reconciler) ensure(ctx context.Context, c client.Object) (bool, error) {
	existing, ok := c.DeepCopyObject().(client.Object)
	if !ok {
		return false, NewError(StoreError, errors.New(errGetChild))
	}
	err := r.client.Get(ctx, client.ObjectKeyFromObject(c), existing)
	if err == nil {
		return false, nil
	}
	if !kerrors.IsNotFound(err) {
		return false, Wrap(StoreError, err, errGetChild)
	}
	if err := r.client.Create(ctx, c); err != nil {
		if kerrors.IsAlreadyExists(err) {
			// Someone beat us to it.
			return false, nil
		}
		return false, Wrap(StoreError, err, errCreateChild)
	}
	return true, nil
}

// markFailed records on the MyApp's status that its spec is invalid. It does
// not touch the finalizer or children.
func (r *Reconciler) markFailed(ctx context.Context, log logging.Logger, app *v1.MyApp, cause error) {
	now := metav1.NewTime(r.clock.Now())
	failed := v1.ValidationFailed(now, cause)
	if statusIs(app, v1.StateFailed, failed) {
		return
	}
	orig := app.DeepCopy()
	app.Status.State = v1.StateFailed
	app.Status.SetConditions(failed)
	app.Status.LastUpdated = &now
	p := client.MergeFromWithOptions(orig, client.MergeFromWithOptimisticLock{})
	if err := r.client.Status().Patch(ctx, app, p); err != nil {
		log.Debug(errUpdateStatus, "error", err)
	}
}

// statusIs returns true if the MyApp already reports the supplied state and
// condition. Transition times are ignored.
func statusIs(app *v1.MyApp, state v1.State, c xpv1.Condition) bool {
	return app.Status.State == state && app.Status.GetCondition(c.Type).Equal(c)
}

// countManaged refreshes the managed resources gauges for the namespace.
// Children controlled by the owner that is going away are not counted.
func (r *Reconciler) countManaged(ctx context.Context, log logging.Logger, namespace string, gone types.UID) {
	sel := client.MatchingLabels{child.LabelManagedBy: r.identity}

	dl := &appsv1.DeploymentList{}
	if err := r.client.List(ctx, dl, client.InNamespace(namespace), sel); err != nil {
		log.Debug("Cannot count managed deployments", "error", err)
	} else {
		n := 0
		for i := range dl.Items {
			if countable(&dl.Items[i], gone) {
				n++
			}
		}
		r.metrics.SetManagedResources("deployment", namespace, n)
	}

	sl := &corev1.ServiceList{}
	if err := r.client.List(ctx, sl, client.InNamespace(namespace), sel); err != nil {
		log.Debug("Cannot count managed services", "error", err)
	} else {
		n := 0
		for i := range sl.Items {
			if countable(&sl.Items[i], gone) {
				n++
			}
		}
		r.metrics.SetManagedResources("service", namespace, n)
	}
}

func countable(o metav1.Object, gone types.UID) bool {
	if meta.WasDeleted(o) {
		return false
	}
	ref := metav1.GetControllerOf(o)
	return gone == "" || ref == nil || ref.UID != gone
}
