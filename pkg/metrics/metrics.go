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

// Package metrics records what the MyApp controller and its webhooks do.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Results of a reconcile or webhook request.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
	ResultPatched = "patched"
)

// A Sink records controller and webhook activity.
type Sink interface {
	// ReconcileStarted records that a reconcile began in the namespace.
	ReconcileStarted(namespace string)

	// ReconcileFinished records the result and duration of a reconcile.
	ReconcileFinished(namespace, name, result string, d time.Duration)

	// RecordError records a reconcile error of the supplied kind.
	RecordError(kind, namespace string)

	// SetManagedResources records how many resources of the supplied kind
	// are managed in the namespace.
	SetManagedResources(kind, namespace string, count int)

	// ObserveWebhook records the result and duration of an admission request.
	ObserveWebhook(kind, result string, d time.Duration)
}

// A NopSink does nothing.
type NopSink struct{}

// ReconcileStarted does nothing.
func (NopSink) ReconcileStarted(_ string) {}

// ReconcileFinished does nothing.
func (NopSink) ReconcileFinished(_, _, _ string, _ time.Duration) {}

// RecordError does nothing.
func (NopSink) RecordError(_, _ string) {}

// SetManagedResources does nothing.
func (NopSink) SetManagedResources(_, _ string, _ int) {}

// ObserveWebhook does nothing.
func (NopSink) ObserveWebhook(_, _ string, _ time.Duration) {}

// BuildInfo identifies the running controller binary.
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// PrometheusMetrics exposes controller activity as Prometheus metrics.
type PrometheusMetrics struct {
	reconciles       *prometheus.CounterVec
	reconcileSeconds *prometheus.HistogramVec
	activeReconciles *prometheus.GaugeVec
	managed          *prometheus.GaugeVec
	errors           *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
	webhookSeconds   *prometheus.HistogramVec
	info             *prometheus.GaugeVec
}

// NewPrometheusMetrics returns a new PrometheusMetrics. It must be registered
// before its metrics are exposed.
func NewPrometheusMetrics(bi BuildInfo) *PrometheusMetrics {
	m := &PrometheusMetrics{
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myapp",
			Name:      "reconcile_total",
			Help:      "Total number of reconciliation attempts.",
		}, []string{"namespace", "name", "result"}),

		reconcileSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "myapp",
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent in reconciliation.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"namespace", "name"}),

		activeReconciles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "myapp",
			Name:      "active_reconciles",
			Help:      "Number of reconciles currently in flight.",
		}, []string{"namespace"}),

		managed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "myapp",
			Name:      "managed_resources_total",
			Help:      "Number of resources managed by the controller.",
		}, []string{"resource_type", "namespace"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myapp",
			Name:      "errors_total",
			Help:      "Total number of reconcile errors by kind.",
		}, []string{"error_type", "namespace"}),

		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myapp",
			Name:      "webhook_requests_total",
			Help:      "Total number of admission requests.",
		}, []string{"webhook_type", "result"}),

		webhookSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "myapp",
			Name:      "webhook_duration_seconds",
			Help:      "Admission request duration.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1},
		}, []string{"webhook_type"}),

		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "myapp",
			Name:      "controller_info",
			Help:      "Controller version and build information.",
		}, []string{"version", "build_date", "git_commit"}),
	}

	m.info.WithLabelValues(orUnknown(bi.Version), orUnknown(bi.BuildDate), orUnknown(bi.GitCommit)).Set(1)
	return m
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Describe sends the super-set of all possible descriptors of metrics
// collected by this Collector to the provided channel and returns once
// the last descriptor has been sent.
func (m *PrometheusMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.reconciles.Describe(ch)
	m.reconcileSeconds.Describe(ch)
	m.activeReconciles.Describe(ch)
	m.managed.Describe(ch)
	m.errors.Describe(ch)
	m.webhooks.Describe(ch)
	m.webhookSeconds.Describe(ch)
	m.info.Describe(ch)
}

// Collect is called by the Prometheus registry when collecting
// metrics. The implementation sends each collected metric via the
// provided channel and returns once the last metric has been sent.
func (m *PrometheusMetrics) Collect(ch chan<- prometheus.Metric) {
	m.reconciles.Collect(ch)
	m.reconcileSeconds.Collect(ch)
	m.activeReconciles.Collect(ch)
	m.managed.Collect(ch)
	m.errors.Collect(ch)
	m.webhooks.Collect(ch)
	m.webhookSeconds.Collect(ch)
	m.info.Collect(ch)
}

// ReconcileStarted increments the in-flight reconciles gauge.
func (m *PrometheusMetrics) ReconcileStarted(namespace string) {
	m.activeReconciles.WithLabelValues(namespace).Inc()
}

// ReconcileFinished records a reconcile attempt and decrements the in-flight
// reconciles gauge.
func (m *PrometheusMetrics) ReconcileFinished(namespace, name, result string, d time.Duration) {
	m.reconciles.WithLabelValues(namespace, name, result).Inc()
	m.reconcileSeconds.WithLabelValues(namespace, name).Observe(d.Seconds())
	m.activeReconciles.WithLabelValues(namespace).Dec()
}

// RecordError increments the error counter.
func (m *PrometheusMetrics) RecordError(kind, namespace string) {
	m.errors.WithLabelValues(kind, namespace).Inc()
}

// SetManagedResources sets the managed resources gauge.
func (m *PrometheusMetrics) SetManagedResources(kind, namespace string, count int) {
	m.managed.WithLabelValues(kind, namespace).Set(float64(count))
}

// ObserveWebhook records an admission request.
func (m *PrometheusMetrics) ObserveWebhook(kind, result string, d time.Duration) {
	m.webhooks.WithLabelValues(kind, result).Inc()
	m.webhookSeconds.WithLabelValues(kind).Observe(d.Seconds())
}
