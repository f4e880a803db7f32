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

// Package controller runs the MyApp controller and its admission webhooks.
package controller

import (
	"context"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/config"
	"github.com/n3wscott/myapp-controller/pkg/controller/myapp"
	"github.com/n3wscott/myapp-controller/pkg/metrics"
	whmyapp "github.com/n3wscott/myapp-controller/pkg/webhook/myapp"
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger for the controller.
func WithLogger(log logging.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// WithRestConfig sets how the controller connects to the API server.
func WithRestConfig(rc *rest.Config) ControllerOption {
	return func(c *Controller) {
		c.rest = rc
	}
}

// WithBuildInfo sets the build information exposed as a metric.
func WithBuildInfo(bi metrics.BuildInfo) ControllerOption {
	return func(c *Controller) {
		c.build = bi
	}
}

// Controller runs a controller-runtime manager hosting the MyApp controller,
// its webhooks, or both.
type Controller struct {
	config config.Config
	rest   *rest.Config
	log    logging.Logger
	build  metrics.BuildInfo
}

// NewController creates a new Controller.
func NewController(cfg config.Config, opts ...ControllerOption) *Controller {
	c := &Controller{
		config: cfg,
		log:    logging.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewScheme returns a scheme that knows about client-go types and MyApp.
func NewScheme() (*runtime.Scheme, error) {
	s := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(s); err != nil {
		return nil, errors.Wrap(err, "cannot add kubernetes client-go scheme")
	}
	if err := v1.AddToScheme(s); err != nil {
		return nil, errors.Wrap(err, "cannot add MyApp scheme")
	}
	return s, nil
}

// Start creates a controller runtime manager, sets up what the config
// enables, and blocks until the supplied context is done.
func (c *Controller) Start(ctx context.Context) error {
	if err := config.Validate(c.config); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	scheme, err := NewScheme()
	if err != nil {
		return err
	}

	rc := c.rest
	if rc == nil {
		if rc, err = ctrl.GetConfig(); err != nil {
			return errors.Wrap(err, "cannot get API server config")
		}
	}

	mgr, err := ctrl.NewManager(rc, ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: c.config.MetricsBindAddress,
		},
		HealthProbeBindAddress: c.config.HealthProbeBindAddress,
		WebhookServer: webhook.NewServer(webhook.Options{
			Port:    c.config.Webhook.Port,
			CertDir: c.config.Webhook.CertDir,
		}),
		// One replica only.
		LeaderElection: false,
	})
	if err != nil {
		return errors.Wrap(err, "unable to create controller manager")
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return errors.Wrap(err, "unable to set up health check")
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return errors.Wrap(err, "unable to set up ready check")
	}

	m := metrics.NewPrometheusMetrics(c.build)
	if err := crmetrics.Registry.Register(m); err != nil {
		return errors.Wrap(err, "unable to register metrics")
	}

	if ptr.Deref(c.config.Controller.Enabled, true) {
		if err := myapp.Setup(mgr, myapp.Options{
			Logger:                  c.log,
			Metrics:                 m,
			MaxConcurrentReconciles: c.config.MaxConcurrentReconciles,
			MaxReconcileRate:        c.config.MaxReconcileRate,
			ReconcilerOptions:       c.config.ReconcilerOptions(),
		}); err != nil {
			return err
		}
		c.log.Debug("Set up MyApp controller", "identity", c.config.Identity)
	}

	if ptr.Deref(c.config.Webhook.Enabled, true) {
		whmyapp.Register(mgr.GetWebhookServer(), scheme,
			whmyapp.WithLogger(c.log.WithValues("webhook", v1.MyAppGroupKind)),
			whmyapp.WithMetrics(m),
			whmyapp.WithManagedBy(c.config.Webhook.ManagedBy),
		)
		if err := mgr.AddReadyzCheck("webhook", mgr.GetWebhookServer().StartedChecker()); err != nil {
			return errors.Wrap(err, "unable to set up webhook ready check")
		}
		c.log.Debug("Registered MyApp webhooks", "port", c.config.Webhook.Port)
	}

	c.log.Info("Starting manager")
	return errors.Wrap(mgr.Start(ctx), "problem running manager")
}
