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

// Package config loads the MyApp controller's configuration.
package config

import (
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/n3wscott/myapp-controller/pkg/controller/myapp"
	webhook "github.com/n3wscott/myapp-controller/pkg/webhook/myapp"
)

// Backoff policy kinds.
const (
	BackoffFixed   = "fixed"
	BackoffPerKind = "per-kind"
)

// Backoff configures how long to wait before retrying a failed reconcile.
type Backoff struct {
	// Kind is either fixed or per-kind.
	Kind string `json:"kind,omitempty"`

	// Delays by error kind, used when Kind is per-kind. Kinds missing from
	// Delays wait ErrorRequeue.
	Delays map[string]metav1.Duration `json:"delays,omitempty"`

	// Jitter adds up to delay*Jitter to each per-kind delay.
	Jitter float64 `json:"jitter,omitempty"`
}

// Webhook configures the admission webhooks.
type Webhook struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	Port      int    `json:"port,omitempty"`
	CertDir   string `json:"certDir,omitempty"`
	ManagedBy string `json:"managedBy,omitempty"`
}

// Controller configures the MyApp controller.
type Controller struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// Config is the configuration of the MyApp controller process.
type Config struct {
	// Identity is the managed-by label value of child resources.
	Identity string `json:"identity,omitempty"`

	ResyncInterval   metav1.Duration `json:"resyncInterval,omitempty"`
	FinalizerRequeue metav1.Duration `json:"finalizerRequeue,omitempty"`
	ErrorRequeue     metav1.Duration `json:"errorRequeue,omitempty"`
	Backoff          Backoff         `json:"backoff,omitempty"`

	MaxConcurrentReconciles int `json:"maxConcurrentReconciles,omitempty"`
	MaxReconcileRate        int `json:"maxReconcileRate,omitempty"`

	MetricsBindAddress     string `json:"metricsBindAddress,omitempty"`
	HealthProbeBindAddress string `json:"healthProbeBindAddress,omitempty"`

	Webhook    Webhook    `json:"webhook,omitempty"`
	Controller Controller `json:"controller,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Identity:                myapp.DefaultIdentity,
		ResyncInterval:          metav1.Duration{Duration: myapp.DefaultResyncInterval},
		FinalizerRequeue:        metav1.Duration{Duration: myapp.DefaultFinalizerRequeue},
		ErrorRequeue:            metav1.Duration{Duration: myapp.DefaultErrorRequeue},
		Backoff:                 Backoff{Kind: BackoffFixed},
		MaxConcurrentReconciles: 1,
		MaxReconcileRate:        10,
		MetricsBindAddress:      ":8080",
		HealthProbeBindAddress:  ":8081",
		Webhook: Webhook{
			Enabled:   ptr.To(true),
			Port:      8443,
			ManagedBy: webhook.DefaultManagedBy,
		},
		Controller: Controller{
			Enabled: ptr.To(true),
		},
	}
}

// Load reads a YAML or JSON configuration file from the supplied filesystem.
// Fields the file omits take their default values. An empty path returns the
// default configuration.
func Load(fs afero.Fs, path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config file")
	}

	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse config file")
	}

	// Without dereferencing, an explicit false is not mistaken for unset.
	if err := mergo.Merge(&c, Default(), mergo.WithoutDereference); err != nil {
		return Config{}, errors.Wrap(err, "unable to apply config defaults")
	}

	return c, errors.Wrapf(Validate(c), "invalid config file %s", path)
}

// Validate checks if a Config is valid.
func Validate(c Config) error {
	if c.Identity == "" {
		return errors.New("identity must not be empty")
	}

	for name, d := range map[string]metav1.Duration{
		"resyncInterval":   c.ResyncInterval,
		"finalizerRequeue": c.FinalizerRequeue,
		"errorRequeue":     c.ErrorRequeue,
	} {
		if d.Duration <= 0 {
			return errors.Errorf("%s must be positive, got %s", name, d.Duration)
		}
	}

	if c.MaxConcurrentReconciles < 1 {
		return errors.Errorf("maxConcurrentReconciles must be at least 1, got %d", c.MaxConcurrentReconciles)
	}
	if c.MaxReconcileRate < 1 {
		return errors.Errorf("maxReconcileRate must be at least 1, got %d", c.MaxReconcileRate)
	}

	switch c.Backoff.Kind {
	case BackoffFixed, BackoffPerKind:
	default:
		return errors.Errorf("backoff kind must be %q or %q, got %q", BackoffFixed, BackoffPerKind, c.Backoff.Kind)
	}
	for k, d := range c.Backoff.Delays {
		switch myapp.ErrorKind(k) {
		case myapp.StoreError, myapp.ValidationError, myapp.FinalizerError:
		default:
			return errors.Errorf("unknown error kind %q in backoff delays", k)
		}
		if d.Duration <= 0 {
			return errors.Errorf("backoff delay for %s must be positive, got %s", k, d.Duration)
		}
	}
	if c.Backoff.Jitter < 0 {
		return errors.Errorf("backoff jitter must not be negative, got %v", c.Backoff.Jitter)
	}

	if c.Webhook.Port < 1 || c.Webhook.Port > 65535 {
		return errors.Errorf("webhook port must be between 1 and 65535, got %d", c.Webhook.Port)
	}

	if !ptr.Deref(c.Controller.Enabled, true) && !ptr.Deref(c.Webhook.Enabled, true) {
		return errors.New("at least one of the controller and the webhooks must be enabled")
	}

	return nil
}

// BackoffPolicy returns the backoff policy the Config describes.
func (c Config) BackoffPolicy() myapp.BackoffPolicy {
	if c.Backoff.Kind != BackoffPerKind {
		return myapp.FixedBackoff{Delay: c.ErrorRequeue.Duration}
	}

	delays := make(map[myapp.ErrorKind]time.Duration, len(c.Backoff.Delays))
	for k, d := range c.Backoff.Delays {
		delays[myapp.ErrorKind(k)] = d.Duration
	}
	return myapp.KindBackoff{
		Delays:       delays,
		Default:      c.ErrorRequeue.Duration,
		JitterFactor: c.Backoff.Jitter,
	}
}

// ReconcilerOptions returns the reconciler options the Config describes.
func (c Config) ReconcilerOptions() []myapp.ReconcilerOption {
	return []myapp.ReconcilerOption{
		myapp.WithIdentity(c.Identity),
		myapp.WithResyncInterval(c.ResyncInterval.Duration),
		myapp.WithFinalizerRequeue(c.FinalizerRequeue.Duration),
		myapp.WithBackoffPolicy(c.BackoffPolicy()),
	}
}
