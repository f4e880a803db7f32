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

// Command myapp-controller reconciles MyApp resources and serves their
// admission webhooks.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/yaml"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
	"github.com/n3wscott/myapp-controller/pkg/config"
	"github.com/n3wscott/myapp-controller/pkg/controller"
	"github.com/n3wscott/myapp-controller/pkg/metrics"
)

// Set with -ldflags at build time.
var (
	version   = "dev"
	buildDate = ""
	gitCommit = ""
)

type flags struct {
	configPath string
	debug      bool

	identity                string
	maxConcurrentReconciles int
	maxReconcileRate        int
	metricsAddr             string
	probeAddr               string
	webhookPort             int
	certDir                 string
}

// register adds the flags to the supplied flag set, defaulting them from cfg.
func (f *flags) register(pf *pflag.FlagSet, cfg config.Config) {
	pf.StringVar(&f.configPath, "config", "", "Path to a YAML or JSON configuration file")
	pf.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.identity, "identity", cfg.Identity, "Value of the managed-by label on child resources")
	pf.IntVar(&f.maxConcurrentReconciles, "max-concurrent-reconciles", cfg.MaxConcurrentReconciles, "The number of MyApps that may be reconciled at once")
	pf.IntVar(&f.maxReconcileRate, "max-reconcile-rate", cfg.MaxReconcileRate, "The maximum number of reconciles per second")
	pf.StringVar(&f.metricsAddr, "metrics-bind-address", cfg.MetricsBindAddress, "The address the metric endpoint binds to")
	pf.StringVar(&f.probeAddr, "health-probe-bind-address", cfg.HealthProbeBindAddress, "The address the probe endpoint binds to")
	pf.IntVar(&f.webhookPort, "webhook-port", cfg.Webhook.Port, "The port the webhook server listens on")
	pf.StringVar(&f.certDir, "cert-dir", "", "The directory containing TLS certificates")
	pf.Duration("resync-interval", cfg.ResyncInterval.Duration, "How often a MyApp is revisited when nothing changed")
}

func main() {
	fs := afero.NewOsFs()
	if err := newRootCommand(fs, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(fs afero.Fs, out io.Writer) *cobra.Command {
	f := &flags{}
	cfg := config.Default()

	root := &cobra.Command{
		Use:          "myapp-controller",
		Short:        "Reconcile MyApp resources into Deployments and Services",
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	f.register(pf, cfg)

	// Add controller-runtime flags
	pf.AddGoFlagSet(flag.CommandLine)

	run := newRunCommand(fs, f, false)
	root.RunE = run.RunE
	root.AddCommand(
		run,
		newRunCommand(fs, f, true),
		newGenerateCRDCommand(fs, out),
		newVersionCommand(out),
	)
	return root
}

// load reads the config file and applies flags the user set on top.
func load(fs afero.Fs, fl *pflag.FlagSet, f *flags) (config.Config, error) {
	c, err := config.Load(fs, f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	set := fl.Changed
	if set("identity") {
		c.Identity = f.identity
	}
	if set("resync-interval") {
		d, err := fl.GetDuration("resync-interval")
		if err != nil {
			return config.Config{}, errors.Wrap(err, "invalid resync interval")
		}
		c.ResyncInterval.Duration = d
	}
	if set("max-concurrent-reconciles") {
		c.MaxConcurrentReconciles = f.maxConcurrentReconciles
	}
	if set("max-reconcile-rate") {
		c.MaxReconcileRate = f.maxReconcileRate
	}
	if set("metrics-bind-address") {
		c.MetricsBindAddress = f.metricsAddr
	}
	if set("health-probe-bind-address") {
		c.HealthProbeBindAddress = f.probeAddr
	}
	if set("webhook-port") {
		c.Webhook.Port = f.webhookPort
	}
	if set("cert-dir") {
		c.Webhook.CertDir = f.certDir
	}

	return c, errors.Wrap(config.Validate(c), "invalid configuration")
}

func newRunCommand(fs afero.Fs, f *flags, webhookOnly bool) *cobra.Command {
	use, short := "run", "Run the MyApp controller and its webhooks"
	if webhookOnly {
		use, short = "webhook", "Serve only the MyApp admission webhooks"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zl := zap.New(zap.UseDevMode(f.debug))
			ctrl.SetLogger(zl)
			klog.SetLogger(zl)
			log := logging.NewLogrLogger(zl.WithName("myapp-controller"))

			c, err := load(fs, cmd.Flags(), f)
			if err != nil {
				return err
			}
			if webhookOnly {
				c.Controller.Enabled = ptr.To(false)
				c.Webhook.Enabled = ptr.To(true)
			}

			log.Info("Starting", "version", version, "controller", ptr.Deref(c.Controller.Enabled, true), "webhooks", ptr.Deref(c.Webhook.Enabled, true))
			return controller.NewController(c,
				controller.WithLogger(log),
				controller.WithBuildInfo(metrics.BuildInfo{Version: version, BuildDate: buildDate, GitCommit: gitCommit}),
			).Start(ctrl.SetupSignalHandler())
		},
	}
}

func newGenerateCRDCommand(fs afero.Fs, out io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "generate-crd",
		Short: "Print the MyApp CustomResourceDefinition as YAML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, err := yaml.Marshal(v1.CustomResourceDefinition())
			if err != nil {
				return errors.Wrap(err, "cannot marshal CustomResourceDefinition")
			}
			if output == "" {
				_, err := out.Write(b)
				return errors.Wrap(err, "cannot write CustomResourceDefinition")
			}
			return errors.Wrapf(afero.WriteFile(fs, output, b, 0o644), "cannot write CustomResourceDefinition to %s", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(out, "myapp-controller %s (commit %s, built %s)\n", version, orUnknown(gitCommit), orUnknown(buildDate))
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
