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

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	extv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"sigs.k8s.io/yaml"

	"github.com/n3wscott/myapp-controller/pkg/config"
)

func TestGenerateCRD(t *testing.T) {
	cases := map[string]struct {
		reason string
		args   []string
		file   string
	}{
		"Stdout": {
			reason: "Without -o the CRD should be written to stdout.",
			args:   []string{"generate-crd"},
		},
		"File": {
			reason: "With -o the CRD should be written to the file.",
			args:   []string{"generate-crd", "-o", "/tmp/crd.yaml"},
			file:   "/tmp/crd.yaml",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			out := &bytes.Buffer{}
			cmd := newRootCommand(fs, out)
			cmd.SetArgs(tc.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("\n%s\nExecute(): %v", tc.reason, err)
			}

			b := out.Bytes()
			if tc.file != "" {
				var err error
				if b, err = afero.ReadFile(fs, tc.file); err != nil {
					t.Fatalf("\n%s\nafero.ReadFile(...): %v", tc.reason, err)
				}
			}

			crd := &extv1.CustomResourceDefinition{}
			if err := yaml.Unmarshal(b, crd); err != nil {
				t.Fatalf("\n%s\nyaml.Unmarshal(...): %v", tc.reason, err)
			}
			if crd.GetName() != "myapps.example.com" {
				t.Errorf("\n%s\nCRD name: want myapps.example.com, got %q", tc.reason, crd.GetName())
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCommand(afero.NewMemMapFs(), out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	if !strings.HasPrefix(out.String(), "myapp-controller dev") {
		t.Errorf("version: want prefix %q, got %q", "myapp-controller dev", out.String())
	}
}

func TestLoad(t *testing.T) {
	cases := map[string]struct {
		reason string
		file   string
		args   []string
		want   func() config.Config
		err    bool
	}{
		"Defaults": {
			reason: "No file and no flags means the default config.",
			want:   config.Default,
		},
		"FlagsOverrideFile": {
			reason: "Flags the user set should win over the config file.",
			file:   "identity: platform\nmaxReconcileRate: 5\n",
			args:   []string{"--config", "/etc/myapp.yaml", "--identity", "ops", "--resync-interval", "1m"},
			want: func() config.Config {
				c := config.Default()
				c.Identity = "ops"
				c.MaxReconcileRate = 5
				c.ResyncInterval.Duration = time.Minute
				return c
			},
		},
		"InvalidFlag": {
			reason: "A flag that makes the config invalid is an error.",
			args:   []string{"--max-concurrent-reconciles", "0"},
			err:    true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tc.file != "" {
				if err := afero.WriteFile(fs, "/etc/myapp.yaml", []byte(tc.file), 0o600); err != nil {
					t.Fatalf("afero.WriteFile(...): %v", err)
				}
			}

			f := &flags{}
			fl := pflag.NewFlagSet("test", pflag.ContinueOnError)
			f.register(fl, config.Default())
			if err := fl.Parse(tc.args); err != nil {
				t.Fatalf("fl.Parse(...): %v", err)
			}

			got, err := load(fs, fl, f)
			if (err != nil) != tc.err {
				t.Fatalf("\n%s\nload(...): want error %t, got %v", tc.reason, tc.err, err)
			}
			if tc.err {
				return
			}
			if diff := cmp.Diff(tc.want(), got); diff != "" {
				t.Errorf("\n%s\nload(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}
