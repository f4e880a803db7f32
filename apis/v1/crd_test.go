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

package v1

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"sigs.k8s.io/yaml"
)

func TestCustomResourceDefinition(t *testing.T) {
	crd := CustomResourceDefinition()

	if diff := cmp.Diff("myapps.example.com", crd.GetName()); diff != "" {
		t.Errorf("CustomResourceDefinition(): -want name, +got name:\n%s", diff)
	}

	v := crd.Spec.Versions[0]
	if v.Subresources == nil || v.Subresources.Status == nil {
		t.Errorf("CustomResourceDefinition(): want status subresource enabled")
	}

	replicas := v.Schema.OpenAPIV3Schema.Properties["spec"].Properties["replicas"]
	if *replicas.Minimum != MinReplicas || *replicas.Maximum != MaxReplicas {
		t.Errorf("CustomResourceDefinition(): want replicas bounded [%d, %d], got [%v, %v]", MinReplicas, MaxReplicas, *replicas.Minimum, *replicas.Maximum)
	}

	if _, err := yaml.Marshal(crd); err != nil {
		t.Errorf("yaml.Marshal(CustomResourceDefinition()): %v", err)
	}
}
