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

// Package myapp admits MyApp resources.
package myapp

import (
	"encoding/json"
	"strings"

	jsonpatchv5 "github.com/evanphx/json-patch"
	"gomodules.xyz/jsonpatch/v2"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
)

const (
	// LabelManagedBy is the label the mutating webhook sets on every MyApp.
	LabelManagedBy = "app.kubernetes.io/managed-by"

	// DefaultManagedBy is the default value of LabelManagedBy.
	DefaultManagedBy = "myapp-controller"

	// DefaultCPU is the CPU request of a MyApp that specifies no resources.
	DefaultCPU = "100m"

	// DefaultMemory is the memory request of a MyApp that specifies no
	// resources.
	DefaultMemory = "128Mi"
)

const (
	errMarshalPatch = "cannot marshal JSON patch"
	errDecodePatch  = "cannot decode JSON patch"
	errApplyPatch   = "cannot apply JSON patch"
)

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// escape returns s as a single JSON pointer reference token.
func escape(s string) string {
	return pointerEscaper.Replace(s)
}

// Validate returns the reasons the supplied MyApp may not be admitted, if any.
func Validate(a *v1.MyApp) field.ErrorList {
	return a.Validate()
}

// Defaults returns the add operations that fill in a MyApp's defaults. They
// never remove or replace a value the author set, except the managed-by label
// which is always set to managedBy. Applying them twice is the same as
// applying them once.
func Defaults(a *v1.MyApp, managedBy string) []jsonpatch.JsonPatchOperation {
	ops := make([]jsonpatch.JsonPatchOperation, 0, 2)

	// Adding a member to a missing object fails, so add the whole map.
	if len(a.GetLabels()) == 0 {
		ops = append(ops, jsonpatch.NewOperation("add", "/metadata/labels", map[string]string{LabelManagedBy: managedBy}))
	} else {
		ops = append(ops, jsonpatch.NewOperation("add", "/metadata/labels/"+escape(LabelManagedBy), managedBy))
	}

	if a.Spec.Resources == nil {
		ops = append(ops, jsonpatch.NewOperation("add", "/spec/resources", map[string]string{
			"cpu":    DefaultCPU,
			"memory": DefaultMemory,
		}))
	}

	return ops
}

// ApplyDefaults applies the supplied operations to a JSON encoded MyApp.
func ApplyDefaults(raw []byte, ops []jsonpatch.JsonPatchOperation) ([]byte, error) {
	b, err := json.Marshal(ops)
	if err != nil {
		return nil, errors.Wrap(err, errMarshalPatch)
	}
	p, err := jsonpatchv5.DecodePatch(b)
	if err != nil {
		return nil, errors.Wrap(err, errDecodePatch)
	}
	out, err := p.Apply(raw)
	return out, errors.Wrap(err, errApplyPatch)
}
