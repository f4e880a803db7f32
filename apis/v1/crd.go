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
	extv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

func str() extv1.JSONSchemaProps { return extv1.JSONSchemaProps{Type: "string"} }

func stringMap() extv1.JSONSchemaProps {
	return extv1.JSONSchemaProps{
		Type:                 "object",
		AdditionalProperties: &extv1.JSONSchemaPropsOrBool{Allows: true, Schema: ptr.To(str())},
	}
}

func specSchema() extv1.JSONSchemaProps {
	return extv1.JSONSchemaProps{
		Type:     "object",
		Required: []string{"replicas", "image"},
		Properties: map[string]extv1.JSONSchemaProps{
			"replicas": {
				Type:    "integer",
				Format:  "int32",
				Minimum: ptr.To[float64](MinReplicas),
				Maximum: ptr.To[float64](MaxReplicas),
			},
			"image": {
				Type:    "string",
				Pattern: ImagePattern,
			},
			"envVars": stringMap(),
			"resources": {
				Type:     "object",
				Required: []string{"cpu", "memory"},
				Properties: map[string]extv1.JSONSchemaProps{
					"cpu":    str(),
					"memory": str(),
				},
			},
			"scheduling": {
				Type: "object",
				Properties: map[string]extv1.JSONSchemaProps{
					"nodeSelector":      stringMap(),
					"priorityClassName": str(),
					"schedulerName":     str(),
					"tolerations": {
						Type: "array",
						Items: &extv1.JSONSchemaPropsOrArray{Schema: &extv1.JSONSchemaProps{
							Type: "object",
							Properties: map[string]extv1.JSONSchemaProps{
								"key":      str(),
								"operator": str(),
								"value":    str(),
								"effect":   str(),
							},
						}},
					},
				},
			},
		},
	}
}

func statusSchema() extv1.JSONSchemaProps {
	return extv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]extv1.JSONSchemaProps{
			"state": {
				Type: "string",
				Enum: []extv1.JSON{
					{Raw: []byte(`"Pending"`)},
					{Raw: []byte(`"Running"`)},
					{Raw: []byte(`"Terminating"`)},
					{Raw: []byte(`"Failed"`)},
				},
			},
			"observedGeneration": {Type: "integer", Format: "int64"},
			"lastUpdated":        {Type: "string", Format: "date-time"},
			"conditions": {
				Type: "array",
				Items: &extv1.JSONSchemaPropsOrArray{Schema: &extv1.JSONSchemaProps{
					Type:     "object",
					Required: []string{"type", "status", "reason", "lastTransitionTime"},
					Properties: map[string]extv1.JSONSchemaProps{
						"type":               str(),
						"status":             str(),
						"reason":             str(),
						"message":            str(),
						"lastTransitionTime": {Type: "string", Format: "date-time"},
						"observedGeneration": {Type: "integer", Format: "int64"},
					},
				}},
				XListMapKeys: []string{"type"},
				XListType:    ptr.To("map"),
			},
		},
	}
}

// CustomResourceDefinition returns the CRD that serves the MyApp API.
func CustomResourceDefinition() *extv1.CustomResourceDefinition {
	return &extv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: extv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{Name: MyAppPlural + "." + Group},
		Spec: extv1.CustomResourceDefinitionSpec{
			Group: Group,
			Scope: extv1.NamespaceScoped,
			Names: extv1.CustomResourceDefinitionNames{
				Plural:     MyAppPlural,
				Singular:   MyAppSingular,
				Kind:       MyAppKind,
				ListKind:   MyAppListKind,
				ShortNames: []string{MyAppShortName},
			},
			Versions: []extv1.CustomResourceDefinitionVersion{{
				Name:    Version,
				Served:  true,
				Storage: true,
				Schema: &extv1.CustomResourceValidation{
					OpenAPIV3Schema: &extv1.JSONSchemaProps{
						Type:     "object",
						Required: []string{"spec"},
						Properties: map[string]extv1.JSONSchemaProps{
							"apiVersion": str(),
							"kind":       str(),
							"metadata":   {Type: "object"},
							"spec":       specSchema(),
							"status":     statusSchema(),
						},
					},
				},
				Subresources: &extv1.CustomResourceSubresources{
					Status: &extv1.CustomResourceSubresourceStatus{},
				},
				AdditionalPrinterColumns: []extv1.CustomResourceColumnDefinition{
					{Name: "State", Type: "string", JSONPath: ".status.state"},
					{Name: "Age", Type: "date", JSONPath: ".metadata.creationTimestamp"},
				},
			}},
		},
	}
}
