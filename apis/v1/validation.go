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
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Validation messages.
const (
	MsgReplicasOutOfRange = "replicas must be between 1 and 100"
	MsgImageEmpty         = "image cannot be empty"
	MsgImageSyntax        = "image must be in name:tag form"
	MsgImageLatest        = "image tag 'latest' is not allowed"
	MsgInvalidQuantity    = "must be a valid resource quantity"
)

// ImagePattern is the accepted image reference syntax. A registry host may
// carry a port.
const ImagePattern = `^([a-z0-9-.]+:[0-9]+/)?[a-z0-9-./]+:[a-z0-9.-]+$`

var imageRE = regexp.MustCompile(ImagePattern)

// ImageTag returns the tag of the supplied image reference, or an empty string
// if it has none. A colon before the last slash belongs to a registry port.
func ImageTag(image string) string {
	i := strings.LastIndex(image, ":")
	if i < 0 || i < strings.LastIndex(image, "/") {
		return ""
	}
	return image[i+1:]
}

// Validate returns every way in which the MyApp's spec is invalid.
func (a *MyApp) Validate() field.ErrorList {
	return a.Spec.Validate(field.NewPath("spec"))
}

// Validate returns every way in which the spec is invalid.
func (s *MyAppSpec) Validate(p *field.Path) field.ErrorList {
	var errs field.ErrorList

	if s.Replicas < MinReplicas || s.Replicas > MaxReplicas {
		errs = append(errs, field.Invalid(p.Child("replicas"), s.Replicas, MsgReplicasOutOfRange))
	}

	switch {
	case s.Image == "":
		errs = append(errs, field.Required(p.Child("image"), MsgImageEmpty))
	case ImageTag(s.Image) == "latest":
		// Only immutable tags are allowed.
		errs = append(errs, field.Invalid(p.Child("image"), s.Image, MsgImageLatest))
	case !imageRE.MatchString(s.Image) || ImageTag(s.Image) == "":
		errs = append(errs, field.Invalid(p.Child("image"), s.Image, MsgImageSyntax))
	}

	if r := s.Resources; r != nil {
		rp := p.Child("resources")
		if _, err := resource.ParseQuantity(r.CPU); err != nil {
			errs = append(errs, field.Invalid(rp.Child("cpu"), r.CPU, MsgInvalidQuantity))
		}
		if _, err := resource.ParseQuantity(r.Memory); err != nil {
			errs = append(errs, field.Invalid(rp.Child("memory"), r.Memory, MsgInvalidQuantity))
		}
	}

	return errs
}
