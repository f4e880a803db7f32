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

// Package v1 contains the MyApp API.
// +kubebuilder:object:generate=true
// +groupName=example.com
// +versionName=v1
package v1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

// Package type metadata.
const (
	Group   = "example.com"
	Version = "v1"
)

var (
	// SchemeGroupVersion is group version used to register these objects.
	SchemeGroupVersion = schema.GroupVersion{Group: Group, Version: Version}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: SchemeGroupVersion}

	// AddToScheme adds all registered types to a scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)

// MyApp type metadata.
var (
	MyAppKind             = "MyApp"
	MyAppListKind         = "MyAppList"
	MyAppPlural           = "myapps"
	MyAppSingular         = "myapp"
	MyAppShortName        = "ma"
	MyAppGroupKind        = schema.GroupKind{Group: Group, Kind: MyAppKind}.String()
	MyAppKindAPIVersion   = MyAppKind + "." + SchemeGroupVersion.String()
	MyAppGroupVersionKind = SchemeGroupVersion.WithKind(MyAppKind)
)

func init() {
	SchemeBuilder.Register(&MyApp{}, &MyAppList{})
}
