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

package test

import (
	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
)

// Scheme returns a scheme that knows about client-go types and MyApp.
func Scheme() *runtime.Scheme {
	s := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(s); err != nil {
		panic(err)
	}
	if err := v1.AddToScheme(s); err != nil {
		panic(err)
	}
	return s
}

// A MyAppModifier modifies a MyApp.
type MyAppModifier func(a *v1.MyApp)

// WithReplicas sets the MyApp's replicas.
func WithReplicas(n int32) MyAppModifier {
	return func(a *v1.MyApp) { a.Spec.Replicas = n }
}

// WithImage sets the MyApp's image.
func WithImage(image string) MyAppModifier {
	return func(a *v1.MyApp) { a.Spec.Image = image }
}

// WithEnvVars sets the MyApp's environment variables.
func WithEnvVars(env map[string]string) MyAppModifier {
	return func(a *v1.MyApp) { a.Spec.EnvVars = env }
}

// WithResources sets the MyApp's resource requirements.
func WithResources(cpu, memory string) MyAppModifier {
	return func(a *v1.MyApp) { a.Spec.Resources = &v1.ResourceRequirements{CPU: cpu, Memory: memory} }
}

// WithScheduling sets the MyApp's scheduling configuration.
func WithScheduling(s *v1.SchedulingConfig) MyAppModifier {
	return func(a *v1.MyApp) { a.Spec.Scheduling = s }
}

// WithLabels sets the MyApp's labels.
func WithLabels(l map[string]string) MyAppModifier {
	return func(a *v1.MyApp) { a.SetLabels(l) }
}

// WithFinalizers sets the MyApp's finalizers.
func WithFinalizers(f ...string) MyAppModifier {
	return func(a *v1.MyApp) { a.SetFinalizers(f) }
}

// WithDeletionTimestamp marks the MyApp as deleted.
func WithDeletionTimestamp(t metav1.Time) MyAppModifier {
	return func(a *v1.MyApp) { a.SetDeletionTimestamp(&t) }
}

// WithGeneration sets the MyApp's generation.
func WithGeneration(g int64) MyAppModifier {
	return func(a *v1.MyApp) { a.SetGeneration(g) }
}

// NewMyApp returns a valid MyApp with three replicas of nginx:1.25 and a
// random UID.
func NewMyApp(namespace, name string, m ...MyAppModifier) *v1.MyApp {
	a := &v1.MyApp{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1.SchemeGroupVersion.String(),
			Kind:       v1.MyAppKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Namespace:  namespace,
			Name:       name,
			UID:        types.UID(uuid.NewString()),
			Generation: 1,
		},
		Spec: v1.MyAppSpec{
			Replicas: 3,
			Image:    "nginx:1.25",
		},
	}
	for _, fn := range m {
		fn(a)
	}
	return a
}
