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

// Package child derives the resources a MyApp owns. Everything here is a pure
// function of the MyApp; the same MyApp always yields the same children.
package child

import (
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	v1 "github.com/n3wscott/myapp-controller/apis/v1"
)

// Label keys set on every child.
const (
	LabelApp       = "app"
	LabelManagedBy = "managed-by"
)

// Name suffixes of each kind of child.
const (
	SuffixDeployment = "-deployment"
	SuffixService    = "-service"
)

// Ports exposed by the workload and its service.
const (
	PortName = "http"
	Port     = 80
)

// ContainerName is the name of the workload's only container.
const ContainerName = "app"

const (
	errParseCPU    = "cannot parse cpu quantity"
	errParseMemory = "cannot parse memory quantity"
)

// DeploymentName returns the name of the MyApp's Deployment.
func DeploymentName(a *v1.MyApp) string { return a.GetName() + SuffixDeployment }

// ServiceName returns the name of the MyApp's Service.
func ServiceName(a *v1.MyApp) string { return a.GetName() + SuffixService }

// Labels returns the labels every child of the MyApp carries. They double as
// the workload's selector.
func Labels(a *v1.MyApp, identity string) map[string]string {
	return map[string]string{
		LabelApp:       a.GetName(),
		LabelManagedBy: identity,
	}
}

// OwnerReference returns a controller reference to the MyApp.
func OwnerReference(a *v1.MyApp) metav1.OwnerReference {
	return *metav1.NewControllerRef(a, v1.MyAppGroupVersionKind)
}

func objectMeta(a *v1.MyApp, name, identity string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:            name,
		Namespace:       a.GetNamespace(),
		Labels:          Labels(a, identity),
		OwnerReferences: []metav1.OwnerReference{OwnerReference(a)},
	}
}

// Env returns the container environment derived from the MyApp's EnvVars,
// sorted by name.
func Env(a *v1.MyApp) []corev1.EnvVar {
	if len(a.Spec.EnvVars) == 0 {
		return nil
	}
	env := make([]corev1.EnvVar, 0, len(a.Spec.EnvVars))
	for k, v := range a.Spec.EnvVars {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}
	sort.Slice(env, func(i, j int) bool { return env[i].Name < env[j].Name })
	return env
}

// Resources returns the container's resource requests.
func Resources(a *v1.MyApp) (corev1.ResourceRequirements, error) {
	r := a.Spec.Resources
	if r == nil {
		return corev1.ResourceRequirements{}, nil
	}
	cpu, err := resource.ParseQuantity(r.CPU)
	if err != nil {
		return corev1.ResourceRequirements{}, errors.Wrap(err, errParseCPU)
	}
	mem, err := resource.ParseQuantity(r.Memory)
	if err != nil {
		return corev1.ResourceRequirements{}, errors.Wrap(err, errParseMemory)
	}
	return corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    cpu,
			corev1.ResourceMemory: mem,
		},
	}, nil
}

// Schedule applies the MyApp's scheduling configuration to the pod spec.
func Schedule(a *v1.MyApp, ps *corev1.PodSpec) {
	s := a.Spec.Scheduling
	if s == nil {
		return
	}
	if len(s.NodeSelector) > 0 {
		ps.NodeSelector = make(map[string]string, len(s.NodeSelector))
		for k, v := range s.NodeSelector {
			ps.NodeSelector[k] = v
		}
	}
	ps.PriorityClassName = s.PriorityClassName
	ps.SchedulerName = s.SchedulerName
	for _, t := range s.Tolerations {
		ps.Tolerations = append(ps.Tolerations, corev1.Toleration{
			Key:      t.Key,
			Operator: corev1.TolerationOperator(t.Operator),
			Value:    t.Value,
			Effect:   corev1.TaintEffect(t.Effect),
		})
	}
}

// Deployment returns the MyApp's workload.
func Deployment(a *v1.MyApp, identity string) (*appsv1.Deployment, error) {
	res, err := Resources(a)
	if err != nil {
		return nil, err
	}

	labels := Labels(a, identity)
	ps := corev1.PodSpec{
		Containers: []corev1.Container{{
			Name:      ContainerName,
			Image:     a.Spec.Image,
			Env:       Env(a),
			Resources: res,
			Ports: []corev1.ContainerPort{{
				Name:          PortName,
				ContainerPort: Port,
				Protocol:      corev1.ProtocolTCP,
			}},
		}},
	}
	Schedule(a, &ps)

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: appsv1.SchemeGroupVersion.String(),
			Kind:       "Deployment",
		},
		ObjectMeta: objectMeta(a, DeploymentName(a), identity),
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(a.Spec.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: Labels(a, identity)},
				Spec:       ps,
			},
		},
	}, nil
}

// Service returns the MyApp's network endpoint.
func Service(a *v1.MyApp, identity string) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{
			APIVersion: corev1.SchemeGroupVersion.String(),
			Kind:       "Service",
		},
		ObjectMeta: objectMeta(a, ServiceName(a), identity),
		Spec: corev1.ServiceSpec{
			Selector: Labels(a, identity),
			Ports: []corev1.ServicePort{{
				Name:       PortName,
				Port:       Port,
				TargetPort: intstr.FromInt32(Port),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// Build returns every child of the MyApp, workload first.
func Build(a *v1.MyApp, identity string) ([]client.Object, error) {
	d, err := Deployment(a, identity)
	if err != nil {
		return nil, err
	}
	return []client.Object{d, Service(a, identity)}, nil
}

// Empty returns an empty object of each child kind, named and namespaced so
// that it can be used to get or delete the MyApp's children.
func Empty(a *v1.MyApp) []client.Object {
	return []client.Object{
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: a.GetNamespace(), Name: DeploymentName(a)}},
		&corev1.Service{ObjectMeta: metav1.ObjectMeta{Namespace: a.GetNamespace(), Name: ServiceName(a)}},
	}
}

// Names returns the names of the MyApp's children.
func Names(a *v1.MyApp) []types.NamespacedName {
	return []types.NamespacedName{
		{Namespace: a.GetNamespace(), Name: DeploymentName(a)},
		{Namespace: a.GetNamespace(), Name: ServiceName(a)},
	}
}
