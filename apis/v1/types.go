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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	xpv1 "github.com/crossplane/crossplane-runtime/apis/common/v1"
)

// Finalizer is the token the controller owns in a MyApp's finalizer list.
const Finalizer = "myapps.example.com/finalizer"

// Replica bounds enforced by admission and by the controller.
const (
	MinReplicas = 1
	MaxReplicas = 100
)

// ResourceRequirements are the compute requests of the MyApp container.
type ResourceRequirements struct {
	// CPU is a Kubernetes quantity, e.g. 100m.
	CPU string `json:"cpu"`

	// Memory is a Kubernetes quantity, e.g. 128Mi.
	Memory string `json:"memory"`
}

// A Toleration is copied verbatim onto the workload's pod spec.
type Toleration struct {
	Key      string `json:"key,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
	Effect   string `json:"effect,omitempty"`
}

// SchedulingConfig describes where MyApp pods should be placed. The controller
// does not interpret it; it is passed through to the workload's pod spec.
type SchedulingConfig struct {
	// NodeSelector constrains pods to nodes with matching labels.
	// +optional
	NodeSelector map[string]string `json:"nodeSelector,omitempty"`

	// PriorityClassName for pod scheduling.
	// +optional
	PriorityClassName string `json:"priorityClassName,omitempty"`

	// SchedulerName selects a custom scheduler.
	// +optional
	SchedulerName string `json:"schedulerName,omitempty"`

	// +optional
	Tolerations []Toleration `json:"tolerations,omitempty"`
}

// MyAppSpec defines the desired state of a MyApp.
type MyAppSpec struct {
	// Replicas is the number of desired pods.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=100
	Replicas int32 `json:"replicas"`

	// Image to deploy, in name:tag form.
	// +kubebuilder:validation:Pattern=`^([a-z0-9-.]+:[0-9]+/)?[a-z0-9-./]+:[a-z0-9.-]+$`
	Image string `json:"image"`

	// EnvVars are exposed to the container as environment variables.
	// +optional
	EnvVars map[string]string `json:"envVars,omitempty"`

	// +optional
	Resources *ResourceRequirements `json:"resources,omitempty"`

	// +optional
	Scheduling *SchedulingConfig `json:"scheduling,omitempty"`
}

// A State summarises where a MyApp is in its lifecycle.
type State string

// MyApp states.
const (
	StatePending     State = "Pending"
	StateRunning     State = "Running"
	StateTerminating State = "Terminating"
	StateFailed      State = "Failed"
)

// MyAppStatus defines the observed state of a MyApp.
type MyAppStatus struct {
	xpv1.ConditionedStatus `json:",inline"`

	// +optional
	State State `json:"state,omitempty"`

	// ObservedGeneration is the last spec generation the controller
	// successfully processed.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// +optional
	LastUpdated *metav1.Time `json:"lastUpdated,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=ma
// +kubebuilder:printcolumn:name="State",type="string",JSONPath=".status.state"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// A MyApp is a desired-state object for an application workload.
type MyApp struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   MyAppSpec   `json:"spec"`
	Status MyAppStatus `json:"status,omitempty"`
}

// NeedsReconciliation returns true if the controller has not yet processed the
// MyApp's current generation.
func (a *MyApp) NeedsReconciliation() bool {
	return a.Status.ObservedGeneration != a.GetGeneration()
}

// +kubebuilder:object:root=true

// MyAppList contains a list of MyApp.
type MyAppList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []MyApp `json:"items"`
}
