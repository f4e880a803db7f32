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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	xpv1 "github.com/crossplane/crossplane-runtime/apis/common/v1"
)

// Reasons a MyApp is or is not ready.
const (
	ReasonReconcileSuccess xpv1.ConditionReason = "ReconcileSuccess"
	ReasonValidationFailed xpv1.ConditionReason = "ValidationFailed"
)

// Ready returns a condition indicating the MyApp's children were reconciled.
func Ready(now metav1.Time) xpv1.Condition {
	return xpv1.Condition{
		Type:               xpv1.TypeReady,
		Status:             corev1.ConditionTrue,
		LastTransitionTime: now,
		Reason:             ReasonReconcileSuccess,
		Message:            "Resource reconciled successfully",
	}
}

// ValidationFailed returns a condition indicating the MyApp's spec is invalid.
func ValidationFailed(now metav1.Time, err error) xpv1.Condition {
	return xpv1.Condition{
		Type:               xpv1.TypeReady,
		Status:             corev1.ConditionFalse,
		LastTransitionTime: now,
		Reason:             ReasonValidationFailed,
		Message:            err.Error(),
	}
}
