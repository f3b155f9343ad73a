package gvr

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Mayastor custom resources
var (
	// DiskPool is the GVR for DiskPool custom resources
	DiskPool = schema.GroupVersionResource{
		Group:    "openebs.io",
		Version:  "v1beta2",
		Resource: "diskpools",
	}

	// DiskPoolV1Beta1 is the previous DiskPool API served by older
	// releases; upgrade scenarios may find pools under either version.
	DiskPoolV1Beta1 = schema.GroupVersionResource{
		Group:    "openebs.io",
		Version:  "v1beta1",
		Resource: "diskpools",
	}
)

// Upgrade job resources, created by the kubectl-mayastor plugin
var (
	// Job is the GVR for batch Jobs
	Job = schema.GroupVersionResource{
		Group:    "batch",
		Version:  "v1",
		Resource: "jobs",
	}

	// ServiceAccount is the GVR for ServiceAccount resources
	ServiceAccount = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "serviceaccounts",
	}

	// ClusterRole is the GVR for ClusterRole resources
	ClusterRole = schema.GroupVersionResource{
		Group:    "rbac.authorization.k8s.io",
		Version:  "v1",
		Resource: "clusterroles",
	}

	// ClusterRoleBinding is the GVR for ClusterRoleBinding resources
	ClusterRoleBinding = schema.GroupVersionResource{
		Group:    "rbac.authorization.k8s.io",
		Version:  "v1",
		Resource: "clusterrolebindings",
	}
)

// AllManagedCRs returns the GVRs of custom resources the harness creates
// and tracks for cleanup.
func AllManagedCRs() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{
		DiskPool,
	}
}
