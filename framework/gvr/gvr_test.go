package gvr

import (
	"testing"
)

func TestDiskPoolGVRs(t *testing.T) {
	if DiskPool.Group != "openebs.io" {
		t.Errorf("expected Group 'openebs.io', got %q", DiskPool.Group)
	}
	if DiskPool.Version != "v1beta2" {
		t.Errorf("expected Version 'v1beta2', got %q", DiskPool.Version)
	}
	if DiskPool.Resource != "diskpools" {
		t.Errorf("expected Resource 'diskpools', got %q", DiskPool.Resource)
	}

	if DiskPoolV1Beta1.Version != "v1beta1" {
		t.Errorf("expected Version 'v1beta1', got %q", DiskPoolV1Beta1.Version)
	}
}

func TestRBACGVRs(t *testing.T) {
	if ClusterRole.Group != "rbac.authorization.k8s.io" {
		t.Errorf("expected Group 'rbac.authorization.k8s.io', got %q", ClusterRole.Group)
	}
	if ClusterRole.Version != "v1" {
		t.Errorf("expected Version 'v1', got %q", ClusterRole.Version)
	}
	if ClusterRole.Resource != "clusterroles" {
		t.Errorf("expected Resource 'clusterroles', got %q", ClusterRole.Resource)
	}

	if ClusterRoleBinding.Resource != "clusterrolebindings" {
		t.Errorf("expected Resource 'clusterrolebindings', got %q", ClusterRoleBinding.Resource)
	}
}

func TestUpgradeJobGVRs(t *testing.T) {
	if Job.Group != "batch" {
		t.Errorf("expected Group 'batch', got %q", Job.Group)
	}
	if Job.Resource != "jobs" {
		t.Errorf("expected Resource 'jobs', got %q", Job.Resource)
	}

	// Core resources have empty Group
	if ServiceAccount.Group != "" {
		t.Errorf("expected empty Group for ServiceAccount, got %q", ServiceAccount.Group)
	}
	if ServiceAccount.Resource != "serviceaccounts" {
		t.Errorf("expected Resource 'serviceaccounts', got %q", ServiceAccount.Resource)
	}
}

func TestAllManagedCRs(t *testing.T) {
	crs := AllManagedCRs()
	if len(crs) != 1 {
		t.Fatalf("expected 1 managed CR, got %d", len(crs))
	}
	if crs[0] != DiskPool {
		t.Errorf("expected DiskPool, got %v", crs[0])
	}
}
