package pool

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestStatusOnline(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"created and online", Status{State: "Created", PoolStatus: "Online"}, true},
		{"creating", Status{State: "Creating", PoolStatus: "Unknown"}, false},
		{"created but degraded", Status{State: "Created", PoolStatus: "Degraded"}, false},
		{"empty", Status{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Online(); got != tt.want {
				t.Errorf("Online() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusFrom(t *testing.T) {
	obj := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "openebs.io/v1beta2",
			"kind":       "DiskPool",
			"status": map[string]interface{}{
				"cr_state":    "Created",
				"pool_status": "Online",
				"capacity":    int64(10737418240),
				"used":        int64(1073741824),
			},
		},
	}

	status := statusFrom(obj)
	if status.State != "Created" {
		t.Errorf("State = %q, want Created", status.State)
	}
	if status.PoolStatus != "Online" {
		t.Errorf("PoolStatus = %q, want Online", status.PoolStatus)
	}
	if status.Capacity != 10737418240 {
		t.Errorf("Capacity = %d", status.Capacity)
	}
	if status.Used != 1073741824 {
		t.Errorf("Used = %d", status.Used)
	}
	if !status.Online() {
		t.Error("expected pool to report online")
	}
}

func TestStatusFromMissingStatus(t *testing.T) {
	obj := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "openebs.io/v1beta2",
			"kind":       "DiskPool",
		},
	}

	status := statusFrom(obj)
	if status.Online() {
		t.Error("pool without status must not report online")
	}
}
