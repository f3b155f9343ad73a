package pool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/gvr"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/retry"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// Clients provides access to the cluster clients needed for pool setup
type Clients interface {
	DynamicClient() dynamic.Interface
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
	GetManagedLabels() map[string]string
	TrackCR(gvr schema.GroupVersionResource, namespace, name string)
}

// Spec describes a DiskPool to create
type Spec struct {
	// Name of the DiskPool resource
	Name string

	// Node the pool is placed on
	Node string

	// Disks backing the pool, device links or uring paths
	// (e.g. "/dev/sdb", "aio:///dev/loop0")
	Disks []string
}

// Status is the observed state of a DiskPool
type Status struct {
	State      string
	PoolStatus string
	Capacity   int64
	Used       int64
}

// Online reports whether the pool has been created on the io-engine
// and is serving replicas.
func (s Status) Online() bool {
	return s.State == "Created" && s.PoolStatus == "Online"
}

// Create creates a DiskPool custom resource. Creation is idempotent;
// an existing pool with the same name is tracked and reused.
func Create(c Clients, spec Spec) error {
	if spec.Name == "" || spec.Node == "" || len(spec.Disks) == 0 {
		return fmt.Errorf("disk pool spec requires name, node and at least one disk")
	}

	obj := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "openebs.io/v1beta2",
			"kind":       "DiskPool",
			"metadata": map[string]interface{}{
				"name":      spec.Name,
				"namespace": c.Namespace(),
			},
			"spec": map[string]interface{}{
				"node":  spec.Node,
				"disks": toInterfaceSlice(spec.Disks),
			},
		},
	}

	labels := obj.GetLabels()
	if labels == nil {
		labels = make(map[string]string)
	}
	for k, v := range c.GetManagedLabels() {
		labels[k] = v
	}
	obj.SetLabels(labels)

	_, err := c.DynamicClient().Resource(gvr.DiskPool).Namespace(c.Namespace()).Create(c.Context(), obj, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create disk pool %s: %w", spec.Name, err)
	}

	// Track even when it already existed, so cleanup removes it
	c.TrackCR(gvr.DiskPool, c.Namespace(), spec.Name)

	c.Logger().Info("disk pool created",
		"pool", spec.Name,
		"node", spec.Node,
		"disks", spec.Disks)
	return nil
}

// GetStatus reads the current status of a DiskPool
func GetStatus(c Clients, name string) (Status, error) {
	obj, err := c.DynamicClient().Resource(gvr.DiskPool).Namespace(c.Namespace()).Get(c.Context(), name, metav1.GetOptions{})
	if err != nil {
		return Status{}, fmt.Errorf("failed to get disk pool %s: %w", name, err)
	}
	return statusFrom(obj), nil
}

// WaitOnline polls until the pool reports Online or the timeout expires
func WaitOnline(c Clients, name string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	attempts := int(timeout/(5*time.Second)) + 1

	err := retry.Do(ctx, func(ctx context.Context) error {
		status, err := GetStatus(c, name)
		if err != nil {
			return err
		}
		if !status.Online() {
			return fmt.Errorf("pool %s is %s/%s", name, status.State, status.PoolStatus)
		}
		return nil
	},
		retry.WithMaxAttempts(attempts),
		retry.WithInitialDelay(5*time.Second),
		retry.WithMultiplier(1.0),
		retry.WithJitter(0),
	)
	if err != nil {
		return fmt.Errorf("disk pool %s not online after %v: %w", name, timeout, err)
	}

	c.Logger().Info("disk pool online", "pool", name)
	return nil
}

// List returns the names of all DiskPools in the namespace
func List(c Clients) ([]string, error) {
	pools, err := c.DynamicClient().Resource(gvr.DiskPool).Namespace(c.Namespace()).List(c.Context(), metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list disk pools: %w", err)
	}

	names := make([]string, 0, len(pools.Items))
	for _, item := range pools.Items {
		names = append(names, item.GetName())
	}
	return names, nil
}

func statusFrom(obj *unstructured.Unstructured) Status {
	var status Status
	status.State, _, _ = unstructured.NestedString(obj.Object, "status", "cr_state")
	status.PoolStatus, _, _ = unstructured.NestedString(obj.Object, "status", "pool_status")
	status.Capacity, _, _ = unstructured.NestedInt64(obj.Object, "status", "capacity")
	status.Used, _, _ = unstructured.NestedInt64(obj.Object, "status", "used")
	return status
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
