package framework

import (
	"context"
	"log/slog"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

const (
	// LabelManagedBy is the label key used to identify resources managed by the framework
	LabelManagedBy = "upgrade-test.openebs.io/managed-by"
	// LabelInstance is the label key used to identify the specific framework instance
	LabelInstance = "upgrade-test.openebs.io/instance"
	// LabelManagedByValue is the value for the managed-by label
	LabelManagedByValue = "framework"
)

// TrackedResource represents a resource created by the framework
type TrackedResource struct {
	GVR       schema.GroupVersionResource
	Namespace string
	Name      string
}

// Clients provides access to Kubernetes clients
type Clients interface {
	Client() kubernetes.Interface
	DynamicClient() dynamic.Interface
	Config() *rest.Config
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
}

// Tracker provides resource tracking capabilities
type Tracker interface {
	TrackCR(gvr schema.GroupVersionResource, namespace, name string)
	TrackClusterResource(gvr schema.GroupVersionResource, name string)
	GetManagedLabels() map[string]string
}

// FrameworkOperations combines all capabilities needed by subpackages
type FrameworkOperations interface {
	Clients
	Tracker
}
