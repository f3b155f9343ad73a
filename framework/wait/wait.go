package wait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// Clients provides access to Kubernetes clients needed for wait operations
type Clients interface {
	Client() kubernetes.Interface
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
}

// Label selectors of the mayastor control and data plane components.
const (
	IOEngineSelector      = "app=io-engine"
	AgentCoreSelector     = "app=agent-core"
	APIRestSelector       = "app=api-rest"
	CSIControllerSelector = "app=csi-controller"
	EtcdSelector          = "app=etcd"
)

const pollInterval = 5 * time.Second

// ForPodsReady waits for at least minReady pods matching the selector
// to be ready.
func ForPodsReady(c Clients, selector labels.Selector, timeout time.Duration, minReady int) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		pods, err := c.Client().CoreV1().Pods(c.Namespace()).List(c.Context(), metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to list pods: %w", err)
		}

		readyCount := 0
		for _, pod := range pods.Items {
			if IsPodReady(&pod) {
				readyCount++
			}
		}

		if readyCount >= minReady && len(pods.Items) > 0 {
			return nil
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("pods %q not ready after %v (expected at least %d ready)", selector, timeout, minReady)
}

// ForDeploymentReady waits for a deployment to have all replicas ready
func ForDeploymentReady(c Clients, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		deployment, err := c.Client().AppsV1().Deployments(c.Namespace()).Get(c.Context(), name, metav1.GetOptions{})
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}

		if deployment.Status.ReadyReplicas == deployment.Status.Replicas &&
			deployment.Status.ReadyReplicas > 0 {
			return nil
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("deployment %s not ready after %v", name, timeout)
}

// ForDaemonSetReady waits for a daemonset to be ready on every scheduled
// node. The io-engine data plane runs as a daemonset.
func ForDaemonSetReady(c Clients, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		ds, err := c.Client().AppsV1().DaemonSets(c.Namespace()).Get(c.Context(), name, metav1.GetOptions{})
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}

		if ds.Status.NumberReady == ds.Status.DesiredNumberScheduled &&
			ds.Status.DesiredNumberScheduled > 0 {
			return nil
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("daemonset %s not ready after %v", name, timeout)
}

// ForPodsTerminated waits for pods matching the selector to be fully terminated
func ForPodsTerminated(c Clients, selector labels.Selector, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.Context().Err(); err != nil {
			return err
		}

		pods, err := c.Client().CoreV1().Pods(c.Namespace()).List(c.Context(), metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			// If we can't list pods, they might be gone
			return nil
		}

		if len(pods.Items) == 0 {
			return nil
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("pods %q not terminated after %v", selector, timeout)
}

// ForMayastorReady waits until every mayastor component has at least one
// ready pod. The io-engine daemonset comes up last, so it is checked
// after the control plane selectors.
func ForMayastorReady(c Clients, timeout time.Duration) error {
	selectors := []string{
		AgentCoreSelector,
		APIRestSelector,
		CSIControllerSelector,
		EtcdSelector,
		IOEngineSelector,
	}

	deadline := time.Now().Add(timeout)

	for _, selectorStr := range selectors {
		selector, err := labels.Parse(selectorStr)
		if err != nil {
			return fmt.Errorf("bad selector %q: %w", selectorStr, err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("mayastor pods not ready after %v", timeout)
		}

		c.Logger().Debug("waiting for component", "selector", selectorStr)
		if err := ForPodsReady(c, selector, remaining, 1); err != nil {
			return fmt.Errorf("component %q: %w", selectorStr, err)
		}
	}

	return nil
}

// IsPodReady checks if a pod is running with a true Ready condition
func IsPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}

	return false
}
