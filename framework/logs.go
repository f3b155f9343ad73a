package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/concurrent"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/gvr"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// LogCollectionConfig configures log collection behavior
type LogCollectionConfig struct {
	// OutputDir is the directory to write logs to
	OutputDir string
	// IncludePrevious includes logs from previous container instances
	IncludePrevious bool
	// SinceTime only returns logs after this time
	SinceTime *time.Time
	// TailLines limits the number of lines to return (0 = all)
	TailLines int64
}

// ComponentLogs holds logs for a single component
type ComponentLogs struct {
	Component string
	Pod       string
	Container string
	Logs      string
	Error     error
}

// LogCollectionResult holds the result of collecting logs from all components
type LogCollectionResult struct {
	Namespace string
	Timestamp time.Time
	Logs      []ComponentLogs
	OutputDir string
}

type component struct {
	name     string
	selector string
}

// mayastorComponents maps component names to their pod label selectors
var mayastorComponents = []component{
	{"io-engine", "app=io-engine"},
	{"agent-core", "app=agent-core"},
	{"agent-ha-node", "app=agent-ha-node"},
	{"api-rest", "app=api-rest"},
	{"csi-controller", "app=csi-controller"},
	{"csi-node", "app=csi-node"},
	{"etcd", "app=etcd"},
	{"operator-diskpool", "app=operator-diskpool"},
	{"upgrade", "app=upgrade"},
	{"fio", "app=mayastor-upgrade-fio"},
}

// CollectLogs collects logs from all mayastor components and the fio
// workload, one file per container, under OutputDir/<namespace>/.
func (f *Framework) CollectLogs(config *LogCollectionConfig) (*LogCollectionResult, error) {
	if config == nil {
		config = &LogCollectionConfig{}
	}
	if config.OutputDir == "" {
		config.OutputDir = "logs"
	}

	result := &LogCollectionResult{
		Namespace: f.namespace,
		Timestamp: time.Now(),
		OutputDir: config.OutputDir,
		Logs:      make([]ComponentLogs, 0),
	}

	logDir := filepath.Join(config.OutputDir, f.namespace)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f.logger.Info("collecting logs", "namespace", f.namespace, "dir", logDir)

	// Components are independent, stream them in parallel
	perComponent, err := concurrent.Map(f.ctx, mayastorComponents, func(ctx context.Context, comp component) ([]ComponentLogs, error) {
		return f.collectPodsLogs(comp.name, comp.selector, config), nil
	})
	if err != nil {
		return nil, err
	}
	for _, logs := range perComponent {
		result.Logs = append(result.Logs, logs...)
	}

	collected := 0
	for _, log := range result.Logs {
		if log.Error != nil || log.Logs == "" {
			continue
		}

		filename := fmt.Sprintf("%s-%s.log", log.Component, log.Pod)
		if log.Container != "" && log.Container != log.Component {
			filename = fmt.Sprintf("%s-%s-%s.log", log.Component, log.Pod, log.Container)
		}
		filename = strings.ReplaceAll(filename, "/", "-")
		path := filepath.Join(logDir, filename)

		if err := os.WriteFile(path, []byte(log.Logs), 0644); err != nil {
			f.logger.Warn("failed to write log file", "file", filename, "error", err)
			continue
		}
		collected++
	}

	f.logger.Info("logs collected", "files", collected, "dir", logDir)
	return result, nil
}

// collectPodsLogs collects logs from pods matching the selector
func (f *Framework) collectPodsLogs(component, selector string, config *LogCollectionConfig) []ComponentLogs {
	var results []ComponentLogs

	pods, err := f.client.CoreV1().Pods(f.namespace).List(f.ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return results
	}

	for _, pod := range pods.Items {
		// Skip pods that aren't running or completed
		if pod.Status.Phase != corev1.PodRunning &&
			pod.Status.Phase != corev1.PodSucceeded &&
			pod.Status.Phase != corev1.PodFailed {
			continue
		}

		for _, container := range pod.Spec.Containers {
			logs, err := f.getPodContainerLogs(pod.Name, container.Name, config)
			results = append(results, ComponentLogs{
				Component: component,
				Pod:       pod.Name,
				Container: container.Name,
				Logs:      logs,
				Error:     err,
			})
		}
	}

	return results
}

// getPodContainerLogs retrieves logs from a specific container
func (f *Framework) getPodContainerLogs(podName, containerName string, config *LogCollectionConfig) (string, error) {
	opts := &corev1.PodLogOptions{
		Container: containerName,
		Previous:  config.IncludePrevious,
	}

	if config.SinceTime != nil {
		t := metav1.NewTime(*config.SinceTime)
		opts.SinceTime = &t
	}

	if config.TailLines > 0 {
		opts.TailLines = &config.TailLines
	}

	req := f.client.CoreV1().Pods(f.namespace).GetLogs(podName, opts)

	ctx, cancel := context.WithTimeout(f.ctx, 30*time.Second)
	defer cancel()

	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream logs: %w", err)
	}
	defer stream.Close()

	var logs strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			logs.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	return logs.String(), nil
}

// DiskPoolDump holds information about a dumped DiskPool CR
type DiskPoolDump struct {
	Name      string
	Namespace string
	FilePath  string
}

// DumpDiskPools fetches the DiskPool CRs from the cluster and writes
// each one to a YAML file, useful as a post-mortem artifact when an
// upgrade leaves pools degraded.
func (f *Framework) DumpDiskPools(outputDir string) ([]DiskPoolDump, error) {
	if outputDir == "" {
		outputDir = "."
	}

	logDir := filepath.Join(outputDir, f.namespace)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	pools, err := f.dynamicClient.Resource(gvr.DiskPool).Namespace(f.namespace).List(f.ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list disk pools: %w", err)
	}

	var dumps []DiskPoolDump
	for _, pool := range pools.Items {
		pool.SetManagedFields(nil)

		yamlData, err := yaml.Marshal(pool.UnstructuredContent())
		if err != nil {
			return dumps, fmt.Errorf("failed to marshal disk pool %s: %w", pool.GetName(), err)
		}

		filename := fmt.Sprintf("diskpool-%s.yaml", pool.GetName())
		path := filepath.Join(logDir, filename)
		if err := os.WriteFile(path, yamlData, 0644); err != nil {
			return dumps, fmt.Errorf("failed to write %s: %w", filename, err)
		}

		dumps = append(dumps, DiskPoolDump{
			Name:      pool.GetName(),
			Namespace: f.namespace,
			FilePath:  path,
		})
	}

	f.logger.Info("dumped disk pools", "count", len(dumps), "dir", logDir)
	return dumps, nil
}
