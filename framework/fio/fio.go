package fio

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
)

// Clients provides access to Kubernetes clients needed for fio runs
type Clients interface {
	Client() kubernetes.Interface
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
}

const (
	// DefaultImage is the fio container image
	DefaultImage = "nixery.dev/shell/fio:latest"

	// DefaultStorageClass is the mayastor storage class created for
	// the workload volume
	DefaultStorageClass = "mayastor-upgrade-test"

	// CSIProvisioner is the mayastor CSI driver name
	CSIProvisioner = "io.openebs.csi-mayastor"

	// DefaultVolumeSize is the PVC size for the fio workload
	DefaultVolumeSize = "1Gi"

	appLabel = "mayastor-upgrade-fio"
)

// Config holds fio workload options
type Config struct {
	// JobName names the Kubernetes Job. Default "fio".
	JobName string

	// Image overrides the fio container image
	Image string

	// StorageClass for the workload PVC. Default DefaultStorageClass,
	// created with the given replica count if missing.
	StorageClass string

	// Replicas is the volume replica count for the created storage
	// class. Default 1.
	Replicas int

	// VolumeSize is the PVC size, e.g. "1Gi"
	VolumeSize string

	// Runtime bounds the fio run. Zero means run until the volume
	// is full.
	Runtime time.Duration

	// Timeout bounds the wait for Job completion
	Timeout time.Duration
}

// Result reports the outcome of a fio run
type Result struct {
	Success  bool
	Duration time.Duration
	Output   string
}

func (c *Config) withDefaults() Config {
	out := Config{
		JobName:      "fio",
		Image:        DefaultImage,
		StorageClass: DefaultStorageClass,
		Replicas:     1,
		VolumeSize:   DefaultVolumeSize,
		Timeout:      20 * time.Minute,
	}
	if c == nil {
		return out
	}
	if c.JobName != "" {
		out.JobName = c.JobName
	}
	if c.Image != "" {
		out.Image = c.Image
	}
	if c.StorageClass != "" {
		out.StorageClass = c.StorageClass
	}
	if c.Replicas > 0 {
		out.Replicas = c.Replicas
	}
	if c.VolumeSize != "" {
		out.VolumeSize = c.VolumeSize
	}
	if c.Runtime > 0 {
		out.Runtime = c.Runtime
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	return out
}

// Run provisions a mayastor volume and runs a fio verify workload
// against it as a Kubernetes Job, then waits for the Job to finish.
// A failed run reports Success false together with the pod logs.
func Run(c Clients, config *Config) (*Result, error) {
	start := time.Now()
	cfg := config.withDefaults()

	if err := EnsureStorageClass(c, cfg.StorageClass, cfg.Replicas); err != nil {
		return nil, err
	}
	if err := createVolumeClaim(c, cfg); err != nil {
		return nil, err
	}
	if err := createJob(c, cfg); err != nil {
		return nil, err
	}

	c.Logger().Info("fio job started",
		"job", cfg.JobName,
		"storageClass", cfg.StorageClass,
		"timeout", cfg.Timeout)

	success, err := waitForJob(c, cfg.JobName, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("error waiting for fio job: %w", err)
	}

	logs, err := jobLogs(c, cfg.JobName)
	if err != nil {
		c.Logger().Warn("failed to collect fio logs", "error", err)
		logs = "(logs unavailable)"
	}

	result := &Result{
		Success:  success,
		Duration: time.Since(start),
		Output:   logs,
	}

	if !success {
		return result, fmt.Errorf("fio workload failed")
	}

	c.Logger().Info("fio job completed", "duration", result.Duration.Round(time.Second))
	return result, nil
}

// EnsureStorageClass creates the mayastor storage class if it does not
// exist yet. Existing classes are left untouched.
func EnsureStorageClass(c Clients, name string, replicas int) error {
	sc := &storagev1.StorageClass{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				"app": appLabel,
			},
		},
		Provisioner: CSIProvisioner,
		Parameters: map[string]string{
			"repl":     fmt.Sprintf("%d", replicas),
			"protocol": "nvmf",
		},
	}

	_, err := c.Client().StorageV1().StorageClasses().Create(c.Context(), sc, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create storage class %s: %w", name, err)
	}
	return nil
}

func createVolumeClaim(c Clients, cfg Config) error {
	scName := cfg.StorageClass
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.JobName,
			Namespace: c.Namespace(),
			Labels: map[string]string{
				"app": appLabel,
			},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &scName,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(cfg.VolumeSize),
				},
			},
		},
	}

	_, err := c.Client().CoreV1().PersistentVolumeClaims(c.Namespace()).Create(c.Context(), pvc, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create fio volume claim: %w", err)
	}
	return nil
}

func createJob(c Clients, cfg Config) error {
	client := c.Client()
	ctx := c.Context()

	// Replace a leftover job from a previous run
	propagation := metav1.DeletePropagationBackground
	_ = client.BatchV1().Jobs(c.Namespace()).Delete(ctx, cfg.JobName, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	time.Sleep(2 * time.Second)

	backoffLimit := int32(0)
	ttlSeconds := int32(3600)

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.JobName,
			Namespace: c.Namespace(),
			Labels: map[string]string{
				"app": appLabel,
			},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            &backoffLimit,
			TTLSecondsAfterFinished: &ttlSeconds,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{
						"app": appLabel,
					},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:  "fio",
							Image: cfg.Image,
							Args:  Args(cfg.Runtime),
							VolumeMounts: []corev1.VolumeMount{
								{
									Name:      "workload",
									MountPath: "/volume",
								},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "workload",
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: cfg.JobName,
								},
							},
						},
					},
				},
			},
		},
	}

	_, err := client.BatchV1().Jobs(c.Namespace()).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to create fio job: %w", err)
	}
	return nil
}

// Args builds the fio command line for a verified random write
// workload. A positive runtime makes the run time based so it spans
// the whole upgrade window.
func Args(runtime time.Duration) []string {
	args := []string{
		"fio",
		"--name=benchtest",
		"--filename=/volume/fio.data",
		"--size=800m",
		"--direct=1",
		"--rw=randrw",
		"--ioengine=libaio",
		"--bs=4k",
		"--iodepth=16",
		"--verify=crc32",
		"--numjobs=1",
	}
	if runtime > 0 {
		args = append(args,
			"--time_based",
			fmt.Sprintf("--runtime=%d", int(runtime.Seconds())),
		)
	}
	return args
}

func waitForJob(c Clients, jobName string, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	var success bool
	err := wait.PollUntilContextCancel(ctx, 5*time.Second, true, func(ctx context.Context) (bool, error) {
		job, err := c.Client().BatchV1().Jobs(c.Namespace()).Get(ctx, jobName, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		if job.Status.Succeeded > 0 {
			success = true
			return true, nil
		}
		if job.Status.Failed > 0 {
			success = false
			return true, nil
		}
		return false, nil
	})

	return success, err
}

func jobLogs(c Clients, jobName string) (string, error) {
	ctx := c.Context()
	client := c.Client()

	pods, err := client.CoreV1().Pods(c.Namespace()).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("job-name=%s", jobName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list pods: %w", err)
	}
	if len(pods.Items) == 0 {
		return "", fmt.Errorf("no pods found for job %s", jobName)
	}

	req := client.CoreV1().Pods(c.Namespace()).GetLogs(pods.Items[0].Name, &corev1.PodLogOptions{})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream pod logs: %w", err)
	}
	defer stream.Close()

	var logs strings.Builder
	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		logs.WriteString(scanner.Text())
		logs.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return logs.String(), fmt.Errorf("error reading logs: %w", err)
	}
	return logs.String(), nil
}

// VerifyErrors scans fio output for verification or IO errors. fio
// reports per-job status lines such as "err= 0" on success.
func VerifyErrors(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "err=") && !strings.Contains(line, "err= 0") {
			return true
		}
		if strings.Contains(line, "verify: bad") {
			return true
		}
	}
	return false
}
