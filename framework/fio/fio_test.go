package fio

import (
	"strings"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg := (*Config)(nil).withDefaults()
	if cfg.JobName != "fio" {
		t.Errorf("JobName = %q", cfg.JobName)
	}
	if cfg.StorageClass != DefaultStorageClass {
		t.Errorf("StorageClass = %q", cfg.StorageClass)
	}
	if cfg.Replicas != 1 {
		t.Errorf("Replicas = %d", cfg.Replicas)
	}
	if cfg.VolumeSize != DefaultVolumeSize {
		t.Errorf("VolumeSize = %q", cfg.VolumeSize)
	}
	if cfg.Timeout != 20*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestConfigOverrides(t *testing.T) {
	in := &Config{
		JobName:      "fio-upgrade",
		StorageClass: "mayastor-3",
		Replicas:     3,
		Runtime:      10 * time.Minute,
	}
	cfg := in.withDefaults()
	if cfg.JobName != "fio-upgrade" {
		t.Errorf("JobName = %q", cfg.JobName)
	}
	if cfg.StorageClass != "mayastor-3" {
		t.Errorf("StorageClass = %q", cfg.StorageClass)
	}
	if cfg.Replicas != 3 {
		t.Errorf("Replicas = %d", cfg.Replicas)
	}
	if cfg.Runtime != 10*time.Minute {
		t.Errorf("Runtime = %v", cfg.Runtime)
	}
	if cfg.Image != DefaultImage {
		t.Errorf("Image = %q, want default", cfg.Image)
	}
}

func TestArgsBounded(t *testing.T) {
	args := Args(15 * time.Minute)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--time_based") {
		t.Error("expected time based run")
	}
	if !strings.Contains(joined, "--runtime=900") {
		t.Errorf("expected runtime of 900s, got %q", joined)
	}
	if !strings.Contains(joined, "--verify=crc32") {
		t.Error("expected data verification enabled")
	}
}

func TestArgsUnbounded(t *testing.T) {
	joined := strings.Join(Args(0), " ")
	if strings.Contains(joined, "--time_based") {
		t.Error("unbounded run must not be time based")
	}
}

func TestVerifyErrors(t *testing.T) {
	clean := "benchtest: (groupid=0, jobs=1): err= 0: pid=20\n  write: IOPS=5000"
	if VerifyErrors(clean) {
		t.Error("clean output flagged as failed")
	}

	ioErr := "benchtest: (groupid=0, jobs=1): err= 5 (file:io_u.c:1787)"
	if !VerifyErrors(ioErr) {
		t.Error("IO error not detected")
	}

	verifyErr := "verify: bad magic header 0, wanted acca at file /volume/fio.data"
	if !VerifyErrors(verifyErr) {
		t.Error("verification error not detected")
	}
}
