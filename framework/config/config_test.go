package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.PodReadyTimeout != DefaultPodReadyTimeout {
		t.Errorf("expected PodReadyTimeout %v, got %v", DefaultPodReadyTimeout, cfg.PodReadyTimeout)
	}
	if cfg.UpgradeTimeout != DefaultUpgradeTimeout {
		t.Errorf("expected UpgradeTimeout %v, got %v", DefaultUpgradeTimeout, cfg.UpgradeTimeout)
	}
	if cfg.JobTimeout != DefaultJobTimeout {
		t.Errorf("expected JobTimeout %v, got %v", DefaultJobTimeout, cfg.JobTimeout)
	}
	if cfg.HelmBinary != DefaultHelmBinary {
		t.Errorf("expected HelmBinary %q, got %q", DefaultHelmBinary, cfg.HelmBinary)
	}
	if cfg.ChartRepoURL != DefaultChartRepoURL {
		t.Errorf("expected ChartRepoURL %q, got %q", DefaultChartRepoURL, cfg.ChartRepoURL)
	}
	if cfg.StorageDriver != "" {
		t.Errorf("expected empty StorageDriver, got %q", cfg.StorageDriver)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	// Clear any existing env vars
	os.Unsetenv(EnvPodReadyTimeout)
	os.Unsetenv(EnvUpgradeTimeout)
	os.Unsetenv(EnvJobTimeout)
	os.Unsetenv(EnvHelmBinary)
	os.Unsetenv(EnvChartRepoURL)
	os.Unsetenv(EnvStorageDriver)

	cfg := FromEnv()

	if cfg.PodReadyTimeout != DefaultPodReadyTimeout {
		t.Errorf("expected PodReadyTimeout %v, got %v", DefaultPodReadyTimeout, cfg.PodReadyTimeout)
	}
	if cfg.ChartRepoURL != DefaultChartRepoURL {
		t.Errorf("expected ChartRepoURL %q, got %q", DefaultChartRepoURL, cfg.ChartRepoURL)
	}
}

func TestFromEnv_CustomValues(t *testing.T) {
	// Set custom env vars
	os.Setenv(EnvPodReadyTimeout, "3m")
	os.Setenv(EnvUpgradeTimeout, "1h")
	os.Setenv(EnvJobTimeout, "10m")
	os.Setenv(EnvHelmBinary, "/opt/helm")
	os.Setenv(EnvChartRepoURL, "https://charts.example.com/mayastor")
	os.Setenv(EnvStorageDriver, "secret")
	defer func() {
		os.Unsetenv(EnvPodReadyTimeout)
		os.Unsetenv(EnvUpgradeTimeout)
		os.Unsetenv(EnvJobTimeout)
		os.Unsetenv(EnvHelmBinary)
		os.Unsetenv(EnvChartRepoURL)
		os.Unsetenv(EnvStorageDriver)
	}()

	cfg := FromEnv()

	if cfg.PodReadyTimeout != 3*time.Minute {
		t.Errorf("expected PodReadyTimeout 3m, got %v", cfg.PodReadyTimeout)
	}
	if cfg.UpgradeTimeout != time.Hour {
		t.Errorf("expected UpgradeTimeout 1h, got %v", cfg.UpgradeTimeout)
	}
	if cfg.JobTimeout != 10*time.Minute {
		t.Errorf("expected JobTimeout 10m, got %v", cfg.JobTimeout)
	}
	if cfg.HelmBinary != "/opt/helm" {
		t.Errorf("expected HelmBinary /opt/helm, got %q", cfg.HelmBinary)
	}
	if cfg.ChartRepoURL != "https://charts.example.com/mayastor" {
		t.Errorf("expected custom ChartRepoURL, got %q", cfg.ChartRepoURL)
	}
	if cfg.StorageDriver != "secret" {
		t.Errorf("expected StorageDriver secret, got %q", cfg.StorageDriver)
	}
}

func TestFromEnv_InvalidDurationIgnored(t *testing.T) {
	os.Setenv(EnvUpgradeTimeout, "soon")
	defer os.Unsetenv(EnvUpgradeTimeout)

	cfg := FromEnv()

	if cfg.UpgradeTimeout != DefaultUpgradeTimeout {
		t.Errorf("expected default UpgradeTimeout, got %v", cfg.UpgradeTimeout)
	}
}

func TestWithSetters_CopyOnWrite(t *testing.T) {
	base := Default()
	modified := base.WithUpgradeTimeout(time.Hour).WithStorageDriver("configmap")

	if base.UpgradeTimeout != DefaultUpgradeTimeout {
		t.Error("expected base config to be unchanged")
	}
	if modified.UpgradeTimeout != time.Hour {
		t.Errorf("expected UpgradeTimeout 1h, got %v", modified.UpgradeTimeout)
	}
	if modified.StorageDriver != "configmap" {
		t.Errorf("expected StorageDriver configmap, got %q", modified.StorageDriver)
	}
}
