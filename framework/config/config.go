package config

import (
	"os"
	"time"
)

// Default timeouts used throughout the harness
const (
	// DefaultNamespaceTimeout is the default timeout for namespace operations
	DefaultNamespaceTimeout = 120 * time.Second

	// DefaultNamespacePollInterval is the default interval for polling namespace status
	DefaultNamespacePollInterval = 2 * time.Second

	// DefaultPodReadyTimeout is the default timeout for waiting for pods to be ready
	DefaultPodReadyTimeout = 300 * time.Second

	// DefaultPodReadyPollInterval is the default interval for polling pod readiness
	DefaultPodReadyPollInterval = 5 * time.Second

	// DefaultInstallTimeout is the default timeout for a blocking chart install
	DefaultInstallTimeout = 15 * time.Minute

	// DefaultUpgradeTimeout is the default timeout for the whole upgrade
	// workflow, including node-by-node io-engine restarts
	DefaultUpgradeTimeout = 45 * time.Minute

	// DefaultUpgradePollInterval is the default interval for polling upgrade progress
	DefaultUpgradePollInterval = 15 * time.Second

	// DefaultJobTimeout is the default timeout for fio job completion
	DefaultJobTimeout = 20 * time.Minute

	// DefaultJobPollInterval is the default interval for polling job status
	DefaultJobPollInterval = 5 * time.Second

	// DefaultPoolOnlineTimeout is the default timeout for DiskPools to come online
	DefaultPoolOnlineTimeout = 180 * time.Second

	// DefaultCRDeletionTimeout is the default timeout for tracked CRs to disappear
	DefaultCRDeletionTimeout = 120 * time.Second

	// DefaultCRDeletionPollInterval is the default interval for polling CR deletion
	DefaultCRDeletionPollInterval = 5 * time.Second
)

// Defaults for the external tools and the hosted chart
const (
	DefaultHelmBinary    = "helm"
	DefaultKubectlBinary = "kubectl"
	DefaultChartRepoName = "mayastor"
	DefaultChartRepoURL  = "https://openebs.github.io/mayastor-extensions"
	DefaultChartName     = "mayastor"
)

// Environment variable names for configuration overrides
const (
	EnvPodReadyTimeout = "MAYASTOR_UPGRADE_POD_READY_TIMEOUT"
	EnvInstallTimeout  = "MAYASTOR_UPGRADE_INSTALL_TIMEOUT"
	EnvUpgradeTimeout  = "MAYASTOR_UPGRADE_TIMEOUT"
	EnvJobTimeout      = "MAYASTOR_UPGRADE_JOB_TIMEOUT"
	EnvHelmBinary      = "MAYASTOR_UPGRADE_HELM_BIN"
	EnvKubectlBinary   = "MAYASTOR_UPGRADE_KUBECTL_BIN"
	EnvChartRepoURL    = "MAYASTOR_UPGRADE_CHART_REPO_URL"
	EnvStorageDriver   = "MAYASTOR_UPGRADE_HELM_DRIVER"
)

// Config holds harness configuration with optional overrides
type Config struct {
	// Timeouts
	NamespaceTimeout       time.Duration
	NamespacePollInterval  time.Duration
	PodReadyTimeout        time.Duration
	PodReadyPollInterval   time.Duration
	InstallTimeout         time.Duration
	UpgradeTimeout         time.Duration
	UpgradePollInterval    time.Duration
	JobTimeout             time.Duration
	JobPollInterval        time.Duration
	PoolOnlineTimeout      time.Duration
	CRDeletionTimeout      time.Duration
	CRDeletionPollInterval time.Duration

	// External tools
	HelmBinary    string
	KubectlBinary string

	// Chart source
	ChartRepoName string
	ChartRepoURL  string
	ChartName     string

	// StorageDriver selects where helm persists release metadata
	// (HELM_DRIVER). Empty means the tool default.
	StorageDriver string
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		NamespaceTimeout:       DefaultNamespaceTimeout,
		NamespacePollInterval:  DefaultNamespacePollInterval,
		PodReadyTimeout:        DefaultPodReadyTimeout,
		PodReadyPollInterval:   DefaultPodReadyPollInterval,
		InstallTimeout:         DefaultInstallTimeout,
		UpgradeTimeout:         DefaultUpgradeTimeout,
		UpgradePollInterval:    DefaultUpgradePollInterval,
		JobTimeout:             DefaultJobTimeout,
		JobPollInterval:        DefaultJobPollInterval,
		PoolOnlineTimeout:      DefaultPoolOnlineTimeout,
		CRDeletionTimeout:      DefaultCRDeletionTimeout,
		CRDeletionPollInterval: DefaultCRDeletionPollInterval,
		HelmBinary:             DefaultHelmBinary,
		KubectlBinary:          DefaultKubectlBinary,
		ChartRepoName:          DefaultChartRepoName,
		ChartRepoURL:           DefaultChartRepoURL,
		ChartName:              DefaultChartName,
	}
}

// FromEnv returns a Config with values from environment variables, falling back to defaults
func FromEnv() *Config {
	cfg := Default()

	if v := os.Getenv(EnvPodReadyTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PodReadyTimeout = d
		}
	}

	if v := os.Getenv(EnvInstallTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.InstallTimeout = d
		}
	}

	if v := os.Getenv(EnvUpgradeTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.UpgradeTimeout = d
		}
	}

	if v := os.Getenv(EnvJobTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JobTimeout = d
		}
	}

	if v := os.Getenv(EnvHelmBinary); v != "" {
		cfg.HelmBinary = v
	}

	if v := os.Getenv(EnvKubectlBinary); v != "" {
		cfg.KubectlBinary = v
	}

	if v := os.Getenv(EnvChartRepoURL); v != "" {
		cfg.ChartRepoURL = v
	}

	if v := os.Getenv(EnvStorageDriver); v != "" {
		cfg.StorageDriver = v
	}

	return cfg
}

// WithPodReadyTimeout returns a copy with updated pod ready timeout
func (c *Config) WithPodReadyTimeout(d time.Duration) *Config {
	cp := *c
	cp.PodReadyTimeout = d
	return &cp
}

// WithUpgradeTimeout returns a copy with updated upgrade timeout
func (c *Config) WithUpgradeTimeout(d time.Duration) *Config {
	cp := *c
	cp.UpgradeTimeout = d
	return &cp
}

// WithJobTimeout returns a copy with updated fio job timeout
func (c *Config) WithJobTimeout(d time.Duration) *Config {
	cp := *c
	cp.JobTimeout = d
	return &cp
}

// WithChartRepo returns a copy with updated chart repository name and URL
func (c *Config) WithChartRepo(name, url string) *Config {
	cp := *c
	cp.ChartRepoName = name
	cp.ChartRepoURL = url
	return &cp
}

// WithStorageDriver returns a copy with updated helm storage driver
func (c *Config) WithStorageDriver(driver string) *Config {
	cp := *c
	cp.StorageDriver = driver
	return &cp
}
