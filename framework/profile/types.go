package profile

// Profile describes one install-then-upgrade scenario
type Profile struct {
	// Name is the unique identifier for this profile
	Name string `yaml:"name"`

	// Description provides human-readable details about the profile
	Description string `yaml:"description"`

	// Install configures the starting chart installation
	Install InstallConfig `yaml:"install"`

	// Upgrade configures the upgrade under test
	Upgrade UpgradeConfig `yaml:"upgrade"`

	// Pools are the DiskPools backing the test volumes
	Pools []PoolConfig `yaml:"pools,omitempty"`

	// Fio configures the IO workload that runs across the upgrade
	Fio *FioConfig `yaml:"fio,omitempty"`
}

// InstallConfig defines where the starting chart version comes from
type InstallConfig struct {
	// Source is "hosted" (chart repository) or "local" (install
	// script in the source tree)
	Source string `yaml:"source"`

	// ReleaseName of the installed chart. Default "mayastor".
	ReleaseName string `yaml:"releaseName,omitempty"`

	// Version pins the chart version for hosted installs. Empty
	// installs the latest.
	Version string `yaml:"version,omitempty"`

	// SetValues are extra chart value overrides
	SetValues map[string]string `yaml:"setValues,omitempty"`
}

// IsLocal reports whether the install runs from the source tree
func (c *InstallConfig) IsLocal() bool {
	return c.Source == "local"
}

// UpgradeConfig defines the upgrade step
type UpgradeConfig struct {
	// TargetVersion is the chart version the upgrade should reach.
	// Empty means the upgrade completion is judged from the plugin
	// status alone.
	TargetVersion string `yaml:"targetVersion,omitempty"`

	// SkipDataPlaneRestart leaves io-engine pods on the old version
	SkipDataPlaneRestart bool `yaml:"skipDataPlaneRestart,omitempty"`

	// SkipSingleReplicaVolumeValidation allows upgrading with
	// unprotected volumes present
	SkipSingleReplicaVolumeValidation bool `yaml:"skipSingleReplicaVolumeValidation,omitempty"`

	// SkipReplicaRebuild proceeds while rebuilds are in progress
	SkipReplicaRebuild bool `yaml:"skipReplicaRebuild,omitempty"`

	// SkipCordonedNodeValidation proceeds with cordoned storage nodes
	SkipCordonedNodeValidation bool `yaml:"skipCordonedNodeValidation,omitempty"`
}

// PoolConfig defines a DiskPool to create before the workload starts
type PoolConfig struct {
	// Name of the DiskPool resource
	Name string `yaml:"name"`

	// Node the pool is placed on
	Node string `yaml:"node"`

	// Disks backing the pool
	Disks []string `yaml:"disks"`
}

// FioConfig defines the continuity workload
type FioConfig struct {
	// Replicas is the volume replica count
	Replicas int `yaml:"replicas,omitempty"`

	// VolumeSize is the PVC size, e.g. "1Gi"
	VolumeSize string `yaml:"volumeSize,omitempty"`

	// Runtime bounds the fio run, e.g. "15m"
	Runtime string `yaml:"runtime,omitempty"`
}
