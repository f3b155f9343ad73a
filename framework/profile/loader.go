package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// Load reads a profile from a YAML file
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := Validate(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return &profile, nil
}

// LoadAll reads all YAML profiles from a directory
func LoadAll(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		profile, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LoadByNames loads specific profiles by name from a directory
func LoadByNames(dir string, names []string) ([]*Profile, error) {
	var profiles []*Profile
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		// Try with .yaml extension first, then .yml
		path := filepath.Join(dir, name+".yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = filepath.Join(dir, name+".yml")
		}

		profile, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile %q: %w", name, err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// Validate checks that a profile has all required fields
func Validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	switch p.Install.Source {
	case "hosted", "local":
	case "":
		return fmt.Errorf("install.source is required (hosted or local)")
	default:
		return fmt.Errorf("install.source must be 'hosted' or 'local', got %q", p.Install.Source)
	}

	if p.Install.IsLocal() && p.Install.Version != "" {
		return fmt.Errorf("install.version only applies to hosted installs")
	}

	for i, pool := range p.Pools {
		if pool.Name == "" {
			return fmt.Errorf("pools[%d].name is required", i)
		}
		if pool.Node == "" {
			return fmt.Errorf("pools[%d].node is required", i)
		}
		if len(pool.Disks) == 0 {
			return fmt.Errorf("pools[%d].disks must list at least one disk", i)
		}
	}

	if p.Fio != nil {
		if len(p.Pools) == 0 {
			return fmt.Errorf("fio requires at least one pool")
		}
		if p.Fio.Replicas < 0 {
			return fmt.Errorf("fio.replicas must not be negative")
		}
		if p.Fio.Replicas > len(p.Pools) {
			return fmt.Errorf("fio.replicas (%d) exceeds pool count (%d)", p.Fio.Replicas, len(p.Pools))
		}
		if p.Fio.Runtime != "" {
			if _, err := time.ParseDuration(p.Fio.Runtime); err != nil {
				return fmt.Errorf("fio.runtime is not a duration: %w", err)
			}
		}
	}

	return nil
}

// FioRuntime parses the configured fio runtime. Zero when unset.
func (p *Profile) FioRuntime() time.Duration {
	if p.Fio == nil || p.Fio.Runtime == "" {
		return 0
	}
	d, err := time.ParseDuration(p.Fio.Runtime)
	if err != nil {
		return 0
	}
	return d
}

// ReleaseName returns the configured release name or the default
func (p *Profile) ReleaseName() string {
	if p.Install.ReleaseName != "" {
		return p.Install.ReleaseName
	}
	return "mayastor"
}

// ListProfileNames returns the names of all profiles in a directory
func ListProfileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		} else if strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(name, ".yml"))
		}
	}

	return names, nil
}
