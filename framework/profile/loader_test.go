package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validProfile = `
name: hosted-2.6-to-latest
description: install 2.6.1 from the chart repo, upgrade to latest
install:
  source: hosted
  version: 2.6.1
  setValues:
    eventing.enabled: "false"
upgrade:
  targetVersion: 2.7.0
  skipSingleReplicaVolumeValidation: true
pools:
  - name: pool-on-worker-0
    node: worker-0
    disks: ["/dev/sdb"]
fio:
  replicas: 1
  volumeSize: 1Gi
  runtime: 15m
`

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "hosted.yaml", validProfile)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "hosted-2.6-to-latest" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Install.IsLocal() {
		t.Error("hosted profile reported as local")
	}
	if p.Install.Version != "2.6.1" {
		t.Errorf("Version = %q", p.Install.Version)
	}
	if p.Install.SetValues["eventing.enabled"] != "false" {
		t.Errorf("SetValues = %v", p.Install.SetValues)
	}
	if p.Upgrade.TargetVersion != "2.7.0" {
		t.Errorf("TargetVersion = %q", p.Upgrade.TargetVersion)
	}
	if !p.Upgrade.SkipSingleReplicaVolumeValidation {
		t.Error("SkipSingleReplicaVolumeValidation not set")
	}
	if len(p.Pools) != 1 || p.Pools[0].Node != "worker-0" {
		t.Errorf("Pools = %+v", p.Pools)
	}
	if got := p.FioRuntime(); got != 15*time.Minute {
		t.Errorf("FioRuntime = %v", got)
	}
	if got := p.ReleaseName(); got != "mayastor" {
		t.Errorf("ReleaseName = %q", got)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "broken.yaml", "name: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"valid", func(p *Profile) {}, false},
		{"missing name", func(p *Profile) { p.Name = "" }, true},
		{"missing source", func(p *Profile) { p.Install.Source = "" }, true},
		{"bad source", func(p *Profile) { p.Install.Source = "git" }, true},
		{"local with version", func(p *Profile) {
			p.Install.Source = "local"
			p.Install.Version = "2.6.1"
		}, true},
		{"pool without node", func(p *Profile) { p.Pools[0].Node = "" }, true},
		{"pool without disks", func(p *Profile) { p.Pools[0].Disks = nil }, true},
		{"fio without pools", func(p *Profile) { p.Pools = nil }, true},
		{"fio replicas exceed pools", func(p *Profile) { p.Fio.Replicas = 3 }, true},
		{"bad fio runtime", func(p *Profile) { p.Fio.Runtime = "fast" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{
				Name:    "base",
				Install: InstallConfig{Source: "hosted"},
				Pools: []PoolConfig{
					{Name: "pool-1", Node: "worker-0", Disks: []string{"/dev/sdb"}},
				},
				Fio: &FioConfig{Replicas: 1, Runtime: "10m"},
			}
			tt.mutate(p)

			err := Validate(p)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadAllAndNames(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.yaml", validProfile)
	second := `
name: local-to-latest
install:
  source: local
`
	writeProfile(t, dir, "b.yml", second)
	writeProfile(t, dir, "notes.txt", "ignore me")

	profiles, err := LoadAll(dir)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	names, err := ListProfileNames(dir)
	if err != nil {
		t.Fatalf("ListProfileNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v", names)
	}
}

func TestLoadByNames(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "hosted.yaml", validProfile)

	profiles, err := LoadByNames(dir, []string{"hosted", " "})
	if err != nil {
		t.Fatalf("LoadByNames failed: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "hosted-2.6-to-latest" {
		t.Errorf("profiles = %+v", profiles)
	}

	if _, err := LoadByNames(dir, []string{"missing"}); err == nil {
		t.Error("expected error for missing profile")
	}
}
