// Package framework drives mayastor install and upgrade testing on
// Kubernetes clusters.
//
// It wraps the helm CLI and the kubectl-mayastor plugin behind typed
// clients, provisions DiskPools and fio workloads, and verifies that
// an upgrade brings every component to the target version without
// interrupting IO.
//
// # Quick Start
//
// Create a framework instance bound to the mayastor namespace and run
// an install/upgrade cycle:
//
//	ctx := context.Background()
//	fw, err := framework.New(ctx, "mayastor")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Cleanup("mayastor")
//
//	// Check prerequisites
//	prereqs, _ := fw.CheckPrerequisites()
//	if !prereqs.AllMet {
//	    log.Fatal("Prerequisites not met: ", prereqs.String())
//	}
//
//	// Install the source version, then upgrade to the latest
//	err = fw.InstallMayastor(helm.InstallRequest{
//	    ReleaseName: "mayastor",
//	    Source:      helm.HostedSource(),
//	    Version:     "2.6.1",
//	})
//	err = fw.UpgradeMayastor("mayastor", "2.7.0", plugin.UpgradeOptions{})
//
// # Context Support
//
// The framework supports context-based cancellation for all operations:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Minute)
//	defer cancel()
//
//	fw, err := framework.New(ctx, "mayastor")
//
// # Package Structure
//
// The framework is organized into subpackages:
//
//   - cli: command execution with a fake for tests
//   - config: centralized configuration with environment variable support
//   - concurrent: concurrent execution helpers for parallel operations
//   - fio: fio workload jobs against mayastor volumes
//   - gvr: centralized GroupVersionResource definitions
//   - helm: helm release and repository management
//   - plugin: kubectl-mayastor upgrade plugin wrapper
//   - pool: DiskPool provisioning and status
//   - profile: declarative upgrade scenario profiles
//   - repo: source tree discovery for local chart installs
//   - retry: retry logic with exponential backoff
//   - version: semantic version comparisons
//   - wait: polling-based readiness checks
package framework
