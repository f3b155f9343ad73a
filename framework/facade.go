package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/fio"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/helm"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/plugin"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/pool"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/retry"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/version"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/wait"

	"k8s.io/apimachinery/pkg/labels"
)

// EnsureChartRepository registers the mayastor chart repository if it
// is not already known to helm. Returns the repository name to install
// from, which may differ from the configured one when a repository
// with the same URL already exists.
func (f *Framework) EnsureChartRepository() (string, error) {
	return f.helm.EnsureRepository(f.ctx, f.config.ChartRepoName, f.config.ChartRepoURL)
}

// ListChartRepositories returns the chart repositories known to helm
func (f *Framework) ListChartRepositories() ([]helm.Repository, error) {
	return f.helm.ListRepositories(f.ctx)
}

// ListDeployedReleases returns the names of deployed releases in the
// test namespace
func (f *Framework) ListDeployedReleases() ([]string, error) {
	return f.helm.ListDeployed(f.ctx)
}

// IsReleaseDeployed reports whether the named release is deployed in
// the test namespace. Lookup failures report false.
func (f *Framework) IsReleaseDeployed(name string) bool {
	return f.helm.IsDeployed(f.ctx, name)
}

// GetRelease returns release details for the named release
func (f *Framework) GetRelease(name string) (*helm.Release, error) {
	return f.helm.GetRelease(f.ctx, name)
}

// InstallMayastor installs the mayastor chart and waits for every
// component to come up.
func (f *Framework) InstallMayastor(req helm.InstallRequest) error {
	ctx, cancel := context.WithTimeout(f.ctx, f.config.InstallTimeout)
	defer cancel()

	release, err := f.helm.Install(ctx, req)
	if err != nil {
		return err
	}

	f.logger.Info("chart installed, waiting for pods", "release", release)
	return wait.ForMayastorReady(f, f.config.PodReadyTimeout)
}

// UninstallMayastor removes the release from the test namespace
func (f *Framework) UninstallMayastor(name string) error {
	return f.helm.Uninstall(f.ctx, name)
}

// UpgradeMayastor starts an upgrade through the kubectl-mayastor
// plugin and waits until the release reports the target chart version
// and all components are back up. An empty target skips the version
// comparison and waits for the upgrade status to report completion.
func (f *Framework) UpgradeMayastor(releaseName, targetVersion string, opts plugin.UpgradeOptions) error {
	out, err := f.plugin.Upgrade(f.ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to start upgrade: %w", err)
	}
	f.logger.Info("upgrade started", "output", out)

	if opts.DryRun {
		return nil
	}

	if err := f.WaitForUpgrade(releaseName, targetVersion); err != nil {
		return err
	}

	return wait.ForMayastorReady(f, f.config.PodReadyTimeout)
}

// WaitForUpgrade polls the release until its chart version reaches
// targetVersion, bounded by the configured upgrade timeout.
func (f *Framework) WaitForUpgrade(releaseName, targetVersion string) error {
	ctx, cancel := context.WithTimeout(f.ctx, f.config.UpgradeTimeout)
	defer cancel()

	interval := f.config.UpgradePollInterval
	attempts := int(f.config.UpgradeTimeout/interval) + 1

	err := retry.Do(ctx, func(ctx context.Context) error {
		release, err := f.helm.GetRelease(ctx, releaseName)
		if err != nil {
			return err
		}

		current := release.ChartVersion()
		if targetVersion == "" {
			status, err := f.plugin.GetUpgradeStatus(ctx)
			if err != nil {
				return err
			}
			if !status.Completed() {
				return fmt.Errorf("upgrade is %q", status.State)
			}
			return nil
		}

		reached, err := version.AtLeast(current, targetVersion)
		if err != nil {
			return retry.Permanent(fmt.Errorf("cannot compare versions %q and %q: %w", current, targetVersion, err))
		}
		if !reached {
			return fmt.Errorf("release at %s, want %s", current, targetVersion)
		}
		return nil
	},
		retry.WithMaxAttempts(attempts),
		retry.WithInitialDelay(interval),
		retry.WithMultiplier(1.0),
		retry.WithJitter(0),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			f.logger.Debug("upgrade not complete", "attempt", attempt, "reason", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpgradeTimeout, err)
	}

	f.logger.Info("upgrade complete", "release", releaseName, "version", targetVersion)
	return nil
}

// SetupDiskPool creates a DiskPool and waits for it to come online
func (f *Framework) SetupDiskPool(spec pool.Spec) error {
	if err := pool.Create(f, spec); err != nil {
		return err
	}
	if err := pool.WaitOnline(f, spec.Name, f.config.PoolOnlineTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrPoolNotOnline, err)
	}
	return nil
}

// ListDiskPools returns the DiskPools in the test namespace
func (f *Framework) ListDiskPools() ([]string, error) {
	return pool.List(f)
}

// RunFioTest provisions a mayastor volume and runs a fio verify
// workload against it
func (f *Framework) RunFioTest(config *fio.Config) (*fio.Result, error) {
	return fio.Run(f, config)
}

// WaitForPodsReady waits for pods matching the selector to be ready
func (f *Framework) WaitForPodsReady(selector labels.Selector, timeout time.Duration, minReady int) error {
	return wait.ForPodsReady(f, selector, timeout, minReady)
}

// WaitForDeploymentReady waits for a deployment to be ready
func (f *Framework) WaitForDeploymentReady(name string, timeout time.Duration) error {
	return wait.ForDeploymentReady(f, name, timeout)
}

// WaitForDaemonSetReady waits for a daemonset to be ready
func (f *Framework) WaitForDaemonSetReady(name string, timeout time.Duration) error {
	return wait.ForDaemonSetReady(f, name, timeout)
}

// WaitForPodsTerminated waits for pods matching the selector to be fully terminated
func (f *Framework) WaitForPodsTerminated(selector labels.Selector, timeout time.Duration) error {
	return wait.ForPodsTerminated(f, selector, timeout)
}

// WaitForMayastorReady waits for all mayastor components to be ready
func (f *Framework) WaitForMayastorReady(timeout time.Duration) error {
	return wait.ForMayastorReady(f, timeout)
}
