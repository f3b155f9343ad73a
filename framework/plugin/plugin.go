// Package plugin wraps the kubectl-mayastor plugin, which drives the
// product's upgrade workflow: it validates the cluster, creates the
// upgrade job resources and reports upgrade progress.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/cli"
)

// DefaultBinary dispatches the plugin through kubectl.
const DefaultBinary = "kubectl"

// UpgradeOptions mirror the plugin's upgrade flags.
type UpgradeOptions struct {
	// DryRun prints the validation output without starting the upgrade.
	DryRun bool

	// SkipDataPlaneRestart leaves io-engine pods untouched.
	SkipDataPlaneRestart bool

	// SkipSingleReplicaVolumeValidation proceeds even when single-replica
	// volumes exist.
	SkipSingleReplicaVolumeValidation bool

	// SkipReplicaRebuild proceeds even when replica rebuilds are in
	// progress.
	SkipReplicaRebuild bool

	// SkipCordonedNodeValidation proceeds even when storage nodes are
	// cordoned.
	SkipCordonedNodeValidation bool
}

// UpgradeStatus is the parsed output of `kubectl mayastor get
// upgrade-status`.
type UpgradeStatus struct {
	From  string
	To    string
	State string
}

// Completed reports whether the upgrade has finished successfully.
func (s *UpgradeStatus) Completed() bool {
	state := strings.ToLower(s.State)
	return strings.Contains(state, "success") || strings.Contains(state, "completed")
}

// Client invokes the kubectl-mayastor plugin for a single namespace.
type Client struct {
	runner    cli.Runner
	logger    *slog.Logger
	bin       string
	namespace string
}

// Option configures a Client.
type Option func(*Client)

// WithRunner sets the command runner, replacing the default exec runner.
func WithRunner(r cli.Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBinary sets the kubectl binary used to dispatch the plugin.
func WithBinary(bin string) Option {
	return func(c *Client) {
		c.bin = bin
	}
}

// NewClient creates a plugin client scoped to the given namespace.
func NewClient(namespace string, opts ...Option) *Client {
	c := &Client{
		runner:    cli.ExecRunner{},
		logger:    slog.Default(),
		bin:       DefaultBinary,
		namespace: namespace,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version returns the plugin's reported version, which is also the chart
// version an upgrade moves the installation to.
func (c *Client) Version(ctx context.Context) (string, error) {
	cmd := c.command("--version")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("kubectl-mayastor plugin not usable: %w", err)
	}

	// Output has the form "kubectl-mayastor <version>".
	out := strings.TrimSpace(string(res.Stdout))
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", fmt.Errorf("cannot determine plugin version from %q", out)
	}
	return strings.TrimPrefix(fields[len(fields)-1], "v"), nil
}

// Upgrade issues the upgrade command and returns the captured output. The
// plugin creates the upgrade job resources and returns once the job has
// been started; completion is observed through GetUpgradeStatus.
func (c *Client) Upgrade(ctx context.Context, opts UpgradeOptions) (string, error) {
	args := []string{"upgrade", "-n", c.namespace}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	if opts.SkipDataPlaneRestart {
		args = append(args, "--skip-data-plane-restart")
	}
	if opts.SkipSingleReplicaVolumeValidation {
		args = append(args, "--skip-single-replica-volume-validation")
	}
	if opts.SkipReplicaRebuild {
		args = append(args, "--skip-replica-rebuild")
	}
	if opts.SkipCordonedNodeValidation {
		args = append(args, "--skip-cordoned-node-validation")
	}

	cmd := c.command(args...)
	c.logger.Info("issuing upgrade command", "cmd", cmd.String())
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("upgrade command failed: %w", err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// GetUpgradeStatus queries the plugin for the current upgrade progress.
func (c *Client) GetUpgradeStatus(ctx context.Context) (*UpgradeStatus, error) {
	cmd := c.command("get", "upgrade-status", "-n", c.namespace)
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("upgrade status query failed: %w", err)
	}
	return parseUpgradeStatus(string(res.Stdout)), nil
}

// DeleteUpgradeResources removes the upgrade job and its RBAC objects once
// the job has completed.
func (c *Client) DeleteUpgradeResources(ctx context.Context) error {
	cmd := c.command("delete", "upgrade", "-n", c.namespace)
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to delete upgrade resources: %w", err)
	}
	return nil
}

func (c *Client) command(args ...string) cli.Command {
	return cli.Command{Name: c.bin, Args: append([]string{"mayastor"}, args...)}
}

// parseUpgradeStatus extracts the "Upgrade From/To/Status" lines the plugin
// prints. Unknown lines are ignored.
func parseUpgradeStatus(out string) *UpgradeStatus {
	status := &UpgradeStatus{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Upgrade From:"):
			status.From = strings.TrimSpace(strings.TrimPrefix(line, "Upgrade From:"))
		case strings.HasPrefix(line, "Upgrade To:"):
			status.To = strings.TrimSpace(strings.TrimPrefix(line, "Upgrade To:"))
		case strings.HasPrefix(line, "Upgrade Status:"):
			status.State = strings.TrimSpace(strings.TrimPrefix(line, "Upgrade Status:"))
		}
	}
	return status
}
