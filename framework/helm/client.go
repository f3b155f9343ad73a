package helm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/cli"
)

// Defaults for the mayastor chart and its hosted repository.
const (
	DefaultBinary    = "helm"
	DefaultRepoName  = "mayastor"
	DefaultRepoURL   = "https://openebs.github.io/mayastor-extensions"
	DefaultChartName = "mayastor"
)

// defaultInstallOverrides disables the call-home report and the
// localpv-provisioner analytics on every install performed by the harness.
const defaultInstallOverrides = "obs.callhome.sendReport=false,localpv-provisioner.analytics.enabled=false"

// installScriptPath is the wrapper script location inside a local source
// tree.
var installScriptPath = filepath.Join("scripts", "helm", "install.sh")

// ReleaseClient manages helm releases in a single Kubernetes namespace. All
// operations shell out to the helm CLI through the configured Runner, with
// the storage driver injected via HELM_DRIVER. The client itself keeps no
// state beyond its configuration; release listings are recomputed on every
// call.
type ReleaseClient struct {
	runner        cli.Runner
	logger        *slog.Logger
	bin           string
	namespace     string
	storageDriver string
	repoName      string
	repoURL       string
	chartName     string
}

// Option configures a ReleaseClient.
type Option func(*ReleaseClient)

// WithRunner sets the command runner, replacing the default exec runner.
func WithRunner(r cli.Runner) Option {
	return func(c *ReleaseClient) {
		c.runner = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ReleaseClient) {
		c.logger = logger
	}
}

// WithBinary sets the helm binary to invoke.
func WithBinary(bin string) Option {
	return func(c *ReleaseClient) {
		c.bin = bin
	}
}

// WithRepository sets the hosted chart repository name and URL.
func WithRepository(name, url string) Option {
	return func(c *ReleaseClient) {
		c.repoName = name
		c.repoURL = url
	}
}

// WithChartName sets the chart installed from the hosted repository.
func WithChartName(name string) Option {
	return func(c *ReleaseClient) {
		c.chartName = name
	}
}

// NewReleaseClient creates a client scoped to the given namespace. The
// storage driver selects where helm persists release metadata and may be
// empty for the default.
func NewReleaseClient(namespace, storageDriver string, opts ...Option) *ReleaseClient {
	c := &ReleaseClient{
		runner:        cli.ExecRunner{},
		logger:        slog.Default(),
		bin:           DefaultBinary,
		namespace:     namespace,
		storageDriver: storageDriver,
		repoName:      DefaultRepoName,
		repoURL:       DefaultRepoURL,
		chartName:     DefaultChartName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Namespace returns the namespace this client is scoped to.
func (c *ReleaseClient) Namespace() string {
	return c.namespace
}

// RepoURL returns the hosted chart repository URL.
func (c *ReleaseClient) RepoURL() string {
	return c.repoURL
}

// VersionCheck verifies that a v3 helm binary is available and returns its
// reported version.
func (c *ReleaseClient) VersionCheck(ctx context.Context) (string, error) {
	cmd := c.command("version", "--short")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", c.failure(cmd, err)
	}

	version := strings.TrimSpace(string(res.Stdout))
	if !strings.HasPrefix(version, "v3.") {
		return "", fmt.Errorf("helm v3 is required, found %q", version)
	}
	return version, nil
}

// ListRepositories returns the chart repositories configured for the helm
// installation. An empty repository list is not an error.
func (c *ReleaseClient) ListRepositories(ctx context.Context) ([]Repository, error) {
	cmd := c.command("repo", "ls", "-o", "json")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, c.failure(cmd, err)
	}

	out := bytes.TrimSpace(res.Stdout)
	if len(out) == 0 {
		return nil, nil
	}

	var repos []Repository
	if err := json.Unmarshal(out, &repos); err != nil {
		return nil, &ParseError{Cmd: cmd.String(), Err: err}
	}
	return repos, nil
}

// EnsureRepository registers the chart repository url under the proposed
// name, unless a repository with that url already exists, in which case the
// existing local name is returned and nothing is re-added. A failed listing
// is treated as "no repositories configured": a fresh helm installation has
// no repository index yet and the listing call exits non-zero.
func (c *ReleaseClient) EnsureRepository(ctx context.Context, name, url string) (string, error) {
	repos, err := c.ListRepositories(ctx)
	if err != nil {
		c.logger.Warn("could not list chart repositories, assuming none configured", "error", err)
	}
	for _, repo := range repos {
		if repo.URL == url {
			return repo.Name, nil
		}
	}

	cmd := c.command("repo", "add", name, url)
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return "", c.failure(cmd, err)
	}
	return name, nil
}

// ListDeployed returns the names of the deployed releases in the client's
// namespace, in the order helm reports them.
func (c *ReleaseClient) ListDeployed(ctx context.Context) ([]string, error) {
	cmd := c.command("ls", "-n", c.namespace, "--deployed", "--short")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, c.failure(cmd, err)
	}

	out := strings.TrimSpace(string(res.Stdout))
	if out == "" {
		return nil, nil
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsDeployed reports whether the named release is deployed in the client's
// namespace. Any failure of the underlying listing is reported as "not
// deployed" rather than propagated, so a scenario precondition reads as a
// plain boolean.
func (c *ReleaseClient) IsDeployed(ctx context.Context, name string) bool {
	releases, err := c.ListDeployed(ctx)
	if err != nil {
		c.logger.Error("failed to list deployed releases, treating release as not deployed",
			"release", name, "error", err)
		return false
	}

	for _, release := range releases {
		if release == name {
			return true
		}
	}
	return false
}

// GetRelease returns the full record of the named release, or
// ErrReleaseNotFound if no installed release matches.
func (c *ReleaseClient) GetRelease(ctx context.Context, name string) (*Release, error) {
	cmd := c.command("ls", "--filter", "^"+name+"$", "-n", c.namespace, "-o", "json")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return nil, c.failure(cmd, err)
	}

	var releases []Release
	if err := json.Unmarshal(bytes.TrimSpace(res.Stdout), &releases); err != nil {
		return nil, &ParseError{Cmd: cmd.String(), Err: err}
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("%w: %s in namespace %s", ErrReleaseNotFound, name, c.namespace)
	}
	return &releases[0], nil
}

// Install installs the chart described by req and returns the captured
// helm output. For a hosted source the chart repository is registered
// first; if that fails the install is not attempted and a
// PreconditionError is returned. A local source runs the install wrapper
// script bundled in the source tree.
func (c *ReleaseClient) Install(ctx context.Context, req InstallRequest) (string, error) {
	var cmd cli.Command
	if req.Source.IsLocal() {
		script := filepath.Join(req.Source.Root(), installScriptPath)
		cmd = cli.Command{
			Name: "/bin/bash",
			Args: []string{"-c", script + " --dep-update --wait"},
			Env:  c.env(),
		}
	} else {
		repoName, err := c.EnsureRepository(ctx, c.repoName, c.repoURL)
		if err != nil {
			return "", &PreconditionError{Step: "register chart repository", Err: err}
		}

		release := req.ReleaseName
		if release == "" {
			release = c.chartName
		}

		args := []string{
			"install", release, repoName + "/" + c.chartName,
			"-n", c.namespace,
			"--create-namespace",
			"--set", defaultInstallOverrides,
			"--wait",
		}
		for _, kv := range sortedSetValues(req.SetValues) {
			args = append(args, "--set", kv)
		}
		if req.Version != "" {
			args = append(args, "--version", req.Version)
		}
		cmd = c.command(args...)
	}

	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", c.failure(cmd, err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// Uninstall removes the named release and waits for its resources to be
// deleted.
func (c *ReleaseClient) Uninstall(ctx context.Context, name string) error {
	cmd := c.command("uninstall", name, "-n", c.namespace, "--wait")
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return c.failure(cmd, err)
	}
	return nil
}

func (c *ReleaseClient) command(args ...string) cli.Command {
	return cli.Command{Name: c.bin, Args: args, Env: c.env()}
}

func (c *ReleaseClient) env() []string {
	return []string{"HELM_DRIVER=" + c.storageDriver}
}

// failure logs the failing command and classifies the error: a non-zero
// exit becomes a ToolError carrying the exit code and captured stderr,
// anything else an UnexpectedError.
func (c *ReleaseClient) failure(cmd cli.Command, err error) error {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		c.logger.Error("helm command failed",
			"cmd", cmd.String(), "exitCode", exitErr.Code, "stderr", exitErr.Stderr)
		return &ToolError{Cmd: cmd.String(), ExitCode: exitErr.Code, Stderr: exitErr.Stderr}
	}

	c.logger.Error("helm command could not be run", "cmd", cmd.String(), "error", err)
	return &UnexpectedError{Cmd: cmd.String(), Err: err}
}

func sortedSetValues(values map[string]string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for k, v := range values {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
