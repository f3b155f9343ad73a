package helm

import "strings"

// Repository is one entry of the configured chart repository list, as
// reported by `helm repo ls -o json`.
type Repository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Release describes one installed release as reported by `helm ls -o json`.
type Release struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Revision   string `json:"revision"`
	Updated    string `json:"updated"`
	Status     string `json:"status"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
}

// ChartVersion extracts the version from the chart field, which helm
// reports as "<chart>-<version>" (e.g. "mayastor-2.7.0" -> "2.7.0").
func (r Release) ChartVersion() string {
	idx := strings.LastIndex(r.Chart, "-")
	if idx < 0 || idx == len(r.Chart)-1 {
		return ""
	}
	return r.Chart[idx+1:]
}

type sourceKind int

const (
	sourceHosted sourceKind = iota
	sourceLocal
)

// ChartSource selects where the chart is installed from. It is a closed
// variant: either the hosted chart repository, or a source tree carrying
// the bundled chart and its install wrapper script.
type ChartSource struct {
	kind sourceKind
	root string
}

// HostedSource installs the chart from the registered chart repository.
func HostedSource() ChartSource {
	return ChartSource{kind: sourceHosted}
}

// LocalSource installs the chart bundled in the source tree rooted at root,
// through the tree's install wrapper script.
func LocalSource(root string) ChartSource {
	return ChartSource{kind: sourceLocal, root: root}
}

// IsLocal reports whether the source is a local source tree.
func (s ChartSource) IsLocal() bool { return s.kind == sourceLocal }

// Root returns the source tree root for a local source, empty otherwise.
func (s ChartSource) Root() string { return s.root }

// InstallRequest describes a single chart installation.
type InstallRequest struct {
	// ReleaseName is the release to install. Defaults to the client's
	// chart name when empty.
	ReleaseName string

	// Source selects the hosted repository or a local source tree.
	Source ChartSource

	// Version pins an explicit chart version. Hosted installs only;
	// empty means latest.
	Version string

	// SetValues are additional --set overrides applied on top of the
	// default telemetry-disabling overrides.
	SetValues map[string]string
}
