package framework

import (
	"context"
	"fmt"
	"time"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PrerequisiteStatus represents the status of a single prerequisite
type PrerequisiteStatus struct {
	Name      string
	Installed bool
	Message   string
}

// PrerequisitesResult contains the results of all prerequisite checks
type PrerequisitesResult struct {
	Helm         PrerequisiteStatus
	Plugin       PrerequisiteStatus
	DiskPoolCRDs PrerequisiteStatus
	AllMet       bool
}

// diskPoolCRDs are required before pools can be created. The CRD is
// installed by the chart, so this check only gates pool setup, not
// the install itself.
var diskPoolCRDs = []string{
	"diskpools.openebs.io",
}

// CheckPrerequisites verifies that the external tools are usable and
// reports whether the DiskPool CRD is already established.
func (f *Framework) CheckPrerequisites() (*PrerequisitesResult, error) {
	result := &PrerequisitesResult{
		AllMet: true,
	}

	result.Helm = f.checkHelm()
	if !result.Helm.Installed {
		result.AllMet = false
	}

	result.Plugin = f.checkPlugin()
	if !result.Plugin.Installed {
		result.AllMet = false
	}

	apiextClient, err := apiextensionsclient.NewForConfig(f.restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}
	result.DiskPoolCRDs = checkCRDs(f.ctx, apiextClient, "DiskPool CRD", diskPoolCRDs)

	return result, nil
}

// checkHelm verifies that a v3 helm binary is on the path
func (f *Framework) checkHelm() PrerequisiteStatus {
	version, err := f.helm.VersionCheck(f.ctx)
	if err != nil {
		return PrerequisiteStatus{
			Name:    "helm",
			Message: fmt.Sprintf("helm v3 not usable: %v", err),
		}
	}
	return PrerequisiteStatus{
		Name:      "helm",
		Installed: true,
		Message:   fmt.Sprintf("helm %s", version),
	}
}

// checkPlugin verifies that the kubectl-mayastor plugin responds
func (f *Framework) checkPlugin() PrerequisiteStatus {
	version, err := f.plugin.Version(f.ctx)
	if err != nil {
		return PrerequisiteStatus{
			Name:    "kubectl-mayastor",
			Message: fmt.Sprintf("plugin not usable: %v", err),
		}
	}
	return PrerequisiteStatus{
		Name:      "kubectl-mayastor",
		Installed: true,
		Message:   fmt.Sprintf("kubectl-mayastor %s", version),
	}
}

// checkCRDs verifies that all listed CRDs are installed and established
func checkCRDs(ctx context.Context, client apiextensionsclient.Interface, name string, crds []string) PrerequisiteStatus {
	status := PrerequisiteStatus{
		Name:      name,
		Installed: true,
	}

	var missing []string
	var found []string

	for _, crdName := range crds {
		crd, err := client.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crdName, metav1.GetOptions{})
		if err != nil {
			missing = append(missing, crdName)
			status.Installed = false
			continue
		}

		if !isCRDEstablished(crd) {
			missing = append(missing, crdName+" (not established)")
			status.Installed = false
			continue
		}

		found = append(found, crdName)
	}

	if status.Installed {
		status.Message = fmt.Sprintf("All CRDs found: %v", found)
	} else {
		status.Message = fmt.Sprintf("Missing CRDs: %v", missing)
	}

	return status
}

// isCRDEstablished checks if the CRD has the Established condition set to True
func isCRDEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
			return true
		}
	}
	return false
}

// WaitForDiskPoolCRD waits for the DiskPool CRD to be established,
// used right after install before the first pool is created.
func (f *Framework) WaitForDiskPoolCRD() error {
	apiextClient, err := apiextensionsclient.NewForConfig(f.restConfig)
	if err != nil {
		return fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	deadline := f.config.NamespaceTimeout
	ctx, cancel := context.WithTimeout(f.ctx, deadline)
	defer cancel()

	for {
		status := checkCRDs(ctx, apiextClient, "DiskPool CRD", diskPoolCRDs)
		if status.Installed {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrCRDNotEstablished, status.Message)
		case <-time.After(f.config.NamespacePollInterval):
		}
	}
}

// String returns a human-readable summary of the prerequisites result
func (r *PrerequisitesResult) String() string {
	return fmt.Sprintf(
		"Prerequisites Check:\n"+
			"  helm: %s\n"+
			"  kubectl-mayastor: %s\n"+
			"  DiskPool CRD: %s\n"+
			"  All prerequisites met: %v",
		r.Helm.Message,
		r.Plugin.Message,
		r.DiskPoolCRDs.Message,
		r.AllMet,
	)
}
