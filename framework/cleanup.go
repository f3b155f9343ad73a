package framework

import (
	"errors"
	"fmt"
	"time"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/concurrent"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/fio"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/gvr"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// Cleanup removes everything the framework created: the mayastor
// release, upgrade leftovers, DiskPools, the storage class and finally
// the namespace.
func (f *Framework) Cleanup(releaseName string) error {
	f.logger.Info("starting cleanup", "namespace", f.namespace)

	// 1. Remove the chart release first so the operators stop
	// reconciling while the rest is torn down
	if f.helm.IsDeployed(f.ctx, releaseName) {
		if err := f.helm.Uninstall(f.ctx, releaseName); err != nil {
			return NewCleanupError("release", err)
		}
	}

	// 2. Remove upgrade bookkeeping left by the plugin
	if err := f.plugin.DeleteUpgradeResources(f.ctx); err != nil {
		f.logger.Warn("failed to delete upgrade resources", "error", err)
	}

	// 3. Delete tracked CRs (DiskPools)
	if err := f.cleanupCRs(); err != nil {
		return NewCleanupError("custom resources", err)
	}

	// 4. Wait for CRs to be fully deleted before taking the namespace
	if err := f.waitForCRsDeletion(); err != nil {
		f.logger.Warn("some CRs may not have been fully deleted", "error", err)
	}

	// 5. Remove the test storage class, a cluster scoped leftover
	if err := f.deleteStorageClass(fio.DefaultStorageClass); err != nil {
		f.logger.Warn("failed to delete storage class", "error", err)
	}

	// 6. Delete namespace (cascades to all namespaced resources)
	if err := f.DeleteNamespace(); err != nil {
		return NewCleanupError("namespace", err)
	}

	// 7. Clean up orphaned PVs
	if err := f.cleanupOrphanedPVs(); err != nil {
		f.logger.Warn("failed to cleanup orphaned PVs", "error", err)
	}

	f.logger.Info("cleanup completed", "namespace", f.namespace)
	return nil
}

// cleanupCRs deletes all tracked custom resources in parallel
func (f *Framework) cleanupCRs() error {
	trackedCRs := f.GetTrackedCRs()

	// If nothing was tracked, fall back to label-based cleanup
	if len(trackedCRs) == 0 {
		f.logger.Info("no tracked CRs, using label-based cleanup")
		return f.cleanupCRsByLabel()
	}

	f.logger.Info("deleting tracked CRs", "count", len(trackedCRs))

	return concurrent.ForEach(trackedCRs, func(res TrackedResource) error {
		f.logger.Debug("deleting CR", "resource", res.GVR.Resource, "name", res.Name)
		err := f.dynamicClient.Resource(res.GVR).Namespace(res.Namespace).Delete(f.ctx, res.Name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete %s/%s: %w", res.GVR.Resource, res.Name, err)
		}
		return nil
	})
}

// cleanupCRsByLabel finds and deletes CRs using the managed-by label
func (f *Framework) cleanupCRsByLabel() error {
	labelSelector := fmt.Sprintf("%s=%s,%s=%s", LabelManagedBy, LabelManagedByValue, LabelInstance, f.namespace)

	return concurrent.ForEach(gvr.AllManagedCRs(), func(res schema.GroupVersionResource) error {
		list, err := f.dynamicClient.Resource(res).Namespace(f.namespace).List(f.ctx, metav1.ListOptions{
			LabelSelector: labelSelector,
		})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to list %s: %w", res.Resource, err)
		}

		for _, item := range list.Items {
			if f.ctx.Err() != nil {
				return fmt.Errorf("context cancelled during %s cleanup: %w", res.Resource, f.ctx.Err())
			}
			f.logger.Debug("deleting CR by label", "resource", res.Resource, "name", item.GetName())
			err := f.dynamicClient.Resource(res).Namespace(f.namespace).Delete(f.ctx, item.GetName(), metav1.DeleteOptions{})
			if err != nil && !apierrors.IsNotFound(err) {
				return fmt.Errorf("failed to delete %s/%s: %w", res.Resource, item.GetName(), err)
			}
		}
		return nil
	})
}

// waitForCRsDeletion waits for all tracked CRs to be fully deleted.
// DiskPools carry a finalizer held by the pool operator; stuck ones
// get the finalizer stripped after the timeout.
func (f *Framework) waitForCRsDeletion() error {
	trackedCRs := f.GetTrackedCRs()
	if len(trackedCRs) == 0 {
		return nil
	}

	deletionTimeout := f.config.CRDeletionTimeout
	pollInterval := f.config.CRDeletionPollInterval

	f.logger.Info("waiting for CRs to be deleted", "count", len(trackedCRs), "timeout", deletionTimeout)

	pending := make([]TrackedResource, len(trackedCRs))
	copy(pending, trackedCRs)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	timeout := time.After(deletionTimeout)

	for {
		select {
		case <-f.ctx.Done():
			return fmt.Errorf("context cancelled while waiting for CR deletion: %w", f.ctx.Err())
		case <-timeout:
			f.logger.Warn("timeout waiting for CR deletion, attempting to remove finalizers", "remaining", len(pending))
			if err := f.removeFinalizersFromCRs(pending); err != nil {
				f.logger.Warn("failed to remove finalizers from some CRs", "error", err)
			}
			remaining := make([]string, len(pending))
			for i, cr := range pending {
				remaining[i] = fmt.Sprintf("%s/%s", cr.GVR.Resource, cr.Name)
			}
			return fmt.Errorf("timeout waiting for CRs to be deleted after %v, remaining: %v", deletionTimeout, remaining)
		case <-ticker.C:
			var stillPending []TrackedResource

			for _, cr := range pending {
				_, err := f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Get(f.ctx, cr.Name, metav1.GetOptions{})
				if err == nil {
					stillPending = append(stillPending, cr)
					continue
				}
				if !apierrors.IsNotFound(err) {
					f.logger.Warn("error checking CR status", "resource", cr.GVR.Resource, "name", cr.Name, "error", err)
					stillPending = append(stillPending, cr)
					continue
				}
				f.logger.Debug("CR deleted", "resource", cr.GVR.Resource, "name", cr.Name)
			}

			if len(stillPending) == 0 {
				f.logger.Info("all CRs deleted successfully")
				return nil
			}

			pending = stillPending
			f.logger.Debug("waiting for CRs to be deleted", "remaining", len(pending))
		}
	}
}

// removeFinalizersFromCRs removes finalizers from stuck CRs to allow deletion
func (f *Framework) removeFinalizersFromCRs(crs []TrackedResource) error {
	return concurrent.ForEach(crs, func(cr TrackedResource) error {
		obj, err := f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Get(f.ctx, cr.Name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to get %s/%s: %w", cr.GVR.Resource, cr.Name, err)
		}

		finalizers := obj.GetFinalizers()
		if len(finalizers) == 0 {
			return nil
		}

		f.logger.Info("removing finalizers from stuck CR",
			"resource", cr.GVR.Resource, "name", cr.Name, "finalizers", finalizers)

		patch := []byte(`{"metadata":{"finalizers":null}}`)
		_, err = f.dynamicClient.Resource(cr.GVR).Namespace(cr.Namespace).Patch(
			f.ctx,
			cr.Name,
			types.MergePatchType,
			patch,
			metav1.PatchOptions{},
		)
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to remove finalizers from %s/%s: %w", cr.GVR.Resource, cr.Name, err)
		}
		return nil
	})
}

// deleteStorageClass removes a storage class created for the fio workload
func (f *Framework) deleteStorageClass(name string) error {
	err := f.client.StorageV1().StorageClasses().Delete(f.ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete storage class %s: %w", name, err)
	}
	return nil
}

// cleanupOrphanedPVs finds and deletes orphaned PVs left behind by the
// test volumes
func (f *Framework) cleanupOrphanedPVs() error {
	var deletedCount int
	deletedPVs := make(map[string]bool)

	labelSelector := fmt.Sprintf("%s=%s", LabelInstance, f.namespace)
	labeledPVs, err := f.client.CoreV1().PersistentVolumes().List(f.ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return fmt.Errorf("failed to list labeled PVs: %w", err)
	}

	var errs []error
	for _, pv := range labeledPVs.Items {
		if deleted, err := f.deleteOrphanedPV(&pv); err != nil {
			errs = append(errs, err)
		} else if deleted {
			deletedCount++
			deletedPVs[pv.Name] = true
		}
	}

	// Also sweep PVs that were bound to claims in this namespace
	allPVs, err := f.client.CoreV1().PersistentVolumes().List(f.ctx, metav1.ListOptions{})
	if err != nil {
		f.logger.Warn("failed to list all PVs for ClaimRef check", "error", err)
	} else {
		for _, pv := range allPVs.Items {
			if deletedPVs[pv.Name] {
				continue
			}
			if pv.Spec.ClaimRef != nil && pv.Spec.ClaimRef.Namespace == f.namespace {
				if deleted, err := f.deleteOrphanedPV(&pv); err != nil {
					errs = append(errs, err)
				} else if deleted {
					deletedCount++
				}
			}
		}
	}

	if deletedCount > 0 {
		f.logger.Info("deleted orphaned PVs", "count", deletedCount)
	}

	return errors.Join(errs...)
}

// deleteOrphanedPV deletes a PV if it's in Released or Available phase
func (f *Framework) deleteOrphanedPV(pv *corev1.PersistentVolume) (bool, error) {
	if pv.Status.Phase != corev1.VolumeReleased && pv.Status.Phase != corev1.VolumeAvailable {
		f.logger.Debug("skipping PV not in Released/Available phase", "pv", pv.Name, "phase", pv.Status.Phase)
		return false, nil
	}

	f.logger.Debug("deleting orphaned PV", "pv", pv.Name)
	err := f.client.CoreV1().PersistentVolumes().Delete(f.ctx, pv.Name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return false, fmt.Errorf("failed to delete PV %s: %w", pv.Name, err)
	}
	return true, nil
}
