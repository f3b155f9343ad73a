package scenarios

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openebs/upgrade-tests-mayastor/test/framework"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/fio"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/helm"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/plugin"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/pool"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/version"
)

const releaseName = "mayastor"

// sourceVersion is the chart version installed before upgrading.
// Override with MAYASTOR_UPGRADE_FROM_VERSION.
func sourceVersion() string {
	if v := os.Getenv("MAYASTOR_UPGRADE_FROM_VERSION"); v != "" {
		return v
	}
	return "2.6.1"
}

func poolNode() string {
	if v := os.Getenv("MAYASTOR_UPGRADE_POOL_NODE"); v != "" {
		return v
	}
	return "worker-0"
}

func poolDisk() string {
	if v := os.Getenv("MAYASTOR_UPGRADE_POOL_DISK"); v != "" {
		return v
	}
	return "/dev/sdb"
}

var _ = Describe("Mayastor Upgrade", func() {
	var (
		fw  *framework.Framework
		ctx context.Context
	)

	Context("from a hosted chart install", func() {
		BeforeEach(func() {
			ctx = context.Background()
			var err error
			fw, err = framework.New(ctx, "mayastor")
			Expect(err).NotTo(HaveOccurred())

			prereqs, err := fw.CheckPrerequisites()
			Expect(err).NotTo(HaveOccurred())
			Expect(prereqs.Helm.Installed).To(BeTrue(), prereqs.String())
			Expect(prereqs.Plugin.Installed).To(BeTrue(), prereqs.String())

			Expect(fw.InstallMayastor(helm.InstallRequest{
				ReleaseName: releaseName,
				Source:      helm.HostedSource(),
				Version:     sourceVersion(),
			})).To(Succeed())

			Expect(fw.IsReleaseDeployed(releaseName)).To(BeTrue())

			Expect(fw.WaitForDiskPoolCRD()).To(Succeed())
			Expect(fw.SetupDiskPool(pool.Spec{
				Name:  "upgrade-pool-0",
				Node:  poolNode(),
				Disks: []string{poolDisk()},
			})).To(Succeed())
		})

		AfterEach(func() {
			if fw != nil {
				_, _ = fw.CollectLogs(nil)
				Expect(fw.Cleanup(releaseName)).To(Succeed())
			}
		})

		It("reaches the latest chart version", func() {
			before, err := fw.GetRelease(releaseName)
			Expect(err).NotTo(HaveOccurred())
			fromVersion := before.ChartVersion()

			Expect(fw.UpgradeMayastor(releaseName, "", plugin.UpgradeOptions{})).To(Succeed())

			after, err := fw.GetRelease(releaseName)
			Expect(err).NotTo(HaveOccurred())

			upgraded, err := version.IsUpgrade(fromVersion, after.ChartVersion())
			Expect(err).NotTo(HaveOccurred())
			Expect(upgraded).To(BeTrue(),
				"chart version did not advance: %s -> %s", fromVersion, after.ChartVersion())

			status, err := fw.Plugin().GetUpgradeStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Completed()).To(BeTrue(), "upgrade status: %s", status.State)
		})

		It("keeps IO flowing during the upgrade", func() {
			fioDone := make(chan *fio.Result, 1)
			fioErr := make(chan error, 1)

			// The workload outlives the upgrade window so IO runs
			// across every io-engine restart
			go func() {
				defer GinkgoRecover()
				result, err := fw.RunFioTest(&fio.Config{
					JobName: "fio-during-upgrade",
					Runtime: 20 * time.Minute,
					Timeout: 30 * time.Minute,
				})
				fioDone <- result
				fioErr <- err
			}()

			// Give fio time to provision the volume and start writing
			time.Sleep(1 * time.Minute)

			Expect(fw.UpgradeMayastor(releaseName, "", plugin.UpgradeOptions{})).To(Succeed())

			result := <-fioDone
			Expect(<-fioErr).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(fio.VerifyErrors(result.Output)).To(BeFalse(),
				"fio reported IO or verification errors during upgrade")

			GinkgoWriter.Printf("fio ran for %s across the upgrade\n", result.Duration.Round(time.Second))
		})

		It("keeps disk pools online after the upgrade", func() {
			Expect(fw.UpgradeMayastor(releaseName, "", plugin.UpgradeOptions{
				SkipSingleReplicaVolumeValidation: true,
			})).To(Succeed())

			pools, err := fw.ListDiskPools()
			Expect(err).NotTo(HaveOccurred())
			Expect(pools).To(ContainElement("upgrade-pool-0"))

			Expect(fw.WaitForMayastorReady(5 * time.Minute)).To(Succeed())
		})

		It("reports the planned versions on a dry run", func() {
			out, err := fw.Plugin().Upgrade(ctx, plugin.UpgradeOptions{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(BeEmpty())

			// A dry run must leave the release untouched
			release, err := fw.GetRelease(releaseName)
			Expect(err).NotTo(HaveOccurred())
			Expect(release.ChartVersion()).To(Equal(sourceVersion()))
		})
	})
})
