package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openebs/upgrade-tests-mayastor/test/framework"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/fio"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/helm"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/plugin"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/pool"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/profile"
	"github.com/openebs/upgrade-tests-mayastor/test/framework/repo"
)

func main() {
	var (
		profilesFlag = flag.String("profiles", "", "Comma-separated list of profiles to run (e.g., hosted-2.6,local-latest)")
		profilesDir  = flag.String("profiles-dir", "profiles", "Directory containing profile YAML files")
		namespace    = flag.String("namespace", "mayastor", "Namespace to install mayastor into")
		outputDir    = flag.String("output", "results", "Output directory for logs and pool dumps")
		dryRun       = flag.Bool("dry-run", false, "Print what would be executed without running")
		skipCleanup  = flag.Bool("skip-cleanup", false, "Skip cleanup after tests (useful for debugging)")
	)
	flag.Parse()

	// Load profiles
	var profiles []*profile.Profile
	var err error

	if *profilesFlag != "" {
		names := strings.Split(*profilesFlag, ",")
		profiles, err = profile.LoadByNames(*profilesDir, names)
	} else {
		profiles, err = profile.LoadAll(*profilesDir)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profiles: %v\n", err)
		os.Exit(1)
	}

	if len(profiles) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no profiles found in %s\n", *profilesDir)
		os.Exit(1)
	}

	fmt.Printf("Loaded %d profile(s):\n", len(profiles))
	for _, p := range profiles {
		fmt.Printf("  - %s: %s\n", p.Name, p.Description)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("Dry run mode - would execute the following:")
		for _, p := range profiles {
			printProfileSummary(p)
		}
		return
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, cleaning up...")
		cancel()
		// Second interrupt force-exits
		<-sigCh
		fmt.Println("\nForce exit requested, terminating immediately...")
		os.Exit(130) // 128 + SIGINT(2)
	}()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	// Run profiles sequentially; each re-installs from scratch
	results := make(map[string]*RunResult)
	for _, p := range profiles {
		select {
		case <-ctx.Done():
			fmt.Println("Aborted by user")
			printSummary(results)
			os.Exit(1)
		default:
		}

		result := runProfile(ctx, p, *namespace, *outputDir, *skipCleanup)
		results[p.Name] = result

		if result.Error != nil {
			fmt.Printf("Profile %s failed: %v\n", p.Name, result.Error)
		}
	}

	printSummary(results)

	for _, r := range results {
		if r.Error != nil {
			os.Exit(1)
		}
	}
}

// RunResult holds the result of running a profile
type RunResult struct {
	Profile  string
	Success  bool
	Duration time.Duration
	Error    error
}

func runProfile(ctx context.Context, p *profile.Profile, namespace, outputDir string, skipCleanup bool) *RunResult {
	startTime := time.Now()
	result := &RunResult{Profile: p.Name}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Running profile: %s\n", p.Name)
	fmt.Printf("Namespace: %s\n", namespace)
	fmt.Printf("========================================\n\n")

	fw, err := framework.New(ctx, namespace)
	if err != nil {
		return fail(result, startTime, fmt.Errorf("failed to create framework: %w", err))
	}

	releaseName := p.ReleaseName()

	if !skipCleanup {
		defer func() {
			fmt.Printf("\nCleaning up namespace %s...\n", namespace)
			if _, err := fw.CollectLogs(&framework.LogCollectionConfig{OutputDir: outputDir}); err != nil {
				fmt.Printf("Warning: log collection failed: %v\n", err)
			}
			if cleanupErr := fw.Cleanup(releaseName); cleanupErr != nil {
				fmt.Printf("Warning: cleanup failed: %v\n", cleanupErr)
			}
		}()
	}

	fmt.Println("Checking prerequisites...")
	prereqs, err := fw.CheckPrerequisites()
	if err != nil {
		return fail(result, startTime, fmt.Errorf("failed to check prerequisites: %w", err))
	}
	if !prereqs.Helm.Installed || !prereqs.Plugin.Installed {
		return fail(result, startTime, fmt.Errorf("prerequisites not met:\n%s", prereqs.String()))
	}

	req, err := installRequest(p, releaseName)
	if err != nil {
		return fail(result, startTime, err)
	}

	fmt.Printf("Installing mayastor (%s)...\n", p.Install.Source)
	if err := fw.InstallMayastor(req); err != nil {
		return fail(result, startTime, fmt.Errorf("failed to install mayastor: %w", err))
	}

	if len(p.Pools) > 0 {
		fmt.Println("Waiting for the DiskPool CRD...")
		if err := fw.WaitForDiskPoolCRD(); err != nil {
			return fail(result, startTime, err)
		}
		for _, pc := range p.Pools {
			fmt.Printf("Creating disk pool %s on %s...\n", pc.Name, pc.Node)
			if err := fw.SetupDiskPool(pool.Spec{
				Name:  pc.Name,
				Node:  pc.Node,
				Disks: pc.Disks,
			}); err != nil {
				return fail(result, startTime, fmt.Errorf("failed to setup pool %s: %w", pc.Name, err))
			}
		}
	}

	// Start the continuity workload before the upgrade so IO spans
	// the io-engine restarts
	var fioDone chan error
	if p.Fio != nil {
		fioDone = make(chan error, 1)
		go func() {
			fioResult, err := fw.RunFioTest(&fio.Config{
				JobName:    fmt.Sprintf("fio-%s", p.Name),
				Replicas:   p.Fio.Replicas,
				VolumeSize: p.Fio.VolumeSize,
				Runtime:    p.FioRuntime(),
			})
			if err == nil && fio.VerifyErrors(fioResult.Output) {
				err = fmt.Errorf("fio reported IO errors")
			}
			fioDone <- err
		}()
		fmt.Println("fio workload started, letting it warm up...")
		time.Sleep(30 * time.Second)
	}

	fmt.Println("Upgrading mayastor...")
	err = fw.UpgradeMayastor(releaseName, p.Upgrade.TargetVersion, plugin.UpgradeOptions{
		SkipDataPlaneRestart:              p.Upgrade.SkipDataPlaneRestart,
		SkipSingleReplicaVolumeValidation: p.Upgrade.SkipSingleReplicaVolumeValidation,
		SkipReplicaRebuild:                p.Upgrade.SkipReplicaRebuild,
		SkipCordonedNodeValidation:        p.Upgrade.SkipCordonedNodeValidation,
	})
	if err != nil {
		_, _ = fw.DumpDiskPools(outputDir)
		return fail(result, startTime, fmt.Errorf("upgrade failed: %w", err))
	}

	if fioDone != nil {
		fmt.Println("Waiting for the fio workload to finish...")
		if err := <-fioDone; err != nil {
			return fail(result, startTime, fmt.Errorf("fio workload failed: %w", err))
		}
	}

	release, err := fw.GetRelease(releaseName)
	if err != nil {
		return fail(result, startTime, fmt.Errorf("failed to read release after upgrade: %w", err))
	}
	fmt.Printf("Release %s is now at chart version %s\n", releaseName, release.ChartVersion())

	result.Success = true
	result.Duration = time.Since(startTime)
	fmt.Printf("\nProfile %s completed successfully in %s\n", p.Name, result.Duration.Round(time.Second))
	return result
}

func fail(result *RunResult, startTime time.Time, err error) *RunResult {
	result.Error = err
	result.Duration = time.Since(startTime)
	return result
}

// installRequest translates a profile install section into a request.
// Local installs resolve the source tree root from the working
// directory.
func installRequest(p *profile.Profile, releaseName string) (helm.InstallRequest, error) {
	req := helm.InstallRequest{
		ReleaseName: releaseName,
		SetValues:   p.Install.SetValues,
	}

	if p.Install.IsLocal() {
		root, err := repo.Root()
		if err != nil {
			return req, fmt.Errorf("local install needs a source tree: %w", err)
		}
		req.Source = helm.LocalSource(root)
		return req, nil
	}

	req.Source = helm.HostedSource()
	req.Version = p.Install.Version
	return req, nil
}

func printProfileSummary(p *profile.Profile) {
	fmt.Printf("\nProfile: %s\n", p.Name)
	fmt.Printf("  Description: %s\n", p.Description)
	fmt.Printf("  Install:\n")
	fmt.Printf("    Source: %s\n", p.Install.Source)
	if p.Install.Version != "" {
		fmt.Printf("    Version: %s\n", p.Install.Version)
	} else {
		fmt.Printf("    Version: (latest)\n")
	}
	fmt.Printf("  Upgrade:\n")
	if p.Upgrade.TargetVersion != "" {
		fmt.Printf("    Target: %s\n", p.Upgrade.TargetVersion)
	} else {
		fmt.Printf("    Target: (latest)\n")
	}
	if p.Upgrade.SkipDataPlaneRestart {
		fmt.Printf("    SkipDataPlaneRestart: true\n")
	}
	fmt.Printf("  Pools: %d\n", len(p.Pools))
	if p.Fio != nil {
		fmt.Printf("  Fio: replicas=%d runtime=%s\n", p.Fio.Replicas, p.Fio.Runtime)
	} else {
		fmt.Printf("  Fio: (none)\n")
	}
}

func printSummary(results map[string]*RunResult) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("SUMMARY\n")
	fmt.Printf("========================================\n")

	var passed, failed int
	for name, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("  %s: %s (%s)\n", name, status, r.Duration.Round(time.Second))
	}

	fmt.Printf("\nTotal: %d passed, %d failed\n", passed, failed)
}
