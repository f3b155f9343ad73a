package test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUpgradeTests(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mayastor Upgrade Tests Suite")
}

var _ = BeforeSuite(func() {
	// Verify cluster connection and the presence of helm and the
	// kubectl-mayastor plugin. The scenario suites create their own
	// framework instance per namespace.
})
