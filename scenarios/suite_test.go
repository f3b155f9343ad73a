package scenarios

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUpgradeScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mayastor Upgrade Scenarios Suite")
}
