//go:build bdd

// Package bdd runs the six spec.md §8 end-to-end scenarios through
// godog (Cucumber for Go), the same harness shape the teacher's
// tests/bdd/bdd_test.go uses (TestMain wiring a godog.TestSuite with a
// ScenarioInitializer), scaled down from an HTTP-server-per-scenario
// fixture to a compile-then-decode fixture since this module has no
// server to stand up.
//
//	go test -tags bdd -v ./tests/bdd/...
package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"github.com/axonops/protolens/tests/bdd/steps"
)

func TestFeatures(t *testing.T) {
	opts := godog.Options{
		Format:   "pretty",
		Output:   colors.Colored(os.Stdout),
		Paths:    []string{"features"},
		TestingT: t,
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			tc := steps.NewTestContext()
			steps.RegisterSchemaSteps(ctx, tc)
			steps.RegisterDecodeSteps(ctx, tc)
			steps.RegisterServiceSteps(ctx, tc)
		},
		Options: &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("BDD tests failed")
	}
}

func init() {
	if _, err := os.Stat("features"); err != nil {
		if _, err := os.Stat("tests/bdd/features"); err == nil {
			_ = os.Chdir("tests/bdd")
		}
	}
}
