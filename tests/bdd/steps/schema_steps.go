//go:build bdd

package steps

import (
	"fmt"

	"github.com/cucumber/godog"
)

// RegisterSchemaSteps registers the Given steps that compile a schema.
func RegisterSchemaSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^a proto3 schema:$`, func(source *godog.DocString) error {
		tc.Compile(source.Content)
		return nil
	})
	ctx.Step(`^the schema compiles without error$`, func() error {
		if tc.CompileErr != nil {
			return fmt.Errorf("compile failed: %w", tc.CompileErr)
		}
		return nil
	})
}
