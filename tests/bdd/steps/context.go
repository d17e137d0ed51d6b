//go:build bdd

// Package steps provides godog step definitions for the BDD tests,
// mirroring the teacher's tests/bdd/steps package shape (a shared
// TestContext, one Register*Steps function per concern) but scoped to
// this module's compile/decode domain instead of HTTP calls.
package steps

import (
	"fmt"

	"github.com/axonops/protolens/compiler"
	"github.com/axonops/protolens/decode"
	"github.com/axonops/protolens/registry"
)

// TestContext holds state shared across steps within a single scenario.
type TestContext struct {
	Ctx        *registry.Context
	CompileErr error

	Decoded *decode.MessageValue

	StoredValues map[string]interface{}
}

// NewTestContext creates a fresh, empty test context.
func NewTestContext() *TestContext {
	return &TestContext{StoredValues: make(map[string]interface{})}
}

// Compile parses and links source, storing the result or the error for
// later steps to assert on.
func (tc *TestContext) Compile(source string) {
	tc.Ctx, tc.CompileErr = compiler.Compile([]string{source}, compiler.Options{})
}

// Message looks up a fully-qualified message name in the compiled
// context, failing loudly if compilation didn't succeed first.
func (tc *TestContext) Message(name string) (*registry.MessageInfo, error) {
	if tc.CompileErr != nil {
		return nil, fmt.Errorf("schema did not compile: %w", tc.CompileErr)
	}
	if tc.Ctx == nil {
		return nil, fmt.Errorf("no schema compiled yet")
	}
	mi, ok := tc.Ctx.Message(name)
	if !ok {
		return nil, fmt.Errorf("message %q not found", name)
	}
	return mi, nil
}
