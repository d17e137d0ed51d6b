// Package reporter accumulates positioned errors and warnings reported
// by package compiler. Lexing and parsing errors are not reported
// through it, and compilation stops at its first error, so a Handler
// holds at most one error per Compile call. Shape grounded on
// bufbuild/protocompile's own reporter package, which the teacher
// already imports for exactly this purpose in its Protobuf compatibility
// checker.
package reporter

import (
	"fmt"
	"strconv"

	"github.com/axonops/protolens/ast"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Pos     ast.Position
	Message string
	Warning bool
}

func (d Diagnostic) String() string {
	if d.Pos.File == "" {
		return d.Message
	}
	return d.Pos.File + ":" + strconv.Itoa(d.Pos.Line) + ":" + strconv.Itoa(d.Pos.Col) + ": " + d.Message
}

// Handler collects diagnostics as they're reported. The zero value is
// ready to use.
type Handler struct {
	diagnostics []Diagnostic
}

// NewHandler returns a ready-to-use Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Errorf records an error-level diagnostic at pos.
func (h *Handler) Errorf(pos ast.Position, format string, args ...interface{}) {
	h.diagnostics = append(h.diagnostics, Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning-level diagnostic at pos. Warnings never stop
// compilation; they're surfaced for a caller to inspect.
func (h *Handler) Warnf(pos ast.Position, format string, args ...interface{}) {
	h.diagnostics = append(h.diagnostics, Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...), Warning: true})
}

// Errors returns only the error-level diagnostics, in report order.
func (h *Handler) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range h.diagnostics {
		if !d.Warning {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-level diagnostics, in report order.
func (h *Handler) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range h.diagnostics {
		if d.Warning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (h *Handler) HasErrors() bool {
	for _, d := range h.diagnostics {
		if !d.Warning {
			return true
		}
	}
	return false
}

// All returns every diagnostic, errors and warnings, in report order.
func (h *Handler) All() []Diagnostic {
	return h.diagnostics
}
