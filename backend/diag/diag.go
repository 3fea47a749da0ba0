// Package diag collects non-fatal diagnostics reported while compiling.
package diag

import (
	"fmt"

	"github.com/tenntenn/minilang/backend/token"
)

// Severity of a diagnostic, "error" or "warning"
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a message attached to a source position
type Diagnostic struct {
	Pos      token.Pos
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// List accumulates diagnostics in report order
type List []Diagnostic

// Warnf appends a warning at pos
func (l *List) Warnf(pos token.Pos, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Pos:      pos,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	})
}
