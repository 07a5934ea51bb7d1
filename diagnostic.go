package apiscope

import (
	"fmt"
	"sort"
)

// Severity of a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes produced by the Engine. Rule scripts report under their
// own rule name.
const (
	CodeSyntax           = "syntax"
	CodeDuplicateType    = "duplicate-type"
	CodeDuplicateHandler = "duplicate-handler"
	CodeDuplicateRoute   = "duplicate-route"
	CodeUnresolvedType   = "unresolved-type"
	CodeMissingHandler   = "missing-handler-impl"
	CodeRuleError        = "rule-error"
	CodeIO               = "io"
)

// Diagnostic is one problem found in a schema file.
type Diagnostic struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.Path, d.Line, d.Col, d.Severity, d.Message, d.Code)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// sortDiagnostics orders diagnostics by path, position, then code.
func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Code < b.Code
	})
}
