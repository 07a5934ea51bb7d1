package runtime

import "fmt"

// FileFacts is what a rule script can see of one schema file.
type FileFacts struct {
	Path         string
	Syntax       string
	Declarations []Declaration
	Imports      []string
	Routes       []Route
}

// Declaration is a named declaration in the file.
type Declaration struct {
	Name string
	Kind string
	Line int
	Col  int
}

// Route is one service route.
type Route struct {
	Service  string
	Method   string
	Path     string
	Handler  string
	Doc      string
	Request  string
	Response string
	Line     int
	Col      int
}

// Finding is one problem reported by a rule.
type Finding struct {
	Rule    string
	Line    int
	Col     int
	Message string
}

// RuleError is a rule script that failed to load or run.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
