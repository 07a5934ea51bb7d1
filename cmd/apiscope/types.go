package main

// CLIResult is the JSON envelope for all command output.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic.
type CLIDiagnostic struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// CLILocation is a declaration site.
type CLILocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Kind string `json:"kind,omitempty"`
	Name string `json:"name,omitempty"`
}

// CLIDuplicate is one colliding declaration name and its sites.
type CLIDuplicate struct {
	Kind  string        `json:"kind"`
	Name  string        `json:"name"`
	Count int           `json:"count"`
	Sites []CLILocation `json:"sites,omitempty"`
	Files []string      `json:"files,omitempty"`
}

// CLIImport is an import path with the files it matched.
type CLIImport struct {
	Source  string   `json:"source"`
	Matches []string `json:"matches"`
}

// CLIFile is a JSON-friendly indexed file.
type CLIFile struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Syntax     string `json:"syntax,omitempty"`
	DeclCount  int    `json:"decl_count"`
	ErrorCount int    `json:"error_count"`
}

// CLIDeclaration is a JSON-friendly indexed declaration.
type CLIDeclaration struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// CLIRoute is a JSON-friendly indexed route.
type CLIRoute struct {
	Service  string `json:"service"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Handler  string `json:"handler,omitempty"`
	Request  string `json:"request,omitempty"`
	Response string `json:"response,omitempty"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}
