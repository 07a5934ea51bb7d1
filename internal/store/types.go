package store

import "time"

// File is one indexed schema file.
type File struct {
	ID          int64
	Path        string
	Hash        string
	Syntax      string
	DeclCount   int
	ErrorCount  int
	LastIndexed time.Time
}

// Declaration is a named declaration: a type name, a handler or a route key.
// Kind is the grammar kind name (structNameId, handlerValue, httpRoute).
type Declaration struct {
	ID     int64
	FileID int64
	Name   string
	Kind   string
	Line   int
	Col    int
}

// Import is one import path as written (quotes removed).
type Import struct {
	ID     int64
	FileID int64
	Source string
}

// Route is one service route with its handler and payload types.
type Route struct {
	ID       int64
	FileID   int64
	Service  string
	Method   string
	Path     string
	Handler  string
	Request  string
	Response string
	Line     int
	Col      int
}

// DuplicateDeclaration is a (kind, name) declared more than once across the
// indexed files.
type DuplicateDeclaration struct {
	Kind  string
	Name  string
	Count int
	Files []string
}
