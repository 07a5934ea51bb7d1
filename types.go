package apiscope

import (
	"github.com/jward/apiscope/internal/resolve"
	"github.com/jward/apiscope/internal/store"
	"github.com/jward/apiscope/internal/syntax"
	"github.com/jward/apiscope/internal/workspace"
)

// Public type aliases for the internal types used by the Engine and
// QueryBuilder APIs. Aliases are identical to the internal types at compile
// time; no conversion is needed.

type Node = syntax.Node
type Kind = syntax.Kind
type Position = syntax.Position
type SchemaFile = workspace.SchemaFile
type FileSystem = workspace.FileSystem
type ImportSet = resolve.ImportSet
type DeclarationKey = resolve.DeclarationKey
type DuplicateGroup = resolve.DuplicateGroup

type File = store.File
type Declaration = store.Declaration
type Import = store.Import
type Route = store.Route
type DuplicateDeclaration = store.DuplicateDeclaration
