// Package apiscope is the semantic layer for .api service definition files.
// It parses schema files into an immutable syntax tree, resolves type
// references across imports, detects duplicate declarations and runs
// user-supplied Risor rules over each file.
//
// # Resolution
//
// A type reference resolves first against the declarations of its own file,
// then against the files that file imports. Imports are matched by path
// suffix against every schema file under the project's content roots; the
// first match in content-root then lexical directory order wins.
//
//	e, err := apiscope.New(apiscope.WithContentRoots("api"))
//	if err != nil { ... }
//	defer e.Close()
//
//	decl, ok, err := e.ResolveName("api/user/user.api", "UserInfo")
//
// # Checks
//
// [Engine.Check] reports syntax errors, duplicate type, handler and route
// declarations, unresolved type references and rule findings as
// [Diagnostic] values. [Engine.CheckHandlers] cross-checks @handler names
// against Go function declarations.
//
// # Index
//
// With [WithStore], [Engine.IndexFiles] persists declarations, imports and
// routes to SQLite. Unchanged files are skipped by content hash. The
// [QueryBuilder] returned by [Engine.Query] answers questions about the
// indexed project:
//
//   - [QueryBuilder.Declarations] lists declarations by kind, name or path.
//   - [QueryBuilder.Dependencies] returns the files a file imports.
//   - [QueryBuilder.Dependents] returns the files importing a file.
//   - [QueryBuilder.Affected] returns the transitive importers of a file.
//   - [QueryBuilder.Routes] lists service routes.
//
// # Rules
//
// Rule scripts are top-level .risor files in a rules directory. Each runs
// once per checked file with the file's facts as globals and calls
// report(line, col, message) for each finding. See the internal/runtime
// package for the full set of globals exposed to scripts.
package apiscope
