package resolve

import (
	"github.com/jward/apiscope/internal/syntax"
	"github.com/jward/apiscope/internal/workspace"
)

// Declaration address patterns, tried in this order. Each ends at the IDENT
// token of a declared name; the resolved node is that token's structNameId.
var declarationPaths = []syntax.Path{
	{syntax.KindAPI, syntax.KindAPIBody, syntax.KindTypeStatement, syntax.KindTypeSingleSpec,
		syntax.KindTypeAlias, syntax.KindStructNameID, syntax.KindIdent},
	{syntax.KindAPI, syntax.KindAPIBody, syntax.KindTypeStatement, syntax.KindTypeSingleSpec,
		syntax.KindTypeStruct, syntax.KindStructType, syntax.KindStructNameID, syntax.KindIdent},
	{syntax.KindAPI, syntax.KindAPIBody, syntax.KindTypeStatement, syntax.KindTypeGroupSpec,
		syntax.KindTypeGroupBody, syntax.KindTypeGroupAlias, syntax.KindStructNameID, syntax.KindIdent},
	{syntax.KindAPI, syntax.KindAPIBody, syntax.KindTypeStatement, syntax.KindTypeGroupSpec,
		syntax.KindTypeGroupBody, syntax.KindStructType, syntax.KindStructNameID, syntax.KindIdent},
}

// Scope is a root to resolve in. Base prefixes every declaration path; it is
// empty for a file's own root and for every imported root alike.
type Scope struct {
	Root syntax.Node
	Base syntax.Path
}

// ResolveLocal looks name up in scope only. Within a pattern the first
// declaration in source order wins.
func ResolveLocal(scope Scope, name string) (syntax.Node, bool) {
	for _, p := range declarationPaths {
		for _, ident := range syntax.FindAll(scope.Root, p.Join(scope.Base)) {
			if ident.Text() == name {
				return ident.Parent(), true
			}
		}
	}
	return syntax.Node{}, false
}

// Resolver maps type references to their declarations across a workspace.
// It holds no per-query state and is safe for concurrent use.
type Resolver struct {
	ws         *workspace.Workspace
	walker     *Walker
	newMatcher MatcherFactory
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatcher replaces the import matching rule (suffix matching by default).
func WithMatcher(f MatcherFactory) Option {
	return func(r *Resolver) {
		r.newMatcher = f
	}
}

// WithMaxDepth bounds directory recursion below each content root.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		r.walker = NewWalker(r.ws, n)
	}
}

// New returns a Resolver over ws.
func New(ws *workspace.Workspace, opts ...Option) *Resolver {
	r := &Resolver{
		ws:         ws,
		walker:     NewWalker(ws, 0),
		newMatcher: suffixFactory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Walker returns the walker the resolver enumerates files with.
func (r *Resolver) Walker() *Walker { return r.walker }

// Resolve returns the declaration ref names. ref is any node whose Key is a
// type name, typically a referenceId.
func (r *Resolver) Resolve(ref syntax.Node) (syntax.Node, bool) {
	root := ref.EnclosingRoot()
	if !root.Valid() {
		return syntax.Node{}, false
	}
	return r.ResolveName(root, ref.Key())
}

// ResolveName looks name up in root, then in the files root imports. The
// first match wins: local declarations shadow imported ones, and imported
// files are searched in content-root then directory-walk order.
func (r *Resolver) ResolveName(root syntax.Node, name string) (syntax.Node, bool) {
	if n, ok := ResolveLocal(Scope{Root: root}, name); ok {
		return n, true
	}
	imports := Imports(root)
	if len(imports) == 0 {
		return syntax.Node{}, false
	}
	m := r.newMatcher(root.Tree().Path(), imports)

	var found syntax.Node
	for _, dir := range r.ws.ContentRoots() {
		completed := r.walker.Walk(dir, m, func(f *workspace.SchemaFile) bool {
			if n, ok := ResolveLocal(Scope{Root: f.Root}, name); ok {
				found = n
				return false
			}
			return true
		})
		if !completed {
			return found, true
		}
	}
	return syntax.Node{}, false
}

// RootsForImportsOf returns the roots of every file that the file containing
// elem imports, across all content roots, without duplicates.
func (r *Resolver) RootsForImportsOf(elem syntax.Node) []syntax.Node {
	root := elem.EnclosingRoot()
	if !root.Valid() {
		return nil
	}
	imports := Imports(root)
	if len(imports) == 0 {
		return nil
	}
	m := r.newMatcher(root.Tree().Path(), imports)

	var out []syntax.Node
	seen := make(map[syntax.Node]bool)
	for _, dir := range r.ws.ContentRoots() {
		for _, n := range r.walker.FindRoots(dir, m) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
