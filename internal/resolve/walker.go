package resolve

import (
	"path/filepath"
	"strings"

	"github.com/jward/apiscope/internal/syntax"
	"github.com/jward/apiscope/internal/workspace"
)

// DefaultMaxDepth bounds how deep the walker descends below a content root.
const DefaultMaxDepth = 64

// Matcher decides whether a schema file, by absolute path, is one of the
// files an importer refers to.
type Matcher interface {
	Match(path string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(path string) bool

func (f MatcherFunc) Match(path string) bool { return f(path) }

// MatcherFactory builds the Matcher for the imports of the file at importer.
type MatcherFactory func(importer string, imports ImportSet) Matcher

// SuffixMatcher accepts a path that ends with any of the imports. An empty
// set accepts nothing. The comparison is a plain string suffix, so
// "/proj/other/types.api" matches the import "types.api".
func SuffixMatcher(imports ImportSet) Matcher {
	return MatcherFunc(func(path string) bool {
		for imp := range imports {
			if strings.HasSuffix(path, imp) {
				return true
			}
		}
		return false
	})
}

// RelativeMatcher accepts only the files the imports name relative to the
// importing file's directory.
func RelativeMatcher(importer string, imports ImportSet) Matcher {
	dir := filepath.Dir(importer)
	want := make(map[string]bool, len(imports))
	for imp := range imports {
		if filepath.IsAbs(imp) {
			want[filepath.Clean(imp)] = true
			continue
		}
		want[filepath.Join(dir, imp)] = true
	}
	return MatcherFunc(func(path string) bool {
		return want[filepath.Clean(path)]
	})
}

func suffixFactory(_ string, imports ImportSet) Matcher { return SuffixMatcher(imports) }

// Walker enumerates the schema files below a directory.
type Walker struct {
	ws       *workspace.Workspace
	maxDepth int
}

// NewWalker returns a Walker over ws. maxDepth <= 0 selects DefaultMaxDepth.
func NewWalker(ws *workspace.Workspace, maxDepth int) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Walker{ws: ws, maxDepth: maxDepth}
}

type dirEntry struct {
	path  string
	depth int
}

// Walk visits, depth first, every schema file under dir accepted by m,
// files of a directory before its subdirectories. visit returning false
// stops the walk; Walk then returns false. Unreadable directories and files
// are skipped.
func (w *Walker) Walk(dir string, m Matcher, visit func(*workspace.SchemaFile) bool) bool {
	stack := []dirEntry{{path: dir}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		files, subdirs, err := w.ws.List(cur.path)
		if err != nil {
			continue
		}
		for _, path := range files {
			if !m.Match(path) {
				continue
			}
			f, err := w.ws.Load(path)
			if err != nil || f.Root.Kind() != syntax.KindAPI {
				continue
			}
			if !visit(f) {
				return false
			}
		}
		if cur.depth >= w.maxDepth {
			continue
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, dirEntry{path: subdirs[i], depth: cur.depth + 1})
		}
	}
	return true
}

// FindRoots returns the api roots of every file under dir accepted by m.
func (w *Walker) FindRoots(dir string, m Matcher) []syntax.Node {
	var roots []syntax.Node
	w.Walk(dir, m, func(f *workspace.SchemaFile) bool {
		roots = append(roots, f.Root)
		return true
	})
	return roots
}
