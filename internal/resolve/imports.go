// Package resolve implements name resolution and duplicate detection for
// parsed .api files: local lookups through fixed declaration paths, a single
// hop through the files a schema imports, and per-file collision reports.
package resolve

import (
	"sort"
	"strings"

	"github.com/jward/apiscope/internal/syntax"
)

// ImportSet is the set of import paths declared by one file, unquoted.
type ImportSet map[string]struct{}

// Has reports whether p is in the set.
func (s ImportSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the paths in lexical order.
func (s ImportSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Imports returns the import paths declared under root. Every double quote
// is removed from the literal, not only the surrounding pair. Import nodes
// without a literal are skipped.
func Imports(root syntax.Node) ImportSet {
	set := make(ImportSet)
	for _, n := range syntax.IndexOf(root, syntax.KindImportValue)[syntax.KindImportValue] {
		lit := n.LastChild()
		if !lit.Valid() {
			continue
		}
		set[strings.ReplaceAll(lit.Text(), `"`, "")] = struct{}{}
	}
	return set
}
