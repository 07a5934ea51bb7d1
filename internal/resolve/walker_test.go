package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/apiscope/internal/syntax"
)

func rootPaths(roots []syntax.Node) []string {
	var out []string
	for _, r := range roots {
		out = append(out, r.Tree().Path())
	}
	return out
}

var walkProject = map[string]string{
	"/proj/src/main.api":           "import \"shared/types.api\"\n",
	"/proj/src/shared/types.api":   "type User {}\n",
	"/proj/other/types.api":        "type User {}\n",
	"/proj/other/shared/types.api": "type Order {}\n",
	"/proj/other/readme.md":        "not a schema",
}

func TestFindRoots_SuffixMatch(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, walkProject, "/proj")
	w := NewWalker(ws, 0)

	got := w.FindRoots("/proj", SuffixMatcher(ImportSet{"shared/types.api": {}}))
	assert.Equal(t, []string{"/proj/other/shared/types.api", "/proj/src/shared/types.api"}, rootPaths(got))
}

func TestFindRoots_SuffixIsNotPathEquality(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, walkProject, "/proj")
	w := NewWalker(ws, 0)

	// A bare file name matches every file with that name, wherever it lives.
	got := w.FindRoots("/proj", SuffixMatcher(ImportSet{"types.api": {}}))
	assert.ElementsMatch(t,
		[]string{"/proj/other/types.api", "/proj/other/shared/types.api", "/proj/src/shared/types.api"},
		rootPaths(got))
}

func TestFindRoots_EmptyImportsMatchNothing(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, walkProject, "/proj")
	assert.Empty(t, NewWalker(ws, 0).FindRoots("/proj", SuffixMatcher(ImportSet{})))
}

func TestFindRoots_MissingDirectory(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, walkProject, "/proj")
	assert.Empty(t, NewWalker(ws, 0).FindRoots("/nope", SuffixMatcher(ImportSet{"types.api": {}})))
}

func TestFindRoots_DepthBound(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api":       "type A {}\n",
		"/proj/x/b.api":     "type B {}\n",
		"/proj/x/y/c.api":   "type C {}\n",
		"/proj/x/y/z/d.api": "type D {}\n",
	}, "/proj")
	m := MatcherFunc(func(string) bool { return true })

	got := NewWalker(ws, 1).FindRoots("/proj", m)
	assert.Equal(t, []string{"/proj/a.api", "/proj/x/b.api"}, rootPaths(got))

	got = NewWalker(ws, 0).FindRoots("/proj", m)
	assert.Len(t, got, 4)
}

func TestFindRoots_SkipsHiddenAndVendor(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/.git/a.api":   "type A {}\n",
		"/proj/vendor/b.api": "type B {}\n",
		"/proj/keep/c.api":   "type C {}\n",
	}, "/proj")
	got := NewWalker(ws, 0).FindRoots("/proj", MatcherFunc(func(string) bool { return true }))
	assert.Equal(t, []string{"/proj/keep/c.api"}, rootPaths(got))
}

func TestRelativeMatcher(t *testing.T) {
	t.Parallel()
	m := RelativeMatcher("/proj/src/main.api", ImportSet{"shared/types.api": {}, "/abs/x.api": {}})
	assert.True(t, m.Match("/proj/src/shared/types.api"))
	assert.False(t, m.Match("/proj/other/shared/types.api"))
	assert.True(t, m.Match("/abs/x.api"))
}
