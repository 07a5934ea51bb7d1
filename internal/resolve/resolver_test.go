package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/apiscope/internal/syntax"
)

func TestResolve_LocalShadowsImport(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api":     "import \"b.api\"\n\ntype Foo struct {}\n\ntype Bar {\n\tF Foo\n}\n",
		"/proj/lib/b.api": "type Foo struct {}\n",
	}, "/proj")
	r := New(ws)
	root := load(t, ws, "/proj/a.api")

	refs := refsNamed(root, "Foo")
	require.Len(t, refs, 1)
	decl, ok := r.Resolve(refs[0])
	require.True(t, ok)
	assert.Equal(t, "/proj/a.api", decl.Tree().Path())
	assert.Equal(t, syntax.KindStructNameID, decl.Kind())
	assert.Equal(t, "Foo", decl.Key())
}

func TestResolve_FallsBackToImports(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/api/user.api":         "import \"shared/types.api\"\n\ntype Req {\n\tU User\n}\n",
		"/proj/api/shared/types.api": "type (\n\tUser {\n\t\tName string\n\t}\n)\n",
	}, "/proj")
	r := New(ws)
	root := load(t, ws, "/proj/api/user.api")

	decl, ok := r.Resolve(refsNamed(root, "User")[0])
	require.True(t, ok)
	assert.Equal(t, "/proj/api/shared/types.api", decl.Tree().Path())
	assert.Equal(t, syntax.KindStructType, decl.Parent().Kind())
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "import \"b.api\"\ntype X {\n\tY Y\n}\n",
		"/proj/b.api": "type Y {}\n",
	}, "/proj")
	r := New(ws)
	ref := refsNamed(load(t, ws, "/proj/a.api"), "Y")[0]

	first, ok := r.Resolve(ref)
	require.True(t, ok)
	second, ok := r.Resolve(ref)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestResolve_NoImportsNoWalk(t *testing.T) {
	t.Parallel()
	ws, cfs := newProject(t, map[string]string{
		"/proj/a.api":     "type X {\n\tM Missing\n}\n",
		"/proj/sub/m.api": "type Missing {}\n",
	}, "/proj")
	r := New(ws)
	root := load(t, ws, "/proj/a.api")
	before := cfs.readDirs.Load()

	_, ok := r.Resolve(refsNamed(root, "Missing")[0])
	assert.False(t, ok)
	assert.Equal(t, before, cfs.readDirs.Load())
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "import \"b.api\"\ntype X {\n\tM Missing\n}\n",
		"/proj/b.api": "type Other {}\n",
	}, "/proj")
	_, ok := New(ws).Resolve(refsNamed(load(t, ws, "/proj/a.api"), "Missing")[0])
	assert.False(t, ok)
}

func TestResolve_OnlyImportedFilesAreSearched(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api":   "import \"b.api\"\ntype X {\n\tZ Z\n}\n",
		"/proj/b.api":   "type Y {}\n",
		"/proj/c/z.api": "type Z {}\n",
	}, "/proj")
	_, ok := New(ws).Resolve(refsNamed(load(t, ws, "/proj/a.api"), "Z")[0])
	assert.False(t, ok)
}

func TestResolve_SingleHop(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "import \"b.api\"\ntype X {\n\tC C\n}\n",
		"/proj/b.api": "import \"c.api\"\ntype B {}\n",
		"/proj/c.api": "type C {}\n",
	}, "/proj")
	_, ok := New(ws).Resolve(refsNamed(load(t, ws, "/proj/a.api"), "C")[0])
	assert.False(t, ok, "declarations two imports away are not visible")
}

func TestResolve_PatternOrder(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "type Foo struct {}\ntype Foo = Bar\ntype Bar {}\n",
	}, "/proj")
	root := load(t, ws, "/proj/a.api")

	decl, ok := New(ws).ResolveName(root, "Foo")
	require.True(t, ok)
	assert.Equal(t, syntax.KindTypeAlias, decl.Parent().Kind(), "alias pattern is tried first")
}

func TestResolve_AllFourPatterns(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "type A B\ntype B struct {}\ntype (\n\tC B\n\tD {}\n)\n",
	}, "/proj")
	root := load(t, ws, "/proj/a.api")

	want := map[string]syntax.Kind{
		"A": syntax.KindTypeAlias,
		"B": syntax.KindStructType,
		"C": syntax.KindTypeGroupAlias,
		"D": syntax.KindStructType,
	}
	for name, parent := range want {
		decl, ok := ResolveLocal(Scope{Root: root}, name)
		require.True(t, ok, name)
		assert.Equal(t, parent, decl.Parent().Kind(), name)
	}
}

func TestResolve_MissingContentRootSkipped(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/a.api": "import \"b.api\"\ntype X {\n\tY Y\n}\n",
		"/proj/b.api": "type Y {}\n",
	}, "/gone", "/proj")
	_, ok := New(ws).Resolve(refsNamed(load(t, ws, "/proj/a.api"), "Y")[0])
	assert.True(t, ok)
}

func TestResolve_RelativeMatcher(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"/proj/a/main.api":  "import \"types.api\"\ntype X {\n\tY Y\n}\n",
		"/proj/a/types.api": "type Other {}\n",
		"/proj/b/types.api": "type Y {}\n",
	}

	ws, _ := newProject(t, files, "/proj")
	ref := refsNamed(load(t, ws, "/proj/a/main.api"), "Y")[0]
	decl, ok := New(ws).Resolve(ref)
	require.True(t, ok, "suffix matching reaches /proj/b/types.api")
	assert.Equal(t, "/proj/b/types.api", decl.Tree().Path())

	ws, _ = newProject(t, files, "/proj")
	ref = refsNamed(load(t, ws, "/proj/a/main.api"), "Y")[0]
	_, ok = New(ws, WithMatcher(RelativeMatcher)).Resolve(ref)
	assert.False(t, ok)
}

func TestResolve_InvalidNode(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, nil, "/proj")
	_, ok := New(ws).Resolve(syntax.Node{})
	assert.False(t, ok)
}

func TestRootsForImportsOf(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, map[string]string{
		"/proj/main.api": "import (\n\t\"a.api\"\n\t\"b.api\"\n)\ntype M {}\n",
		"/proj/x/a.api":  "type A {}\n",
		"/proj/y/b.api":  "type B {}\n",
		"/proj/y/c.api":  "type C {}\n",
	}, "/proj", "/proj/y")
	r := New(ws)
	root := load(t, ws, "/proj/main.api")
	elem := syntax.IndexOf(root, syntax.KindStructNameID)[syntax.KindStructNameID][0]

	got := r.RootsForImportsOf(elem)
	assert.Equal(t, []string{"/proj/x/a.api", "/proj/y/b.api"}, rootPaths(got))
}

func TestRootsForImportsOf_NoRoot(t *testing.T) {
	t.Parallel()
	ws, _ := newProject(t, nil, "/proj")
	assert.Empty(t, New(ws).RootsForImportsOf(syntax.Node{}))
}
