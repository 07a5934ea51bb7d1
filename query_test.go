package apiscope

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexedEngine(t *testing.T, root string, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{
		WithContentRoots(root),
		WithStore(filepath.Join(t.TempDir(), "index.db")),
		WithLogOutput(io.Discard),
	}, opts...)
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	return e
}

func filePaths(files []*File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestIndexDirectory(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		dir := projectDir(t)
		e := newIndexedEngine(t, dir, WithParallel(parallel))

		files, err := e.Query().Files()
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "order", "order.api"),
			filepath.Join(dir, "shared", "types.api"),
			filepath.Join(dir, "user", "user.api"),
		}, filePaths(files), "parallel=%v", parallel)

		counts := map[string]int{}
		for _, f := range files {
			assert.Equal(t, "v1", f.Syntax)
			assert.Zero(t, f.ErrorCount)
			counts[filepath.Base(f.Path)] = f.DeclCount
		}
		assert.Equal(t, map[string]int{"order.api": 6, "types.api": 2, "user.api": 6}, counts)
	}
}

func TestIndexFiles_SkipsUnchanged(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	before, err := e.Query().Files()
	require.NoError(t, err)
	require.NoError(t, e.IndexDirectory(context.Background(), dir))
	after, err := e.Query().Files()
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID, before[i].Path)
	}
}

func TestIndexFiles_ReindexesChanged(t *testing.T) {
	dir := copyProject(t)
	e := newIndexedEngine(t, dir)
	types := filepath.Join(dir, "shared", "types.api")

	require.NoError(t, os.WriteFile(types, []byte("syntax = \"v2\"\n\ntype User {}\ntype Role {}\ntype Team {}\n"), 0o644))
	require.NoError(t, e.IndexFiles(context.Background(), []string{types}))

	f, err := e.Query().File(types)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "v2", f.Syntax)
	assert.Equal(t, 3, f.DeclCount)

	name := "Team"
	res, err := e.Query().Declarations(DeclarationFilter{Name: &name}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	assert.Equal(t, types, res.Items[0].FilePath)
}

func TestIndexDirectory_PrunesDeleted(t *testing.T) {
	dir := copyProject(t)
	e := newIndexedEngine(t, dir)

	require.NoError(t, os.Remove(filepath.Join(dir, "order", "order.api")))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))

	files, err := e.Query().Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "shared", "types.api"),
		filepath.Join(dir, "user", "user.api"),
	}, filePaths(files))
}

func TestIndexFiles_CollectsErrors(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	err := e.IndexFiles(context.Background(), []string{
		filepath.Join(dir, "missing.api"),
		filepath.Join(dir, "user", "user.api"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")
}

func TestIndexFiles_NoStore(t *testing.T) {
	e := newProjectEngine(t)
	require.ErrorIs(t, e.IndexFiles(context.Background(), e.SchemaFiles()), ErrNoStore)
	require.ErrorIs(t, e.IndexDirectory(context.Background(), projectDir(t)), ErrNoStore)
}

func TestQuery_NoStore(t *testing.T) {
	e := newProjectEngine(t)
	q := e.Query()

	_, err := q.Files()
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = q.Dependents("x.api")
	assert.ErrorIs(t, err, ErrNoStore)
	_, _, err = q.LastIndexed()
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestQuery_Dependencies(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	deps, err := e.Query().Dependencies(filepath.Join(dir, "order", "order.api"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "shared", "types.api"),
		filepath.Join(dir, "user", "user.api"),
	}, filePaths(deps))

	deps, err = e.Query().Dependencies(filepath.Join(dir, "shared", "types.api"))
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestQuery_DependentsAndAffected(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)
	q := e.Query()

	dependents, err := q.Dependents(filepath.Join(dir, "user", "user.api"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "order", "order.api")}, filePaths(dependents))

	affected, err := q.Affected(filepath.Join(dir, "shared", "types.api"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "order", "order.api"),
		filepath.Join(dir, "user", "user.api"),
	}, filePaths(affected))

	affected, err = q.Affected(filepath.Join(dir, "order", "order.api"))
	require.NoError(t, err)
	assert.Empty(t, affected)
}

func TestQuery_Declarations(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	res, err := e.Query().Declarations(
		DeclarationFilter{Kinds: []string{"structNameId"}},
		Sort{Field: SortByName},
		Pagination{},
	)
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)

	var names []string
	for _, d := range res.Items {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Item", "LoginReq", "LoginResp", "Order", "Role", "User"}, names)
}

func TestQuery_DeclarationsPaged(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	res, err := e.Query().Declarations(
		DeclarationFilter{Kinds: []string{"structNameId"}},
		Sort{Field: SortByName, Order: Desc},
		Pagination{Offset: 1, Limit: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Role", res.Items[0].Name)
	assert.Equal(t, "Order", res.Items[1].Name)
}

func TestQuery_DeclarationsByPathPrefix(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)

	prefix := filepath.Join(dir, "shared")
	res, err := e.Query().Declarations(DeclarationFilter{PathPrefix: &prefix}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
}

func TestQuery_Routes(t *testing.T) {
	dir := projectDir(t)
	e := newIndexedEngine(t, dir)
	q := e.Query()

	routes, err := q.Routes(RouteFilter{})
	require.NoError(t, err)
	require.Len(t, routes, 4)
	assert.Equal(t, "/order", routes[0].Path)

	routes, err = q.Routes(RouteFilter{Service: "user-api", Method: "GET"})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "GetUser", routes[0].Handler)
	assert.Equal(t, "User", routes[0].Response)

	routes, err = q.Routes(RouteFilter{Handler: "Login"})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "LoginReq", routes[0].Request)
	assert.Equal(t, "LoginResp", routes[0].Response)
}

func TestQuery_DuplicateDeclarations(t *testing.T) {
	e := newIndexedEngine(t, brokenDir(t))

	dups, err := e.Query().DuplicateDeclarations()
	require.NoError(t, err)

	var names []string
	for _, d := range dups {
		names = append(names, d.Kind+":"+d.Name)
		assert.Equal(t, 2, d.Count)
	}
	assert.ElementsMatch(t, []string{"structNameId:Account", "handlerValue:GetAccount", "httpRoute:GET /account"}, names)
}

func TestQuery_LastIndexed(t *testing.T) {
	e := newIndexedEngine(t, projectDir(t))

	ts, ok, err := e.Query().LastIndexed()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, ts.IsZero())
}
