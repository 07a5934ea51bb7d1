package runtime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/apiscope/internal/store"
)

var sampleFacts = &FileFacts{
	Path:   "/proj/user.api",
	Syntax: "v1",
	Declarations: []Declaration{
		{Name: "User", Kind: "structNameId", Line: 3, Col: 6},
		{Name: "GetUser", Kind: "handlerValue", Line: 9, Col: 11},
	},
	Imports: []string{"shared/types.api"},
	Routes: []Route{
		{Service: "user-api", Method: "get", Path: "/user/:id", Handler: "GetUser", Response: "User", Line: 10, Col: 3},
	},
}

func runRuleSource(t *testing.T, src string, facts *FileFacts) ([]Finding, error) {
	t.Helper()
	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{
		"rule.risor": &fstest.MapFile{Data: []byte(src)},
	}))
	return rt.RunRule(context.Background(), "rule.risor", facts)
}

// --- Fact globals ---

func TestFactGlobals(t *testing.T) {
	t.Parallel()
	script := `
assert(file_path == "/proj/user.api", "file_path")
assert(syntax_version() == "v1", "syntax")
decls := declarations()
assert(len(decls) == 2, "decl count")
assert(decls[0]["name"] == "User", "decl name")
assert(decls[1]["kind"] == "handlerValue", "decl kind")
assert(imports()[0] == "shared/types.api", "imports")
rs := routes()
assert(rs[0]["service"] == "user-api", "service")
assert(rs[0]["response"] == "User", "response")
assert(rs[0]["line"] == 10, "line")
`
	got, err := runRuleSource(t, script, sampleFacts)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReport_CollectsFindings(t *testing.T) {
	t.Parallel()
	script := `
for _, d := range declarations() {
    report(d["line"], d["col"], "saw " + d["name"])
}
`
	got, err := runRuleSource(t, script, sampleFacts)
	require.NoError(t, err)
	assert.Equal(t, []Finding{
		{Rule: "rule", Line: 3, Col: 6, Message: "saw User"},
		{Rule: "rule", Line: 9, Col: 11, Message: "saw GetUser"},
	}, got)
}

func TestReport_BadArguments(t *testing.T) {
	t.Parallel()
	for name, script := range map[string]string{
		"arity":   `report(1, 2)`,
		"line":    `report("one", 1, "x")`,
		"message": `report(1, 1, 42)`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := runRuleSource(t, script, sampleFacts)
			assert.Error(t, err)
		})
	}
}

func TestFactGlobals_EmptyFile(t *testing.T) {
	t.Parallel()
	script := `
assert(len(declarations()) == 0, "no decls")
assert(len(imports()) == 0, "no imports")
assert(len(routes()) == 0, "no routes")
assert(syntax_version() == "", "no syntax")
`
	_, err := runRuleSource(t, script, &FileFacts{Path: "/empty.api"})
	require.NoError(t, err)
}

// --- Rule discovery and CheckFile ---

func TestRules_FromFS(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{
		"b.risor":     &fstest.MapFile{Data: []byte("")},
		"a.risor":     &fstest.MapFile{Data: []byte("")},
		"notes.md":    &fstest.MapFile{Data: []byte("")},
		"lib/x.risor": &fstest.MapFile{Data: []byte("")},
	}))
	names, err := rt.Rules()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.risor", "b.risor"}, names)
}

func TestRules_FromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.risor"), []byte(""), 0o644))
	names, err := NewRuntime(nil, dir).Rules()
	require.NoError(t, err)
	assert.Equal(t, []string{"custom.risor"}, names)
}

func TestRules_NoSource(t *testing.T) {
	t.Parallel()
	names, err := NewRuntime(nil, "").Rules()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCheckFile_FailingRuleDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{
		"a-broken.risor": &fstest.MapFile{Data: []byte(`undefined_fn()`)},
		"b-ok.risor":     &fstest.MapFile{Data: []byte(`report(1, 1, "hello")`)},
	}))

	findings, errs := rt.CheckFile(context.Background(), sampleFacts)
	require.Len(t, findings, 1)
	assert.Equal(t, "b-ok", findings[0].Rule)
	require.Len(t, errs, 1)
	var ruleErr *RuleError
	require.True(t, errors.As(errs[0], &ruleErr))
	assert.Equal(t, "a-broken", ruleErr.Rule)
}

func TestRuleName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "missing-handler", RuleName("rules/missing-handler.risor"))
	assert.Equal(t, "x", RuleName("x"))
}

// --- Script loading (kept from the generic runner) ---

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, t.TempDir())
	err := rt.RunScript(context.Background(), "nope.risor", nil)
	assert.Error(t, err)
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{
		"lint/a.risor": &fstest.MapFile{Data: []byte("x := 1")},
	}))
	src, err := rt.LoadScript("/lint/a.risor")
	require.NoError(t, err)
	assert.Equal(t, "x := 1", src)
}

func TestLoadScript_FromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.risor"), []byte("y := 2"), 0o644))
	src, err := NewRuntime(nil, dir).LoadScript("a.risor")
	require.NoError(t, err)
	assert.Equal(t, "y := 2", src)
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	rt := NewRuntime(nil, "", WithLogOutput(&out), WithRuntimeFS(fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func do_log(msg) {
	log.Info(msg)
}
`)},
	}))

	err := rt.RunSource(context.Background(), "import helper\nhelper.do_log(\"test message\")", nil)
	require.NoError(t, err)
	assert.Equal(t, "[apiscope] INFO: test message\n", out.String())
}

func TestLog_Levels(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	rt := NewRuntime(nil, "", WithLogOutput(&out))
	require.NoError(t, rt.RunSource(context.Background(), "log.Warn(\"w\")\nlog.Error(\"e\")", nil))
	assert.Equal(t, "[apiscope] WARN: w\n[apiscope] ERROR: e\n", out.String())
}

// --- Store-backed functions ---

func newStoreRuntime(t *testing.T) (*Runtime, *store.Store) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	f := &store.File{Path: "/p/user.api", Hash: "h"}
	_, err = s.InsertFile(f)
	require.NoError(t, err)
	_, err = s.InsertDeclaration(&store.Declaration{FileID: f.ID, Name: "User", Kind: "structNameId", Line: 2, Col: 6})
	require.NoError(t, err)
	_, err = s.InsertImport(&store.Import{FileID: f.ID, Source: "types.api"})
	require.NoError(t, err)
	return NewRuntime(s, ""), s
}

func TestStoreFuncs(t *testing.T) {
	t.Parallel()
	rt, _ := newStoreRuntime(t)
	script := `
ds := indexed_declarations("User")
assert(len(ds) == 1, "one declaration")
assert(ds[0]["kind"] == "structNameId", "kind")
assert(ds[0]["line"] == 2, "line")

imps := importers_of("/p/shared/types.api")
assert(len(imps) == 1, "one importer")
assert(imps[0] == "/p/user.api", "importer path")

rows := db_query("SELECT name FROM declarations WHERE kind = ?", "structNameId")
assert(rows[0]["name"] == "User", "db_query")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestDBQuery_RejectsWrites(t *testing.T) {
	t.Parallel()
	rt, _ := newStoreRuntime(t)
	err := rt.RunSource(context.Background(), `db_query("DELETE FROM files")`, nil)
	assert.Error(t, err)
}

func TestStoreFuncs_AbsentWithoutStore(t *testing.T) {
	t.Parallel()
	err := NewRuntime(nil, "").RunSource(context.Background(), `indexed_declarations("User")`, nil)
	assert.Error(t, err)
}
