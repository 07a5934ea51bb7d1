package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	c, err := Parse(strings.NewReader(`
content_roots: [api, shared]
skip_dirs: [gen]
import_match: relative
max_depth: 8
rules_dir: rules
go_dirs: [internal/handler]
db: index.db
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "shared"}, c.ContentRoots)
	assert.Equal(t, []string{"gen"}, c.SkipDirs)
	assert.Equal(t, MatchRelative, c.ImportMatch)
	assert.Equal(t, 8, c.MaxDepth)
	assert.Equal(t, "rules", c.RulesDir)
	assert.Equal(t, []string{"internal/handler"}, c.GoDirs)
	assert.Equal(t, "index.db", c.DB)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	c, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, MatchSuffix, c.ImportMatch)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "roots: [a]\n", "field roots not found"},
		{"bad mode", "import_match: fuzzy\n", "unknown mode"},
		{"negative depth", "max_depth: -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("content_roots: [api, /abs]\ngo_dirs: [svc]\nrules_dir: lint\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir)
	assert.Equal(t, []string{filepath.Join(dir, "api"), "/abs"}, c.ContentRoots)
	assert.Equal(t, []string{filepath.Join(dir, "svc")}, c.GoDirs)
	assert.Equal(t, filepath.Join(dir, "lint"), c.RulesDir)
	assert.Equal(t, filepath.Join(dir, ".apiscope.db"), c.DB)
}

func TestLoad_DefaultsContentRootToConfigDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("skip_dirs: [gen]\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, c.ContentRoots)
}

func TestFind_WalksUp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("import_match: relative\n"), 0o644))
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	c, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, MatchRelative, c.ImportMatch)
	assert.Equal(t, dir, c.Dir)
}

func TestDefault(t *testing.T) {
	t.Parallel()
	c := Default("/proj")
	assert.Equal(t, []string{"/proj"}, c.ContentRoots)
	assert.Equal(t, MatchSuffix, c.ImportMatch)
	assert.Equal(t, "/proj/.apiscope.db", c.DB)
	assert.Empty(t, c.Dir)
}
