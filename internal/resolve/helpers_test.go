package resolve

import (
	"io/fs"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/jward/apiscope/internal/syntax"
	"github.com/jward/apiscope/internal/workspace"
)

// countingFS records directory listings so tests can assert that no walk
// happened.
type countingFS struct {
	workspace.FileSystem
	readDirs atomic.Int64
}

func (c *countingFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	c.readDirs.Add(1)
	return c.FileSystem.ReadDir(dir)
}

// newProject builds an in-memory project. Keys of files are absolute paths.
func newProject(t *testing.T, files map[string]string, roots ...string) (*workspace.Workspace, *countingFS) {
	t.Helper()
	m := fstest.MapFS{}
	for path, src := range files {
		m[path[1:]] = &fstest.MapFile{Data: []byte(src)}
	}
	cfs := &countingFS{FileSystem: workspace.FSAdapter{FS: m}}
	return workspace.New(cfs, roots), cfs
}

func load(t *testing.T, ws *workspace.Workspace, path string) syntax.Node {
	t.Helper()
	f, err := ws.Load(path)
	require.NoError(t, err)
	require.Empty(t, f.Errors, "syntax errors in %s", path)
	return f.Root
}

// refsNamed returns the referenceId nodes under root whose name is name.
func refsNamed(root syntax.Node, name string) []syntax.Node {
	var out []syntax.Node
	for _, n := range syntax.IndexOf(root, syntax.KindReferenceID)[syntax.KindReferenceID] {
		if n.Key() == name {
			out = append(out, n)
		}
	}
	return out
}
