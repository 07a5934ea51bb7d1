package workspace

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem is the directory listing and file reading a Workspace needs.
// Paths are absolute.
type FileSystem interface {
	ReadDir(dir string) ([]fs.DirEntry, error)
	ReadFile(path string) ([]byte, error)
}

// OSFileSystem reads from the local disk.
type OSFileSystem struct{}

func (OSFileSystem) ReadDir(dir string) ([]fs.DirEntry, error) { return os.ReadDir(dir) }
func (OSFileSystem) ReadFile(path string) ([]byte, error)      { return os.ReadFile(path) }

// FSAdapter exposes an fs.FS (for example fstest.MapFS or an embed.FS) as a
// FileSystem. The absolute path "/a/b.api" maps to "a/b.api" inside FS.
type FSAdapter struct {
	FS fs.FS
}

func (a FSAdapter) name(p string) string {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if p == "" {
		return "."
	}
	return p
}

func (a FSAdapter) ReadDir(dir string) ([]fs.DirEntry, error) {
	return fs.ReadDir(a.FS, a.name(dir))
}

func (a FSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(a.FS, a.name(path))
}

// IsSchemaFile reports whether path names an .api schema file.
func IsSchemaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".api")
}
