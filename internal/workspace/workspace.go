// Package workspace is the project and file-system side of resolution: it
// knows the content roots of a project, lists directories, classifies schema
// files and keeps parsed files keyed by content hash.
package workspace

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jward/apiscope/internal/parser"
	"github.com/jward/apiscope/internal/syntax"
)

// SchemaFile is one parsed .api file.
type SchemaFile struct {
	Path   string
	Hash   string
	Root   syntax.Node
	Errors parser.ErrorList
}

// skipDirs are never descended into when listing a project.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
}

// Workspace serves files of one project. Parsed files are cached by path and
// invalidated when the content hash changes, so repeated loads of unchanged
// content return the same tree.
type Workspace struct {
	fsys  FileSystem
	roots []string
	skip  map[string]bool

	mu    sync.Mutex
	files map[string]*SchemaFile
	trees map[*syntax.Tree]*SchemaFile
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithSkipDirs adds directory names that are never walked.
func WithSkipDirs(names ...string) Option {
	return func(w *Workspace) {
		for _, n := range names {
			w.skip[n] = true
		}
	}
}

// New creates a Workspace over fsys with the given content roots.
func New(fsys FileSystem, contentRoots []string, opts ...Option) *Workspace {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	w := &Workspace{
		fsys:  fsys,
		skip:  make(map[string]bool, len(skipDirs)),
		files: make(map[string]*SchemaFile),
		trees: make(map[*syntax.Tree]*SchemaFile),
	}
	for n := range skipDirs {
		w.skip[n] = true
	}
	for _, r := range contentRoots {
		w.roots = append(w.roots, filepath.Clean(r))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ContentRoots returns the configured top-level source directories.
func (w *Workspace) ContentRoots() []string {
	return append([]string(nil), w.roots...)
}

// List returns the schema files and the walkable subdirectories of dir, each
// sorted lexically.
func (w *Workspace) List(dir string) (files, subdirs []string, err error) {
	entries, err := w.fsys.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		if e.IsDir() {
			if strings.HasPrefix(name, ".") || w.skip[name] {
				continue
			}
			subdirs = append(subdirs, full)
			continue
		}
		if IsSchemaFile(name) {
			files = append(files, full)
		}
	}
	sort.Strings(files)
	sort.Strings(subdirs)
	return files, subdirs, nil
}

// Load returns the parsed file at path, parsing it if it is not cached or its
// content changed. Syntax errors do not fail the load; they are kept on the
// returned SchemaFile.
func (w *Workspace) Load(path string) (*SchemaFile, error) {
	path = filepath.Clean(path)
	src, err := w.fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(src))

	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.files[path]; ok && f.Hash == hash {
		return f, nil
	}

	tree, perr := parser.Parse(path, src)
	f := &SchemaFile{Path: path, Hash: hash, Root: tree.Root()}
	if perr != nil {
		list, ok := perr.(parser.ErrorList)
		if !ok {
			return nil, fmt.Errorf("parse %s: %w", path, perr)
		}
		f.Errors = list
	}
	if old, ok := w.files[path]; ok {
		delete(w.trees, old.Root.Tree())
	}
	w.files[path] = f
	w.trees[tree] = f
	return f, nil
}

// FileOf returns the loaded file that owns n.
func (w *Workspace) FileOf(n syntax.Node) (*SchemaFile, bool) {
	if !n.Valid() {
		return nil, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.trees[n.Tree()]
	return f, ok
}

// Invalidate drops the cached parse of path.
func (w *Workspace) Invalidate(path string) {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if f, ok := w.files[path]; ok {
		delete(w.trees, f.Root.Tree())
		delete(w.files, path)
	}
}

// SchemaFiles lists every schema file under the content roots. Roots that
// cannot be read are skipped.
func (w *Workspace) SchemaFiles() []string {
	var out []string
	seen := make(map[string]bool)
	for _, root := range w.roots {
		stack := []string{root}
		for len(stack) > 0 {
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			files, subdirs, err := w.List(dir)
			if err != nil {
				continue
			}
			for _, f := range files {
				if !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}
	return out
}
