package apiscope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/apiscope/internal/resolve"
	apirt "github.com/jward/apiscope/internal/runtime"
	"github.com/jward/apiscope/internal/store"
	"github.com/jward/apiscope/internal/syntax"
	"github.com/jward/apiscope/internal/workspace"
)

// Import match modes accepted by WithImportMatch.
const (
	ImportMatchSuffix   = "suffix"
	ImportMatchRelative = "relative"
)

// ErrNoStore is returned by index and query operations on an Engine created
// without WithStore.
var ErrNoStore = errors.New("apiscope: no index store configured")

// Engine ties a project's schema files to resolution, checks, rule scripts
// and the optional persisted index.
type Engine struct {
	ws       *workspace.Workspace
	resolver *resolve.Resolver
	store    *store.Store
	rules    []*apirt.Runtime

	roots       []string
	fsys        workspace.FileSystem
	dbPath      string
	rulesFS     []fs.FS
	rulesDirs   []string
	importMatch string
	maxDepth    int
	skipDirs    []string
	logOut      io.Writer

	// useParallel enables the worker pool in Check and IndexFiles.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithContentRoots sets the directories searched for imported files.
func WithContentRoots(roots ...string) Option {
	return func(e *Engine) {
		e.roots = append(e.roots, roots...)
	}
}

// WithFileSystem replaces the local disk, e.g. with a
// workspace.FSAdapter over an fstest.MapFS.
func WithFileSystem(fsys FileSystem) Option {
	return func(e *Engine) {
		e.fsys = fsys
	}
}

// WithStore enables the persisted SQLite index at dbPath.
func WithStore(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithRules adds the rule scripts at the top level of fsys.
func WithRules(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = append(e.rulesFS, fsys)
	}
}

// WithRulesDir adds the rule scripts in a directory on disk.
func WithRulesDir(dir string) Option {
	return func(e *Engine) {
		e.rulesDirs = append(e.rulesDirs, dir)
	}
}

// WithImportMatch selects how import paths are matched against candidate
// files: ImportMatchSuffix (default) or ImportMatchRelative.
func WithImportMatch(mode string) Option {
	return func(e *Engine) {
		e.importMatch = mode
	}
}

// WithMaxDepth bounds directory recursion during import resolution.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithSkipDirs adds directory names never walked.
func WithSkipDirs(names ...string) Option {
	return func(e *Engine) {
		e.skipDirs = append(e.skipDirs, names...)
	}
}

// WithParallel controls the worker pool. When true (default), Check and
// IndexFiles process files concurrently. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithLogOutput sets where rule script logging goes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.logOut = w
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		importMatch: ImportMatchSuffix,
		logOut:      os.Stderr,
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	var resolveOpts []resolve.Option
	switch e.importMatch {
	case ImportMatchSuffix:
	case ImportMatchRelative:
		resolveOpts = append(resolveOpts, resolve.WithMatcher(resolve.RelativeMatcher))
	default:
		return nil, fmt.Errorf("apiscope: unknown import match mode %q", e.importMatch)
	}
	if e.maxDepth > 0 {
		resolveOpts = append(resolveOpts, resolve.WithMaxDepth(e.maxDepth))
	}

	e.ws = workspace.New(e.fsys, e.roots, workspace.WithSkipDirs(e.skipDirs...))
	e.resolver = resolve.New(e.ws, resolveOpts...)

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("apiscope: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("apiscope: migrate: %w", err)
		}
		e.store = s
	}

	rtOpts := []apirt.RuntimeOption{apirt.WithLogOutput(e.logOut)}
	for _, fsys := range e.rulesFS {
		e.rules = append(e.rules, apirt.NewRuntime(e.store, "", append(rtOpts, apirt.WithRuntimeFS(fsys))...))
	}
	for _, dir := range e.rulesDirs {
		e.rules = append(e.rules, apirt.NewRuntime(e.store, dir, rtOpts...))
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the index Store, or nil without WithStore.
func (e *Engine) Store() *store.Store {
	return e.store
}

// ContentRoots returns the configured content roots.
func (e *Engine) ContentRoots() []string {
	return e.ws.ContentRoots()
}

// Load parses the file at path, reusing the cached tree if the content is
// unchanged. Syntax errors are kept on the returned file.
func (e *Engine) Load(path string) (*SchemaFile, error) {
	f, err := e.ws.Load(path)
	if err != nil {
		return nil, fmt.Errorf("apiscope: load: %w", err)
	}
	return f, nil
}

// SchemaFiles lists the schema files under the content roots.
func (e *Engine) SchemaFiles() []string {
	return e.ws.SchemaFiles()
}

// Resolve finds the declaration a reference names: first in the reference's
// own file, then in the files its file imports.
func (e *Engine) Resolve(ref Node) (Node, bool) {
	return e.resolver.Resolve(ref)
}

// ResolveName resolves name as seen from the file at path.
func (e *Engine) ResolveName(path, name string) (Node, bool, error) {
	f, err := e.Load(path)
	if err != nil {
		return Node{}, false, err
	}
	n, ok := e.resolver.ResolveName(f.Root, name)
	return n, ok, nil
}

// Duplicates reports the colliding declarations of the file at path,
// grouped by kind.
func (e *Engine) Duplicates(path string) (map[Kind][]DuplicateGroup, error) {
	f, err := e.Load(path)
	if err != nil {
		return nil, err
	}
	return resolve.FindDuplicates(resolve.DeclarationIndex(f.Root)), nil
}

// Imports returns the import set of the file at path.
func (e *Engine) Imports(path string) (ImportSet, error) {
	f, err := e.Load(path)
	if err != nil {
		return nil, err
	}
	return resolve.Imports(f.Root), nil
}

// RootsImporting returns the roots of every file matched by the imports of
// the file at path, across all content roots.
func (e *Engine) RootsImporting(path string) ([]Node, error) {
	f, err := e.Load(path)
	if err != nil {
		return nil, err
	}
	return e.resolver.RootsForImportsOf(f.Root), nil
}

// FileOf returns the path of the file that owns n.
func (e *Engine) FileOf(n Node) (string, bool) {
	f, ok := e.ws.FileOf(n)
	if !ok {
		return "", false
	}
	return f.Path, true
}

// Query returns a new QueryBuilder over the index Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// IndexFiles persists declarations, imports and routes of the given schema
// files. Files whose content hash is unchanged since the last run are
// skipped. When WithParallel is enabled, files are extracted by a worker
// pool with batched SQLite writes.
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.store == nil {
		return ErrNoStore
	}
	var err error
	if e.useParallel {
		err = e.indexFilesParallel(ctx, paths)
	} else {
		err = e.indexFilesSerial(ctx, paths)
	}
	if serr := e.store.SetMetadata("last_indexed", time.Now().UTC().Format(time.RFC3339)); serr != nil && err == nil {
		err = serr
	}
	return err
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		if err := writeFacts(e.store, item.fileID, item.facts); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
			continue
		}
		if err := e.store.UpdateFileCounts(item.fileID, len(item.facts.Declarations), item.errCount); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// IndexDirectory indexes every schema file under root and drops index
// entries for files under root that no longer exist.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	if e.store == nil {
		return ErrNoStore
	}
	paths, err := e.listSchemaFiles(root)
	if err != nil {
		return err
	}
	if err := e.pruneMissing(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// listSchemaFiles walks root with the workspace's listing rules.
func (e *Engine) listSchemaFiles(root string) ([]string, error) {
	root = filepath.Clean(root)
	var out []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		files, subdirs, err := e.ws.List(dir)
		if err != nil {
			if dir == root {
				return nil, fmt.Errorf("apiscope: list %s: %w", root, err)
			}
			continue
		}
		out = append(out, files...)
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return out, nil
}

func (e *Engine) pruneMissing(root string, present []string) error {
	files, err := e.store.Files()
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	var stale []int64
	for _, f := range files {
		if len(f.Path) > len(prefix) && f.Path[:len(prefix)] == prefix && !keep[f.Path] {
			stale = append(stale, f.ID)
		}
	}
	return e.store.DeleteFiles(stale)
}

// indexItem is one changed file ready for extraction.
type indexItem struct {
	path     string
	fileID   int64
	errCount int
	facts    *apirt.FileFacts
}

// prepareFile loads the file, skips it if the index already has its hash,
// and otherwise replaces its file record.
func (e *Engine) prepareFile(path string) (indexItem, bool, error) {
	f, err := e.ws.Load(path)
	if err != nil {
		return indexItem{}, false, err
	}
	existing, err := e.store.FileByPath(f.Path)
	if err != nil {
		return indexItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == f.Hash {
		return indexItem{}, true, nil
	}
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return indexItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	facts := extractFacts(f.Path, f.Root)
	fileID, err := e.store.InsertFile(&store.File{
		Path:        f.Path,
		Hash:        f.Hash,
		Syntax:      facts.Syntax,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return indexItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return indexItem{path: f.Path, fileID: fileID, errCount: len(f.Errors), facts: facts}, false, nil
}

// writeFacts records facts for fileID through ds.
func writeFacts(ds store.DataStore, fileID int64, facts *apirt.FileFacts) error {
	for _, d := range facts.Declarations {
		if _, err := ds.InsertDeclaration(&store.Declaration{
			FileID: fileID, Name: d.Name, Kind: d.Kind, Line: d.Line, Col: d.Col,
		}); err != nil {
			return err
		}
	}
	for _, imp := range facts.Imports {
		if _, err := ds.InsertImport(&store.Import{FileID: fileID, Source: imp}); err != nil {
			return err
		}
	}
	for _, r := range facts.Routes {
		if _, err := ds.InsertRoute(&store.Route{
			FileID:   fileID,
			Service:  r.Service,
			Method:   r.Method,
			Path:     r.Path,
			Handler:  r.Handler,
			Request:  r.Request,
			Response: r.Response,
			Line:     r.Line,
			Col:      r.Col,
		}); err != nil {
			return err
		}
	}
	return nil
}

// nodeKindNoun names a declaration kind in messages.
func nodeKindNoun(k syntax.Kind) string {
	switch k {
	case syntax.KindStructNameID:
		return "type"
	case syntax.KindHandlerValue:
		return "handler"
	case syntax.KindHTTPRoute:
		return "route"
	}
	return k.String()
}
