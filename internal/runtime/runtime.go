// Package runtime runs Risor rule scripts against the facts of one schema
// file. Scripts see the file through host functions and report findings
// with report(line, col, message).
package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/apiscope/internal/store"
)

// ScriptExt is the extension of rule scripts.
const ScriptExt = ".risor"

// Runtime embeds a Risor VM and provides schema facts and optional Store
// access to rule scripts.
type Runtime struct {
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logOut     io.Writer
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogOutput sets where the script log object writes. Defaults to stderr.
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(r *Runtime) {
		r.logOut = w
	}
}

// NewRuntime creates a Runtime wired to the given Store and scripts directory.
// The Store may be nil, in which case the store-backed host functions are
// not defined.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logOut:     os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules lists the rule scripts at the top level of the Runtime's script
// source, sorted by name.
func (r *Runtime) Rules() ([]string, error) {
	var entries []fs.DirEntry
	var err error
	switch {
	case r.fsys != nil:
		entries, err = fs.ReadDir(r.fsys, ".")
	case r.scriptsDir != "":
		entries, err = os.ReadDir(r.scriptsDir)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: listing rules: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ScriptExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RuleName returns the rule identifier for a script path, e.g.
// "missing-handler.risor" -> "missing-handler".
func RuleName(scriptPath string) string {
	return strings.TrimSuffix(filepath.Base(scriptPath), ScriptExt)
}

// CheckFile runs every rule against facts. Findings of all rules are
// returned together; a failing rule does not stop the others and its error
// is returned as a *RuleError.
func (r *Runtime) CheckFile(ctx context.Context, facts *FileFacts) ([]Finding, []error) {
	names, err := r.Rules()
	if err != nil {
		return nil, []error{err}
	}
	var findings []Finding
	var errs []error
	for _, name := range names {
		got, err := r.RunRule(ctx, name, facts)
		if err != nil {
			errs = append(errs, &RuleError{Rule: RuleName(name), Err: err})
			continue
		}
		findings = append(findings, got...)
	}
	return findings, errs
}

// RunRule runs one rule script against facts and returns what it reported.
func (r *Runtime) RunRule(ctx context.Context, scriptPath string, facts *FileFacts) ([]Finding, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	rep := &reporter{rule: RuleName(scriptPath)}
	if err := r.eval(ctx, src, scriptPath, factGlobals(facts, rep)); err != nil {
		return nil, err
	}
	return rep.findings, nil
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{ScriptExt},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{ScriptExt},
		})
	}
	return nil
}

// LoadScript reads a rule script and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on it. Otherwise, uses
// os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{prefix: "apiscope", w: r.logOut}),
	}

	// Store-backed lookups across the whole index (nil in most tests).
	if r.store != nil {
		globals["db_query"] = makeDBQueryFn(r.store)
		globals["indexed_declarations"] = makeIndexedDeclarationsFn(r.store)
		globals["importers_of"] = makeImportersOfFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
