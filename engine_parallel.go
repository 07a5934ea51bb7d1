package apiscope

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/apiscope/internal/golang"
	"github.com/jward/apiscope/internal/resolve"
	apirt "github.com/jward/apiscope/internal/runtime"
	"github.com/jward/apiscope/internal/store"
	"github.com/jward/apiscope/internal/syntax"
)

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Write facts into a per-file BatchedStore.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []indexItem
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel extraction ----
	type result struct {
		item  indexItem
		batch *store.BatchedStore
		err   error
	}
	results := make([]result, len(items))
	forEachParallel(ctx, len(items), func(i int) {
		batch := store.NewBatchedStore()
		err := writeFacts(batch, items[i].fileID, items[i].facts)
		results[i] = result{item: items[i], batch: batch, err: err}
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	// ---- Phase C: Serial commit ----
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			continue
		}
		if err := e.store.CommitBatch(res.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			continue
		}
		if err := e.store.UpdateFileCounts(res.item.fileID, len(res.item.facts.Declarations), res.item.errCount); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// forEachParallel calls fn for 0..n-1, on up to NumCPU goroutines when the
// Engine runs in parallel mode. Remaining work is dropped once ctx is done.
func forEachParallel(ctx context.Context, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	numWorkers := min(runtime.NumCPU(), n)

	workCh := make(chan int, n)
	for i := range n {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}

// Check runs the semantic checks on each file: syntax errors, duplicate
// declarations, unresolved type references and rule scripts. Diagnostics are
// returned sorted by path and position. The error is non-nil only when ctx
// is cancelled.
func (e *Engine) Check(ctx context.Context, paths []string) ([]Diagnostic, error) {
	perFile := make([][]Diagnostic, len(paths))
	if e.useParallel {
		forEachParallel(ctx, len(paths), func(i int) {
			perFile[i] = e.checkFile(ctx, paths[i])
		})
	} else {
		for i, path := range paths {
			if ctx.Err() != nil {
				break
			}
			perFile[i] = e.checkFile(ctx, path)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Diagnostic
	for _, diags := range perFile {
		out = append(out, diags...)
	}
	sortDiagnostics(out)
	return out, nil
}

func (e *Engine) checkFile(ctx context.Context, path string) []Diagnostic {
	f, err := e.ws.Load(path)
	if err != nil {
		return []Diagnostic{{
			Path: path, Line: 1, Col: 1,
			Severity: SeverityError, Code: CodeIO, Message: err.Error(),
		}}
	}

	var diags []Diagnostic
	for _, perr := range f.Errors {
		diags = append(diags, Diagnostic{
			Path: f.Path, Line: perr.Pos.Line, Col: perr.Pos.Col,
			Severity: SeverityError, Code: CodeSyntax, Message: perr.Msg,
		})
	}
	diags = append(diags, duplicateDiagnostics(f.Path, f.Root)...)
	diags = append(diags, e.unresolvedDiagnostics(f.Path, f.Root)...)

	if len(e.rules) > 0 {
		facts := extractFacts(f.Path, f.Root)
		for _, rt := range e.rules {
			diags = append(diags, ruleDiagnostics(ctx, rt, facts)...)
		}
	}
	return diags
}

func duplicateDiagnostics(path string, root Node) []Diagnostic {
	var diags []Diagnostic
	for kind, groups := range resolve.FindDuplicates(resolve.DeclarationIndex(root)) {
		code := duplicateCode(kind)
		for _, g := range groups {
			msg := fmt.Sprintf("%s %q is declared %d times", nodeKindNoun(kind), g.Key.Name, len(g.Nodes))
			for _, n := range g.Nodes {
				pos := n.Pos()
				diags = append(diags, Diagnostic{
					Path: path, Line: pos.Line, Col: pos.Col,
					Severity: SeverityError, Code: code, Message: msg,
				})
			}
		}
	}
	return diags
}

func duplicateCode(k syntax.Kind) string {
	switch k {
	case syntax.KindHandlerValue:
		return CodeDuplicateHandler
	case syntax.KindHTTPRoute:
		return CodeDuplicateRoute
	}
	return CodeDuplicateType
}

func (e *Engine) unresolvedDiagnostics(path string, root Node) []Diagnostic {
	var diags []Diagnostic
	for _, ref := range syntax.IndexOf(root, syntax.KindReferenceID)[syntax.KindReferenceID] {
		if _, ok := e.resolver.Resolve(ref); ok {
			continue
		}
		pos := ref.Pos()
		diags = append(diags, Diagnostic{
			Path: path, Line: pos.Line, Col: pos.Col,
			Severity: SeverityError, Code: CodeUnresolvedType,
			Message: fmt.Sprintf("undefined type %q", ref.Key()),
		})
	}
	return diags
}

func ruleDiagnostics(ctx context.Context, rt *apirt.Runtime, facts *apirt.FileFacts) []Diagnostic {
	findings, errs := rt.CheckFile(ctx, facts)
	var diags []Diagnostic
	for _, f := range findings {
		diags = append(diags, Diagnostic{
			Path: facts.Path, Line: f.Line, Col: f.Col,
			Severity: SeverityWarning, Code: f.Rule, Message: f.Message,
		})
	}
	for _, err := range errs {
		diags = append(diags, Diagnostic{
			Path: facts.Path, Line: 1, Col: 1,
			Severity: SeverityError, Code: CodeRuleError, Message: err.Error(),
		})
	}
	return diags
}

// CheckHandlers reports every route of the given schema files whose @handler
// has no matching function in the Go sources under goDirs. A handler Login
// matches a function named LoginHandler or loginHandler.
func (e *Engine) CheckHandlers(ctx context.Context, paths []string, goDirs []string) ([]Diagnostic, error) {
	idx, err := golang.ScanDirs(ctx, goDirs...)
	if err != nil {
		return nil, fmt.Errorf("apiscope: scan go sources: %w", err)
	}

	var diags []Diagnostic
	for _, path := range paths {
		f, err := e.ws.Load(path)
		if err != nil {
			return nil, err
		}
		for _, r := range extractFacts(f.Path, f.Root).Routes {
			if r.Handler == "" {
				continue
			}
			if len(idx.Lookup(r.Handler)) > 0 {
				continue
			}
			diags = append(diags, Diagnostic{
				Path: f.Path, Line: r.Line, Col: r.Col,
				Severity: SeverityWarning, Code: CodeMissingHandler,
				Message: fmt.Sprintf("handler %q for %s %s has no Go implementation", r.Handler, r.Method, r.Path),
			})
		}
	}
	sortDiagnostics(diags)
	return diags, nil
}
