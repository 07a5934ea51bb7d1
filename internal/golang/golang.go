// Package golang finds the Go functions that implement service handlers.
// Go sources are parsed with tree-sitter; a handler named X is implemented
// by a top-level function XHandler (or X when the name already ends in
// Handler), with the first letter matched case-insensitively.
package golang

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

const funcQuery = `(function_declaration name: (identifier) @name)`

// Func is a top-level function declaration.
type Func struct {
	Name string
	Path string
	Line int
	Col  int
}

// ParseFuncs returns the top-level functions declared in src in source order.
// Methods are not included.
func ParseFuncs(ctx context.Context, path string, src []byte) ([]Func, error) {
	lang := golang.GetLanguage()
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(funcQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, tree.RootNode())

	var out []Func
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			p := c.Node.StartPoint()
			out = append(out, Func{
				Name: c.Node.Content(src),
				Path: path,
				Line: int(p.Row) + 1,
				Col:  int(p.Column) + 1,
			})
		}
	}
	return out, nil
}

// Index maps function names to their declarations.
type Index map[string][]Func

// ScanDirs parses every non-test .go file under dirs. Hidden directories,
// vendor and testdata are skipped. Files that fail to read are reported in
// the returned error after the rest are indexed.
func ScanDirs(ctx context.Context, dirs ...string) (Index, error) {
	idx := make(Index)
	var errs []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err.Error())
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != dir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				return nil
			}
			src, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, err.Error())
				return nil
			}
			funcs, err := ParseFuncs(ctx, path, src)
			if err != nil {
				errs = append(errs, err.Error())
				return nil
			}
			idx.Add(funcs...)
			return nil
		})
		if err != nil {
			return idx, err
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return idx, fmt.Errorf("scan go sources: %d error(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return idx, nil
}

// Add records funcs in the index.
func (idx Index) Add(funcs ...Func) {
	for _, f := range funcs {
		idx[f.Name] = append(idx[f.Name], f)
	}
}

// HandlerFuncName returns the function name expected for handler.
func HandlerFuncName(handler string) string {
	if strings.HasSuffix(handler, "Handler") {
		return handler
	}
	return handler + "Handler"
}

// Lookup returns the functions implementing handler.
func (idx Index) Lookup(handler string) []Func {
	name := HandlerFuncName(handler)
	if fns := idx[name]; len(fns) > 0 {
		return fns
	}
	return idx[swapFirstCase(name)]
}

func swapFirstCase(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	if unicode.IsUpper(r) {
		return string(unicode.ToLower(r)) + s[n:]
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
