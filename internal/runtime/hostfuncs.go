package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/risor-io/risor/object"
)

// reporter collects the findings of one rule run.
type reporter struct {
	rule     string
	mu       sync.Mutex
	findings []Finding
}

func (r *reporter) add(f Finding) {
	r.mu.Lock()
	r.findings = append(r.findings, f)
	r.mu.Unlock()
}

// factGlobals exposes facts to a script:
//
//	file_path            string
//	syntax_version()     string ("" when the file has no syntax line)
//	declarations()       [{name, kind, line, col}]
//	imports()            [string]
//	routes()             [{service, method, path, handler, doc, request, response, line, col}]
//	report(line, col, message)
func factGlobals(f *FileFacts, rep *reporter) map[string]any {
	return map[string]any{
		"file_path":      object.NewString(f.Path),
		"syntax_version": makeConstFn("syntax_version", object.NewString(f.Syntax)),
		"declarations":   makeConstFn("declarations", declarationsToList(f.Declarations)),
		"imports":        makeConstFn("imports", stringsToList(f.Imports)),
		"routes":         makeConstFn("routes", routesToList(f.Routes)),
		"report":         makeReportFn(rep),
	}
}

// makeConstFn creates a zero-argument host function returning v.
func makeConstFn(name string, v object.Object) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError(name, 0, len(args))
		}
		return v
	})
}

// makeReportFn creates the "report" host function.
//
// report(line, col, message)
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("report", 3, len(args))
		}
		line, err := toInt(args[0])
		if err != nil {
			return object.Errorf("report: line: %v", err)
		}
		col, err := toInt(args[1])
		if err != nil {
			return object.Errorf("report: col: %v", err)
		}
		msg, err := toString(args[2])
		if err != nil {
			return object.Errorf("report: message: %v", err)
		}
		rep.add(Finding{Rule: rep.rule, Line: line, Col: col, Message: msg})
		return object.Nil
	})
}

func declarationsToList(decls []Declaration) object.Object {
	results := make([]object.Object, 0, len(decls))
	for _, d := range decls {
		results = append(results, object.NewMap(map[string]object.Object{
			"name": object.NewString(d.Name),
			"kind": object.NewString(d.Kind),
			"line": object.NewInt(int64(d.Line)),
			"col":  object.NewInt(int64(d.Col)),
		}))
	}
	return object.NewList(results)
}

func routesToList(routes []Route) object.Object {
	results := make([]object.Object, 0, len(routes))
	for _, r := range routes {
		results = append(results, object.NewMap(map[string]object.Object{
			"service":  object.NewString(r.Service),
			"method":   object.NewString(r.Method),
			"path":     object.NewString(r.Path),
			"handler":  object.NewString(r.Handler),
			"doc":      object.NewString(r.Doc),
			"request":  object.NewString(r.Request),
			"response": object.NewString(r.Response),
			"line":     object.NewInt(int64(r.Line)),
			"col":      object.NewInt(int64(r.Col)),
		}))
	}
	return object.NewList(results)
}

func stringsToList(ss []string) object.Object {
	results := make([]object.Object, 0, len(ss))
	for _, s := range ss {
		results = append(results, object.NewString(s))
	}
	return object.NewList(results)
}

func toString(obj object.Object) (string, error) {
	s, ok := obj.(*object.String)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", obj.Type())
	}
	return s.Value(), nil
}

func toInt(obj object.Object) (int, error) {
	switch v := obj.(type) {
	case *object.Int:
		return int(v.Value()), nil
	case *object.Float:
		return int(v.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	prefix string
	w      io.Writer
}

func (l *logObject) Info(msg string) {
	fmt.Fprintf(l.w, "[%s] INFO: %s\n", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	fmt.Fprintf(l.w, "[%s] WARN: %s\n", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	fmt.Fprintf(l.w, "[%s] ERROR: %s\n", l.prefix, msg)
}
