package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/apiscope/internal/store"
)

// makeIndexedDeclarationsFn creates "indexed_declarations", a cross-file
// lookup in the persisted index.
//
// indexed_declarations(name) → [{name, kind, line, col, file_id}]
func makeIndexedDeclarationsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("indexed_declarations", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("indexed_declarations", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("indexed_declarations: %v", err)
		}
		decls, err := s.DeclarationsByName(name)
		if err != nil {
			return object.Errorf("indexed_declarations: %v", err)
		}
		results := make([]object.Object, 0, len(decls))
		for _, d := range decls {
			results = append(results, object.NewMap(map[string]object.Object{
				"name":    object.NewString(d.Name),
				"kind":    object.NewString(d.Kind),
				"line":    object.NewInt(int64(d.Line)),
				"col":     object.NewInt(int64(d.Col)),
				"file_id": object.NewInt(d.FileID),
			}))
		}
		return object.NewList(results)
	})
}

// makeImportersOfFn creates "importers_of".
//
// importers_of(path) → [string] paths of indexed files importing path
func makeImportersOfFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("importers_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("importers_of", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("importers_of: %v", err)
		}
		files, err := s.FilesImportingPath(path)
		if err != nil {
			return object.Errorf("importers_of: %v", err)
		}
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		return stringsToList(paths)
	})
}

// makeDBQueryFn creates a db_query bridge that executes read-only SQL.
// Returns a list of maps (column name → value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, err := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return object.Errorf("db_query: columns: %v", err)
		}

		results := []object.Object{}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: rows: %v", err)
		}
		return object.NewList(results)
	})
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}
