package apiscope

import (
	"fmt"
	"strings"
	"time"

	"github.com/jward/apiscope/internal/store"
)

// QueryBuilder answers questions about the persisted index. Every method
// returns ErrNoStore when the Engine was created without WithStore.
type QueryBuilder struct {
	store *store.Store
}

// Pagination controls offset+limit paging on list results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order declaration results.
type SortField string

const (
	SortByName SortField = "name"
	SortByKind SortField = "kind"
	SortByFile SortField = "file"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// DeclarationFilter specifies which declarations to include. All fields are
// optional.
type DeclarationFilter struct {
	Kinds      []string // match any of these kinds
	Name       *string  // exact match
	PathPrefix *string  // restrict to files under this directory
}

// DeclarationResult is a declaration with the path of its file.
type DeclarationResult struct {
	store.Declaration
	FilePath string
}

// RouteFilter specifies which routes to include. Empty fields match all.
type RouteFilter struct {
	Service string
	Method  string
	Handler string
}

func (q *QueryBuilder) check() error {
	if q.store == nil {
		return ErrNoStore
	}
	return nil
}

// Files returns every indexed file ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.Files()
}

// File returns the indexed file at path, or nil if it is not indexed.
func (q *QueryBuilder) File(path string) (*File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.FileByPath(path)
}

// Declarations lists declarations matching filter.
func (q *QueryBuilder) Declarations(filter DeclarationFilter, sort Sort, page Pagination) (*PagedResult[DeclarationResult], error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	page = page.normalize()

	var where []string
	var args []any
	if len(filter.Kinds) > 0 {
		where = append(where, "d.kind IN ("+strings.Repeat("?,", len(filter.Kinds)-1)+"?)")
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}
	if filter.Name != nil {
		where = append(where, "d.name = ?")
		args = append(args, *filter.Name)
	}
	if filter.PathPrefix != nil {
		if prefix := normalizePathPrefix(*filter.PathPrefix); prefix != "" {
			where = append(where, "f.path LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(prefix)+"%")
		}
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var totalCount int
	countSQL := `SELECT COUNT(*) FROM declarations d JOIN files f ON f.id = d.file_id ` + whereClause
	if err := q.store.DB().QueryRow(countSQL, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("declarations: count: %w", err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT d.id, d.file_id, d.name, d.kind, d.line, d.col, f.path
		 FROM declarations d
		 JOIN files f ON f.id = d.file_id
		 %s
		 ORDER BY %s %s, f.path, d.line, d.col
		 LIMIT ? OFFSET ?`,
		whereClause, declarationSortColumn(sort.Field), sortDirection(sort.Order),
	)
	rows, err := q.store.DB().Query(dataSQL, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("declarations: query: %w", err)
	}
	defer rows.Close()

	result := &PagedResult[DeclarationResult]{TotalCount: totalCount}
	for rows.Next() {
		var r DeclarationResult
		if err := rows.Scan(&r.ID, &r.FileID, &r.Name, &r.Kind, &r.Line, &r.Col, &r.FilePath); err != nil {
			return nil, fmt.Errorf("declarations: scan: %w", err)
		}
		result.Items = append(result.Items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("declarations: rows: %w", err)
	}
	return result, nil
}

// Dependencies returns the indexed files matched by the imports of the file
// at path, ordered by path.
func (q *QueryBuilder) Dependencies(path string) ([]*File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	rows, err := q.store.DB().Query(
		`SELECT DISTINCT g.id, g.path, g.hash, g.syntax, g.decl_count, g.error_count, g.last_indexed
		 FROM files f
		 JOIN imports i ON i.file_id = f.id
		 JOIN files g ON g.path <> f.path
		   AND length(i.source) <= length(g.path)
		   AND substr(g.path, length(g.path) - length(i.source) + 1) = i.source
		 WHERE f.path = ?
		 ORDER BY g.path`,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.Syntax, &f.DeclCount, &f.ErrorCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("dependencies: scan: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Dependents returns the indexed files that import the file at path.
func (q *QueryBuilder) Dependents(path string) ([]*File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.FilesImportingPath(path)
}

// Affected returns every indexed file that reaches path through imports,
// directly or transitively: the files to re-check after path changes.
func (q *QueryBuilder) Affected(path string) ([]*File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.ImporterClosure(path)
}

// Routes lists indexed routes matching filter, ordered by path and method.
func (q *QueryBuilder) Routes(filter RouteFilter) ([]*Route, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	var routes []*Route
	var err error
	if filter.Handler != "" {
		routes, err = q.store.RoutesByHandler(filter.Handler)
	} else {
		routes, err = q.store.Routes()
	}
	if err != nil {
		return nil, err
	}
	out := routes[:0]
	for _, r := range routes {
		if filter.Service != "" && r.Service != filter.Service {
			continue
		}
		if filter.Method != "" && !strings.EqualFold(r.Method, filter.Method) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// DuplicateDeclarations returns every (kind, name) declared more than once
// across the indexed files.
func (q *QueryBuilder) DuplicateDeclarations() ([]*DuplicateDeclaration, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.DuplicateDeclarations()
}

// LastIndexed returns when IndexFiles last ran. ok is false if never.
func (q *QueryBuilder) LastIndexed() (t time.Time, ok bool, err error) {
	if err := q.check(); err != nil {
		return time.Time{}, false, err
	}
	v, err := q.store.Metadata("last_indexed")
	if err != nil || v == "" {
		return time.Time{}, false, err
	}
	t, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last indexed: %w", err)
	}
	return t, true, nil
}

// normalizePathPrefix ensures a path prefix ends with "/" for correct LIKE matching.
// "api/user" -> "api/user/" to prevent matching "api/user_v2/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

func declarationSortColumn(field SortField) string {
	switch field {
	case SortByKind:
		return "d.kind"
	case SortByFile:
		return "f.path"
	default:
		return "d.name"
	}
}

// sortDirection returns "ASC" or "DESC".
func sortDirection(order SortOrder) string {
	if order == Desc {
		return "DESC"
	}
	return "ASC"
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
