package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

const fileCols = "id, path, hash, syntax, decl_count, error_count, last_indexed"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, hash, syntax, decl_count, error_count, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Hash, f.Syntax, f.DeclCount, f.ErrorCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFileCounts records the declaration and error counts found while
// extracting a file.
func (s *Store) UpdateFileCounts(fileID int64, decls, errs int) error {
	_, err := s.db.Exec("UPDATE files SET decl_count = ?, error_count = ? WHERE id = ?", decls, errs, fileID)
	if err != nil {
		return fmt.Errorf("update file counts: %w", err)
	}
	return nil
}

func scanFile(sc scanner) (*File, error) {
	f := &File{}
	err := sc.Scan(&f.ID, &f.Path, &f.Hash, &f.Syntax, &f.DeclCount, &f.ErrorCount, &f.LastIndexed)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	files, err := s.queryFiles("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// --- Declaration operations ---

const declCols = "id, file_id, name, kind, line, col"

func (s *Store) InsertDeclaration(d *Declaration) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO declarations (file_id, name, kind, line, col) VALUES (?, ?, ?, ?, ?)",
		d.FileID, d.Name, d.Kind, d.Line, d.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert declaration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d := &Declaration{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Name, &d.Kind, &d.Line, &d.Col); err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+declCols+" FROM declarations WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) DeclarationsByName(name string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+declCols+" FROM declarations WHERE name = ? ORDER BY file_id, id", name)
}

func (s *Store) DeclarationsByKind(kind string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+declCols+" FROM declarations WHERE kind = ? ORDER BY file_id, id", kind)
}

// DuplicateDeclarations returns every (kind, name) declared more than once
// across the index, with the distinct files involved.
func (s *Store) DuplicateDeclarations() ([]*DuplicateDeclaration, error) {
	rows, err := s.db.Query(
		`SELECT d.kind, d.name, COUNT(*), f.path
		 FROM declarations d
		 JOIN files f ON f.id = d.file_id
		 JOIN (SELECT kind, name FROM declarations GROUP BY kind, name HAVING COUNT(*) > 1) dup
		   ON dup.kind = d.kind AND dup.name = d.name
		 GROUP BY d.kind, d.name, f.path
		 ORDER BY d.kind, d.name, f.path`,
	)
	if err != nil {
		return nil, fmt.Errorf("duplicate declarations: %w", err)
	}
	defer rows.Close()

	var out []*DuplicateDeclaration
	for rows.Next() {
		var kind, name, path string
		var n int
		if err := rows.Scan(&kind, &name, &n, &path); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		if last := len(out) - 1; last >= 0 && out[last].Kind == kind && out[last].Name == name {
			out[last].Count += n
			out[last].Files = append(out[last].Files, path)
			continue
		}
		out = append(out, &DuplicateDeclaration{Kind: kind, Name: name, Count: n, Files: []string{path}})
	}
	return out, rows.Err()
}

// --- Import operations ---

func (s *Store) InsertImport(imp *Import) (int64, error) {
	res, err := s.db.Exec("INSERT INTO imports (file_id, source) VALUES (?, ?)", imp.FileID, imp.Source)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	imp.ID = id
	return id, nil
}

func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query("SELECT id, file_id, source FROM imports WHERE file_id = ? ORDER BY id", fileID)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var imports []*Import
	for rows.Next() {
		imp := &Import{}
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.Source); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// --- Route operations ---

const routeCols = "id, file_id, service, method, path, handler, request, response, line, col"

func (s *Store) InsertRoute(r *Route) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO routes (file_id, service, method, path, handler, request, response, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FileID, r.Service, r.Method, r.Path, r.Handler, r.Request, r.Response, r.Line, r.Col,
	)
	if err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

func (s *Store) queryRoutes(query string, args ...any) ([]*Route, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var routes []*Route
	for rows.Next() {
		r := &Route{}
		if err := rows.Scan(&r.ID, &r.FileID, &r.Service, &r.Method, &r.Path,
			&r.Handler, &r.Request, &r.Response, &r.Line, &r.Col); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *Store) RoutesByFile(fileID int64) ([]*Route, error) {
	return s.queryRoutes("SELECT "+routeCols+" FROM routes WHERE file_id = ? ORDER BY id", fileID)
}

// Routes returns every indexed route ordered by path then method.
func (s *Store) Routes() ([]*Route, error) {
	routes, err := s.queryRoutes("SELECT " + routeCols + " FROM routes ORDER BY path, method")
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	return routes, nil
}

func (s *Store) RoutesByHandler(handler string) ([]*Route, error) {
	return s.queryRoutes("SELECT "+routeCols+" FROM routes WHERE handler = ? ORDER BY file_id, id", handler)
}
