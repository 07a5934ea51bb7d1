package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered rows from a BatchedStore into SQLite
// within a single transaction. Fake IDs are discarded; rows get their real
// IDs from SQLite. File IDs in the batch must already be real.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for _, d := range batch.Declarations {
		if err := insertDeclarationTx(tx, &d); err != nil {
			return fmt.Errorf("commit batch: declaration %q: %w", d.Name, err)
		}
	}
	for _, imp := range batch.Imports {
		if err := insertImportTx(tx, &imp); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", imp.Source, err)
		}
	}
	for _, r := range batch.Routes {
		if err := insertRouteTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: route %s %s: %w", r.Method, r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// --- Transaction-scoped insert helpers ---

func insertDeclarationTx(tx *sql.Tx, d *Declaration) error {
	_, err := tx.Exec(
		"INSERT INTO declarations (file_id, name, kind, line, col) VALUES (?, ?, ?, ?, ?)",
		d.FileID, d.Name, d.Kind, d.Line, d.Col,
	)
	return err
}

func insertImportTx(tx *sql.Tx, imp *Import) error {
	_, err := tx.Exec("INSERT INTO imports (file_id, source) VALUES (?, ?)", imp.FileID, imp.Source)
	return err
}

func insertRouteTx(tx *sql.Tx, r *Route) error {
	_, err := tx.Exec(
		`INSERT INTO routes (file_id, service, method, path, handler, request, response, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FileID, r.Service, r.Method, r.Path, r.Handler, r.Request, r.Response, r.Line, r.Col,
	)
	return err
}
