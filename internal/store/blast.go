package store

import (
	"fmt"
	"sort"
)

// FilesImportingPath returns the files with an import whose source is a path
// suffix of path, the same rule the resolver uses to match imports.
func (s *Store) FilesImportingPath(path string) ([]*File, error) {
	files, err := s.queryFiles(
		`SELECT f.id, f.path, f.hash, f.syntax, f.decl_count, f.error_count, f.last_indexed
		 FROM files f
		 WHERE f.path <> ? AND EXISTS (
		   SELECT 1 FROM imports i
		   WHERE i.file_id = f.id
		     AND length(i.source) <= length(?)
		     AND substr(?, length(?) - length(i.source) + 1) = i.source
		 )
		 ORDER BY f.path`,
		repeatArgs([]any{path}, 4)...,
	)
	if err != nil {
		return nil, fmt.Errorf("files importing path: %w", err)
	}
	return files, nil
}

// ImporterClosure returns every file that reaches path through one or more
// imports, ordered by path. path itself is not included.
func (s *Store) ImporterClosure(path string) ([]*File, error) {
	seen := map[string]*File{}
	queue := []string{path}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		importers, err := s.FilesImportingPath(cur)
		if err != nil {
			return nil, err
		}
		for _, f := range importers {
			if f.Path == path || seen[f.Path] != nil {
				continue
			}
			seen[f.Path] = f
			queue = append(queue, f.Path)
		}
	}
	out := make([]*File, 0, len(seen))
	for _, f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
