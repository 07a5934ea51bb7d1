package store

// DataStore is the write side used while extracting a file. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement it.
type DataStore interface {
	// Each insert returns the assigned ID.
	InsertDeclaration(d *Declaration) (int64, error)
	InsertImport(imp *Import) (int64, error)
	InsertRoute(r *Route) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
