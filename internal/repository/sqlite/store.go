package sqlite

import "github.com/stemly/backend/internal/repository"

// compile-time check that *DB satisfies the Store capability
var _ repository.Store = (*DB)(nil)

func (db *DB) Users() repository.UserRepository {
	return &UserDB{conn: db.conn}
}

func (db *DB) Scans() repository.ScanRepository {
	return &ScanDB{conn: db.conn}
}

func (db *DB) Notes() repository.NotesRepository {
	return &NotesDB{conn: db.conn}
}

func (db *DB) Visualiser() repository.VisualiserRepository {
	return &VisualiserDB{conn: db.conn}
}
