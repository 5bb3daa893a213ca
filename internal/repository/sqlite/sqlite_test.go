package sqlite

import "testing"

// newTestDB returns a DB backed by an in-memory SQLite database that lives
// for the duration of one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
