// Package repository defines the storage interfaces the service layer
// depends on. Two implementations exist: sqlite (the real document store)
// and null (persistence disabled; inserts return a sentinel id and queries
// return nothing).
//
// Contract shared by every implementation:
//   - insert operations require a non-empty user id and fail validation
//     otherwise; a record without an owner is a caller bug, never something
//     to drop silently
//   - query operations return an empty slice (not an error) for an unknown
//     or empty user id
package repository

import (
	"context"

	"github.com/stemly/backend/internal/model"
)

// UnpersistedID is the sentinel id the null store returns from inserts.
const UnpersistedID = "unpersisted"

type UserRepository interface {
	// RecordLogin upserts the user for a verified identity. The first login
	// sets CreatedAt; every login refreshes name, email, picture and
	// LastLogin.
	RecordLogin(ctx context.Context, identity *model.Identity) error
	GetByUID(ctx context.Context, uid string) (*model.User, error)
}

type ScanRepository interface {
	// Create persists a scan record and fills in its ID and CreatedAt.
	Create(ctx context.Context, scan *model.Scan) error
	// ListByUser returns the user's scans, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Scan, error)
}

type NotesRepository interface {
	Create(ctx context.Context, entry *model.NotesEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.NotesEntry, error)
}

type VisualiserRepository interface {
	Create(ctx context.Context, entry *model.VisualiserEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.VisualiserEntry, error)
	// LatestByTemplate returns the most recent entry for (user, template),
	// or nil when the user has no saved state for that template.
	LatestByTemplate(ctx context.Context, userID, templateID string) (*model.VisualiserEntry, error)
}

// Store bundles the per-entity repositories behind one capability handle.
type Store interface {
	Users() UserRepository
	Scans() ScanRepository
	Notes() NotesRepository
	Visualiser() VisualiserRepository
	Close() error
}
