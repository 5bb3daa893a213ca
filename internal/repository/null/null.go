// Package null is the store used when persistence is disabled (no DB_PATH
// configured). It satisfies the same contract as the sqlite store so call
// sites never check whether a database is present: inserts validate their
// input and report the sentinel id, queries return empty results.
package null

import (
	"context"
	"time"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
)

// Store is the null-object persistence capability.
type Store struct{}

// compile-time check that *Store satisfies repository.Store
var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Users() repository.UserRepository            { return users{} }
func (s *Store) Scans() repository.ScanRepository            { return scans{} }
func (s *Store) Notes() repository.NotesRepository           { return notes{} }
func (s *Store) Visualiser() repository.VisualiserRepository { return visualiser{} }
func (s *Store) Close() error                                { return nil }

type users struct{}

func (users) RecordLogin(_ context.Context, identity *model.Identity) error {
	if identity == nil || identity.UID == "" {
		return apperror.ValidationFailed("uid", "user id is required to record a login")
	}
	return nil
}

func (users) GetByUID(_ context.Context, uid string) (*model.User, error) {
	return nil, apperror.NotFound("user", uid)
}

type scans struct{}

func (scans) Create(_ context.Context, scan *model.Scan) error {
	if scan.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save scan history")
	}
	scan.ID = repository.UnpersistedID
	scan.CreatedAt = time.Now().UTC()
	return nil
}

func (scans) ListByUser(_ context.Context, _ string, _ int) ([]model.Scan, error) {
	return []model.Scan{}, nil
}

type notes struct{}

func (notes) Create(_ context.Context, entry *model.NotesEntry) error {
	if entry.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save notes")
	}
	entry.ID = repository.UnpersistedID
	entry.CreatedAt = time.Now().UTC()
	return nil
}

func (notes) ListByUser(_ context.Context, _ string, _ int) ([]model.NotesEntry, error) {
	return []model.NotesEntry{}, nil
}

type visualiser struct{}

func (visualiser) Create(_ context.Context, entry *model.VisualiserEntry) error {
	if entry.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save visualiser state")
	}
	entry.ID = repository.UnpersistedID
	entry.CreatedAt = time.Now().UTC()
	return nil
}

func (visualiser) ListByUser(_ context.Context, _ string, _ int) ([]model.VisualiserEntry, error) {
	return []model.VisualiserEntry{}, nil
}

func (visualiser) LatestByTemplate(_ context.Context, _, _ string) (*model.VisualiserEntry, error) {
	return nil, nil
}
