package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pngBytes is a minimal payload that passes the PNG signature check.
func pngBytes() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x00}, 64)...)
}

// newTestStore returns a file store rooted in a per-test temp dir.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	return storage.New(t.TempDir(), testLogger())
}

// savedScan writes one valid PNG into the store and returns its relative path.
func savedScan(t *testing.T, store *storage.Store) string {
	t.Helper()
	rel, err := store.SaveScan(bytes.NewReader(pngBytes()))
	if err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}
	return rel
}

// fakeGenerator scripts the AI reply for service tests.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	textCalls  int
	imageCalls int
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.textCalls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string, _ []byte, _ string) (string, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

// In-memory repositories. They mirror the repository contract: inserts fill
// in ids and timestamps, queries return newest first.

type fakeScanRepo struct {
	scans []model.Scan
	err   error
}

func (f *fakeScanRepo) Create(_ context.Context, scan *model.Scan) error {
	if f.err != nil {
		return f.err
	}
	if scan.UserID == "" {
		return apperror.ValidationFailed("user_id", "user_id must not be empty")
	}
	scan.ID = fmt.Sprintf("scan-%d", len(f.scans)+1)
	scan.CreatedAt = time.Now().UTC()
	f.scans = append(f.scans, *scan)
	return nil
}

func (f *fakeScanRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.Scan, error) {
	var out []model.Scan
	for i := len(f.scans) - 1; i >= 0 && len(out) < limit; i-- {
		if f.scans[i].UserID == userID {
			out = append(out, f.scans[i])
		}
	}
	return out, nil
}

type fakeNotesRepo struct {
	entries []model.NotesEntry
	err     error
}

func (f *fakeNotesRepo) Create(_ context.Context, entry *model.NotesEntry) error {
	if f.err != nil {
		return f.err
	}
	entry.ID = fmt.Sprintf("notes-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeNotesRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.NotesEntry, error) {
	var out []model.NotesEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type fakeVisualiserRepo struct {
	entries []model.VisualiserEntry
	err     error
}

func (f *fakeVisualiserRepo) Create(_ context.Context, entry *model.VisualiserEntry) error {
	if f.err != nil {
		return f.err
	}
	entry.ID = fmt.Sprintf("state-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeVisualiserRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.VisualiserEntry, error) {
	var out []model.VisualiserEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeVisualiserRepo) LatestByTemplate(_ context.Context, userID, templateID string) (*model.VisualiserEntry, error) {
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID && f.entries[i].TemplateID == templateID {
			entry := f.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}
