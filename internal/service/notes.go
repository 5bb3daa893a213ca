package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
	"github.com/stemly/backend/internal/storage"
)

// NotesService generates structured study notes and records them in the
// user's notes history.
type NotesService struct {
	files  *storage.Store
	notes  *ai.NotesGenerator
	store  repository.NotesRepository
	logger *slog.Logger
}

func NewNotesService(files *storage.Store, notes *ai.NotesGenerator, store repository.NotesRepository, logger *slog.Logger) *NotesService {
	return &NotesService{files: files, notes: notes, store: store, logger: logger}
}

// Generate produces notes for a topic, optionally grounded in a previously
// scanned image. An image path that fails validation is the caller's error;
// generation does not proceed without the image they asked for.
func (s *NotesService) Generate(ctx context.Context, userID, topic string, variables []string, imagePath string) (*model.Notes, error) {
	var (
		image   []byte
		mime    string
		relPath string
	)
	if imagePath != "" {
		abs, err := s.files.ResolveScanPath(imagePath)
		if err != nil {
			return nil, err
		}
		image, err = os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("service: reading scan image: %w", err)
		}
		mime = mimeForScan(abs)
		relPath = s.files.RelativePath(abs)
	}

	notes, err := s.notes.Generate(ctx, topic, variables, image, mime)
	if err != nil {
		return nil, err
	}

	entry := &model.NotesEntry{
		UserID:    userID,
		Topic:     topic,
		Notes:     *notes,
		ImagePath: relPath,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service: recording notes: %w", err)
	}

	return notes, nil
}

// FollowUp continues a study session from the previous notes object. An
// image_path carried inside the previous notes is re-validated and silently
// dropped when it no longer resolves; a stale reference must not sink the
// whole question.
func (s *NotesService) FollowUp(ctx context.Context, userID, topic string, previousNotes map[string]any, userPrompt string) (*model.Notes, error) {
	if path, ok := previousNotes["image_path"].(string); ok && path != "" {
		if _, err := s.files.ResolveScanPath(path); err != nil {
			s.logger.Warn("dropping stale image reference from previous notes",
				slog.String("image_path", path),
			)
			delete(previousNotes, "image_path")
		}
	}

	notes, err := s.notes.FollowUp(ctx, topic, previousNotes, userPrompt)
	if err != nil {
		return nil, err
	}

	entry := &model.NotesEntry{
		UserID: userID,
		Topic:  topic,
		Notes:  *notes,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service: recording follow-up notes: %w", err)
	}

	return notes, nil
}

// History returns the user's generated notes, newest first.
func (s *NotesService) History(ctx context.Context, userID string, limit int) ([]model.NotesEntry, error) {
	return s.store.ListByUser(ctx, userID, clampLimit(limit))
}
