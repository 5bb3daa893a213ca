package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

// NotesService is what the notes endpoints need from the service layer.
type NotesService interface {
	Generate(ctx context.Context, userID, topic string, variables []string, imagePath string) (*model.Notes, error)
	FollowUp(ctx context.Context, userID, topic string, previousNotes map[string]any, userPrompt string) (*model.Notes, error)
	History(ctx context.Context, userID string, limit int) ([]model.NotesEntry, error)
}

// NotesHandler serves study notes generation and follow-up questions.
type NotesHandler struct {
	notes  NotesService
	logger *slog.Logger
}

func NewNotesHandler(notes NotesService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, logger: logger}
}

// HandleGenerate produces fresh study notes for a detected topic.
//
// HTTP: POST /notes/generate
// BODY: {"topic": "...", "variables": [...], "image_path": "..."}
func (h *NotesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Topic     string   `json:"topic"`
		Variables []string `json:"variables"`
		ImagePath string   `json:"image_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Topic == "" {
		writeError(w, apperror.ValidationFailed("topic", "topic is required"))
		return
	}

	notes, err := h.notes.Generate(r.Context(), identity.UID, req.Topic, req.Variables, req.ImagePath)
	if err != nil {
		h.logger.Warn("notes generation failed", slog.String("user", identity.UID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleAsk continues a study session with a follow-up question over the
// previous notes.
//
// HTTP: POST /notes/ask
// BODY: {"topic": "...", "previous_notes": {...}, "prompt": "..."}
func (h *NotesHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Topic         string         `json:"topic"`
		PreviousNotes map[string]any `json:"previous_notes"`
		Prompt        string         `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Prompt == "" {
		writeError(w, apperror.ValidationFailed("prompt", "prompt is required"))
		return
	}
	if req.PreviousNotes == nil {
		req.PreviousNotes = map[string]any{}
	}

	notes, err := h.notes.FollowUp(r.Context(), identity.UID, req.Topic, req.PreviousNotes, req.Prompt)
	if err != nil {
		h.logger.Warn("notes follow-up failed", slog.String("user", identity.UID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleHistory returns the user's generated notes, newest first.
//
// HTTP: GET /notes/history?limit=
func (h *NotesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.notes.History(r.Context(), identity.UID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.NotesEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
