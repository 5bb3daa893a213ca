package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/service"
)

// VisualiserService is what the visualiser endpoints need from the service
// layer.
type VisualiserService interface {
	Generate(ctx context.Context, userID, topic string, save bool) (*service.GenerateResult, error)
	Update(ctx context.Context, userID, templateID string, params map[string]any, userPrompt string) (*service.UpdateResult, error)
	SaveState(ctx context.Context, userID, templateID string, params map[string]any) (*model.VisualiserEntry, error)
	History(ctx context.Context, userID string, limit int) ([]model.VisualiserEntry, error)
}

// VisualiserHandler serves simulation templates and per-user state.
type VisualiserHandler struct {
	visualiser VisualiserService
	logger     *slog.Logger
}

func NewVisualiserHandler(visualiser VisualiserService, logger *slog.Logger) *VisualiserHandler {
	return &VisualiserHandler{visualiser: visualiser, logger: logger}
}

// HandleGenerate matches a topic to a simulation template.
//
// HTTP: POST /visualiser/generate
// BODY: {"topic": "...", "save": bool}
func (h *VisualiserHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Topic string `json:"topic"`
		Save  bool   `json:"save"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Topic == "" {
		writeError(w, apperror.ValidationFailed("topic", "topic is required"))
		return
	}

	result, err := h.visualiser.Generate(r.Context(), identity.UID, req.Topic, req.Save)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleUpdate applies a parameter change, optionally AI-assisted.
//
// HTTP: POST /visualiser/update
// BODY: {"template_id": "...", "parameters": {...}, "prompt": "..."}
func (h *VisualiserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		TemplateID string         `json:"template_id"`
		Parameters map[string]any `json:"parameters"`
		Prompt     string         `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.visualiser.Update(r.Context(), identity.UID, req.TemplateID, req.Parameters, req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleSaveState persists a client-side snapshot as-is.
//
// HTTP: POST /visualiser/states
func (h *VisualiserHandler) HandleSaveState(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		TemplateID string         `json:"template_id"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	entry, err := h.visualiser.SaveState(r.Context(), identity.UID, req.TemplateID, req.Parameters)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleHistory returns the user's stored snapshots, newest first.
//
// HTTP: GET /visualiser/states?limit= and GET /visualiser/history?limit=
func (h *VisualiserHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.visualiser.History(r.Context(), identity.UID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.VisualiserEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
