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

// ChatService is what the chat endpoint needs from the service layer.
type ChatService interface {
	Ask(ctx context.Context, userID string, req service.ChatRequest) model.ChatResponse
}

// ChatHandler serves the tutor chat.
type ChatHandler struct {
	chat   ChatService
	logger *slog.Logger
}

func NewChatHandler(chat ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// HandleAsk runs one turn of the tutor conversation. Beyond request
// validation this endpoint cannot fail; the service always produces an
// answer.
//
// HTTP: POST /chat/ask
func (h *ChatHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req service.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Prompt == "" {
		writeError(w, apperror.ValidationFailed("prompt", "prompt is required"))
		return
	}

	resp := h.chat.Ask(r.Context(), identity.UID, req)
	writeJSON(w, http.StatusOK, resp)
}
