package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/storage"
)

// ChatService runs the tutor chat. Like the chat layer beneath it, Ask never
// returns an error: the student always gets a response, even if it is an
// apology.
type ChatService struct {
	files  *storage.Store
	chat   *ai.Chat
	logger *slog.Logger
}

func NewChatService(files *storage.Store, chat *ai.Chat, logger *slog.Logger) *ChatService {
	return &ChatService{files: files, chat: chat, logger: logger}
}

// ChatRequest is one turn of the tutor conversation as the client sends it.
type ChatRequest struct {
	Prompt        string         `json:"prompt"`
	Topic         string         `json:"topic"`
	Variables     []string       `json:"variables"`
	ImagePath     string         `json:"image_path"`
	TemplateID    string         `json:"template_id"`
	CurrentParams map[string]any `json:"current_parameters"`
}

// Ask answers one chat turn. When the request references a scanned image the
// image grounds the answer; any failure loading it downgrades to text-only
// rather than failing the turn.
func (s *ChatService) Ask(ctx context.Context, userID string, req ChatRequest) model.ChatResponse {
	cc := ai.ChatContext{
		UserPrompt:    req.Prompt,
		Topic:         req.Topic,
		Variables:     req.Variables,
		TemplateID:    req.TemplateID,
		CurrentParams: req.CurrentParams,
	}

	if req.ImagePath != "" {
		abs, err := s.files.ResolveScanPath(req.ImagePath)
		if err == nil {
			if image, readErr := os.ReadFile(abs); readErr == nil {
				cc.Image = image
				cc.ImageMIME = mimeForScan(abs)
			} else {
				err = readErr
			}
		}
		if err != nil {
			s.logger.Warn("chat image unavailable, answering text-only",
				slog.String("user", userID),
				slog.String("image_path", req.ImagePath),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.chat.Respond(ctx, cc)
}
