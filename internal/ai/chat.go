package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stemly/backend/internal/model"
)

// chatSchema describes the JSON shape the tutor chat must return.
const chatSchema = `{
  "response": "natural language response to the user (string)",
  "parameter_updates": {"parameter name": new value} or null if none,
  "update_type": "one of: explanation, parameter_change, both"
}`

// Update kinds the chat classifies its own output into.
const (
	UpdateExplanation     = "explanation"
	UpdateParameterChange = "parameter_change"
	UpdateBoth            = "both"
)

// ChatContext carries everything the tutor knows about the conversation:
// the scanned problem, the running simulation, and the student's message.
type ChatContext struct {
	UserPrompt    string
	Topic         string
	Variables     []string
	Image         []byte // optional; grounds the answer in the scanned problem
	ImageMIME     string
	TemplateID    string
	CurrentParams map[string]any
}

// Chat is the unified tutor: it answers questions, mutates simulation
// parameters, or both.
type Chat struct {
	gen    Generator
	logger *slog.Logger
}

func NewChat(gen Generator, logger *slog.Logger) *Chat {
	return &Chat{gen: gen, logger: logger}
}

// fallback is the safe default returned on any failure. This path never
// surfaces an error to the caller.
func fallback() model.ChatResponse {
	return model.ChatResponse{
		Response:   "I'm having trouble processing your request. Please try again.",
		UpdateType: UpdateExplanation,
	}
}

// Respond runs one turn of the tutor chat. When an image is present the
// vision model is tried first; any image-path failure falls back to
// text-only so the student still gets an answer.
func (c *Chat) Respond(ctx context.Context, req ChatContext) model.ChatResponse {
	if c.gen == nil {
		return model.ChatResponse{
			Response:   "AI is not configured.",
			UpdateType: UpdateExplanation,
		}
	}

	info := c.contextLines(req)

	if len(req.Image) > 0 {
		if resp, ok := c.respondWithImage(ctx, req, info); ok {
			return resp
		}
		// Vision failed; carry on in text-only mode.
	}

	prompt := fmt.Sprintf(`You are an expert Physics Tutor and Simulation Controller.

Context:
%s

User's message: %q

Your tasks:
1. If they want to change parameters, update them in "parameter_updates"
2. If they ask a question, provide a clear answer in "response"
3. Set "update_type" to: "explanation", "parameter_change", or "both"

%s

Return ONLY valid JSON, no markdown.`, info, req.UserPrompt, chatSchema)

	raw, err := c.gen.GenerateText(ctx, prompt)
	if err != nil {
		c.logger.Warn("chat generation failed", slog.String("error", err.Error()))
		return fallback()
	}

	resp, ok := decodeJSON[model.ChatResponse](raw)
	if !ok {
		c.logger.Warn("chat reply was not JSON", slog.String("reply", cleanJSON(raw)))
		return fallback()
	}
	return normalise(resp)
}

func (c *Chat) respondWithImage(ctx context.Context, req ChatContext, info string) (model.ChatResponse, bool) {
	prompt := fmt.Sprintf(`You are an expert Physics Tutor and Simulation Controller.

Context from the scanned physics problem:
%s

The user has scanned a physics problem (image provided below).

User's message: %q

Your tasks:
1. Analyze the user's request.
2. If they want to change simulation parameters (e.g., "make velocity 20 m/s", "set angle to 45 degrees"):
   - Determine which parameters need updating
   - Ensure values are physically reasonable
   - Include these in "parameter_updates"
3. If they ask a physics question (e.g., "why does it curve?", "what is the formula?"):
   - Use the scanned image and context to answer clearly
   - Explain concepts in a student-friendly way
4. You can do both if needed.

IMPORTANT: Return ONLY valid JSON in this exact format:
%s

No markdown, no code blocks, just raw JSON.`, info, req.UserPrompt, chatSchema)

	raw, err := c.gen.GenerateImage(ctx, prompt, req.Image, req.ImageMIME)
	if err != nil {
		c.logger.Warn("chat vision generation failed", slog.String("error", err.Error()))
		return model.ChatResponse{}, false
	}

	resp, ok := decodeJSON[model.ChatResponse](raw)
	if !ok {
		return model.ChatResponse{}, false
	}
	return normalise(resp), true
}

func (c *Chat) contextLines(req ChatContext) string {
	lines := []string{
		"Topic: " + req.Topic,
		"Variables involved: " + strings.Join(req.Variables, ", "),
	}
	if req.TemplateID != "" {
		lines = append(lines, "Current simulation: "+req.TemplateID)
	}
	if len(req.CurrentParams) > 0 {
		if params, err := json.Marshal(req.CurrentParams); err == nil {
			lines = append(lines, "Current parameters: "+string(params))
		}
	}
	return strings.Join(lines, "\n")
}

// normalise clamps the model's self-classification to a known update kind.
func normalise(resp model.ChatResponse) model.ChatResponse {
	switch resp.UpdateType {
	case UpdateExplanation, UpdateParameterChange, UpdateBoth:
	default:
		resp.UpdateType = UpdateExplanation
	}
	return resp
}
