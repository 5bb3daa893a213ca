package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

// notesSchema is the JSON structure the notes prompts demand. It mirrors
// model.Notes field for field.
const notesSchema = `{
  "explanation": "detailed explanation of the topic (string)",
  "variable_breakdown": {"variable name": "what it means (string)"},
  "formulas": ["relevant formulas (strings)"],
  "example": "one fully worked example (string)",
  "mistakes": ["common mistakes students make (strings)"],
  "practice_questions": ["practice questions (strings)"],
  "summary": ["short summary points (strings)"],
  "resources": ["links or references for further study (strings)"]
}`

// NotesGenerator produces structured study notes from a topic and its
// variables, optionally grounded in the scanned image.
type NotesGenerator struct {
	gen    Generator
	logger *slog.Logger
}

func NewNotesGenerator(gen Generator, logger *slog.Logger) *NotesGenerator {
	return &NotesGenerator{gen: gen, logger: logger}
}

// Generate builds fresh notes for a topic. Unlike topic detection this path
// fails hard: a reply that does not decode into the full schema is an error,
// surfaced to the caller as a generic generation failure.
func (n *NotesGenerator) Generate(ctx context.Context, topic string, variables []string, image []byte, mimeType string) (*model.Notes, error) {
	if n.gen == nil {
		return nil, apperror.Unavailable("AI is not configured")
	}

	prompt := fmt.Sprintf(`You are an expert STEM tutor.

A student has scanned an image about the topic: %q
The important variables in the image are: %s

Generate detailed study notes for the student.

STRICT RULES:
- Output ONLY valid JSON.
- No backticks.
- No markdown.
- Follow this exact structure:
%s

Now generate the JSON:`, topic, strings.Join(variables, ", "), notesSchema)

	var (
		raw string
		err error
	)
	if len(image) > 0 {
		raw, err = n.gen.GenerateImage(ctx, prompt, image, mimeType)
	} else {
		raw, err = n.gen.GenerateText(ctx, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("ai: generating notes: %w", err)
	}

	return n.decodeNotes(raw)
}

// FollowUp continues a study session: the previous notes object and the
// student's new question go into the prompt, and a full replacement notes
// object comes back.
func (n *NotesGenerator) FollowUp(ctx context.Context, topic string, previousNotes map[string]any, userPrompt string) (*model.Notes, error) {
	if n.gen == nil {
		return nil, apperror.Unavailable("AI is not configured")
	}

	previous, err := json.Marshal(previousNotes)
	if err != nil {
		return nil, fmt.Errorf("ai: encoding previous notes: %w", err)
	}

	prompt := fmt.Sprintf(`You are a STEM tutor continuing a study session.

The topic is: %s
These are the previous notes the student has: %s

The student asks: %q

STRICT RULES:
- Output ONLY valid JSON.
- No markdown.
- Follow this JSON structure:
%s

Now generate the JSON response:`, topic, previous, userPrompt, notesSchema)

	raw, err := n.gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai: follow-up notes: %w", err)
	}

	return n.decodeNotes(raw)
}

func (n *NotesGenerator) decodeNotes(raw string) (*model.Notes, error) {
	notes, ok := decodeJSON[model.Notes](raw)
	if !ok {
		n.logger.Warn("notes reply was not JSON", slog.String("reply", cleanJSON(raw)))
		return nil, fmt.Errorf("ai: notes reply was not valid JSON")
	}
	if notes.Explanation == "" {
		return nil, fmt.Errorf("ai: notes reply did not match the expected schema")
	}
	return &notes, nil
}
