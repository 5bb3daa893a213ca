package model

import "time"

// VisualiserEntry is one saved simulation state: which template the student
// is looking at and the parameter values they have dialled in. Follow-up
// updates merge over the latest entry rather than replacing it.
type VisualiserEntry struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	TemplateID string         `json:"template_id"`
	Parameters map[string]any `json:"parameters"`
	CreatedAt  time.Time      `json:"timestamp"`
}

// ChatResponse is the shape the tutor chat always returns, including on
// failure. UpdateType is one of "explanation", "parameter_change" or "both".
type ChatResponse struct {
	Response         string         `json:"response"`
	ParameterUpdates map[string]any `json:"parameter_updates,omitempty"`
	UpdateType       string         `json:"update_type"`
}
