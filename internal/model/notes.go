package model

import "time"

// Notes is the structured study-notes object the AI model is asked to
// produce. The JSON tags double as the schema the prompt demands, so field
// names here must stay in sync with the prompt in internal/ai.
type Notes struct {
	Explanation       string            `json:"explanation"`
	VariableBreakdown map[string]string `json:"variable_breakdown"`
	Formulas          []string          `json:"formulas"`
	Example           string            `json:"example"`
	Mistakes          []string          `json:"mistakes"`
	PracticeQuestions []string          `json:"practice_questions"`
	Summary           []string          `json:"summary"`
	Resources         []string          `json:"resources"`
}

// NotesEntry is one persisted generation or follow-up.
type NotesEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	Notes     Notes     `json:"notes"`
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}
