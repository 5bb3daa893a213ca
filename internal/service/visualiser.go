package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
	"github.com/stemly/backend/internal/visualiser"
)

// VisualiserService manages simulation states: creating them from topic
// templates, applying parameter updates (user-supplied or AI-adjusted) and
// keeping a per-user history of snapshots.
type VisualiserService struct {
	adjuster *ai.Adjuster
	states   repository.VisualiserRepository
	logger   *slog.Logger
}

func NewVisualiserService(adjuster *ai.Adjuster, states repository.VisualiserRepository, logger *slog.Logger) *VisualiserService {
	return &VisualiserService{adjuster: adjuster, states: states, logger: logger}
}

// GenerateResult pairs the matched template with the initial parameter set.
type GenerateResult struct {
	Template   *visualiser.Template `json:"template"`
	Parameters map[string]any       `json:"parameters"`
	StateID    string               `json:"state_id,omitempty"`
}

// UpdateResult is a persisted parameter update.
type UpdateResult struct {
	TemplateID  string         `json:"template_id"`
	Parameters  map[string]any `json:"parameters"`
	Explanation string         `json:"explanation,omitempty"`
	StateID     string         `json:"state_id"`
}

// Generate matches a detected topic to a simulation template and returns its
// default parameters. With save set, the initial state is also persisted so
// a later update has a snapshot to merge onto.
func (s *VisualiserService) Generate(ctx context.Context, userID, topic string, save bool) (*GenerateResult, error) {
	tpl, err := visualiser.ByTopic(topic)
	if err != nil {
		return nil, err
	}

	params := tpl.FillDefaults()
	result := &GenerateResult{Template: tpl, Parameters: params}

	if save {
		entry := &model.VisualiserEntry{
			UserID:     userID,
			TemplateID: tpl.TemplateID,
			Parameters: params,
		}
		if err := s.states.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("service: saving initial state: %w", err)
		}
		result.StateID = entry.ID
	}

	return result, nil
}

// Update applies a parameter change for (user, template).
//
// The base is the user's latest stored snapshot, or the template defaults
// when none exists. When a prompt is present the AI adjuster runs first and
// its updates merge onto the base; the caller's explicit parameters merge
// last and win. Keys absent from every update keep their prior values. The
// merged state persists as a new snapshot.
func (s *VisualiserService) Update(ctx context.Context, userID, templateID string, params map[string]any, userPrompt string) (*UpdateResult, error) {
	if templateID == "" {
		return nil, apperror.ValidationFailed("template_id", "template_id is required")
	}
	tpl, err := visualiser.ByID(templateID)
	if err != nil {
		return nil, err
	}

	latest, err := s.states.LatestByTemplate(ctx, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("service: loading latest state: %w", err)
	}

	base := tpl.FillDefaults()
	if latest != nil {
		base = merge(base, latest.Parameters)
	}

	explanation := ""
	if userPrompt != "" {
		adjusted := s.adjuster.Adjust(ctx, templateID, base, userPrompt)
		base = merge(base, adjusted.UpdatedParameters)
		explanation = adjusted.Explanation
	}

	base = merge(base, params)

	entry := &model.VisualiserEntry{
		UserID:     userID,
		TemplateID: templateID,
		Parameters: base,
	}
	if err := s.states.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service: saving updated state: %w", err)
	}

	return &UpdateResult{
		TemplateID:  templateID,
		Parameters:  base,
		Explanation: explanation,
		StateID:     entry.ID,
	}, nil
}

// SaveState persists a client-supplied snapshot as-is.
func (s *VisualiserService) SaveState(ctx context.Context, userID, templateID string, params map[string]any) (*model.VisualiserEntry, error) {
	if templateID == "" {
		return nil, apperror.ValidationFailed("template_id", "template_id is required")
	}
	if _, err := visualiser.ByID(templateID); err != nil {
		return nil, err
	}

	entry := &model.VisualiserEntry{
		UserID:     userID,
		TemplateID: templateID,
		Parameters: params,
	}
	if err := s.states.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service: saving state: %w", err)
	}
	return entry, nil
}

// History returns the user's stored snapshots, newest first.
func (s *VisualiserService) History(ctx context.Context, userID string, limit int) ([]model.VisualiserEntry, error) {
	return s.states.ListByUser(ctx, userID, clampLimit(limit))
}

// merge copies base and lays updates over it. Neither input map is mutated.
func merge(base, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(updates))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
