package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParameterUpdate is the adjuster's reply: the parameters it wants changed
// and a short explanation of what it did.
type ParameterUpdate struct {
	UpdatedParameters map[string]any `json:"updated_parameters"`
	Explanation       string         `json:"explanation"`
}

// Adjuster interprets a free-text request against a running simulation and
// proposes new parameter values.
type Adjuster struct {
	gen    Generator
	logger *slog.Logger
}

func NewAdjuster(gen Generator, logger *slog.Logger) *Adjuster {
	return &Adjuster{gen: gen, logger: logger}
}

// Adjust returns the parameter changes the model proposes for the user's
// request. Failures degrade to an empty update with an apologetic
// explanation; this path never returns an error.
func (a *Adjuster) Adjust(ctx context.Context, templateID string, current map[string]any, userPrompt string) ParameterUpdate {
	failed := ParameterUpdate{
		UpdatedParameters: map[string]any{},
		Explanation:       "Sorry, I encountered an error processing your request.",
	}

	if a.gen == nil {
		return failed
	}

	params, err := json.Marshal(current)
	if err != nil {
		return failed
	}

	prompt := fmt.Sprintf(`You are an AI physics assistant controlling a simulation.

Current Simulation: %s
Current Parameters: %s

User Request: %q

Your task is to update the parameters based on the user's request.
- Only change parameters that are relevant to the request.
- Keep other parameters as they are (or don't include them in the update).
- Ensure values are physically reasonable.
- If the user asks for something impossible or unrelated, return an empty dictionary for updated_parameters.

Return ONLY valid JSON in this exact format, no markdown:
{
  "updated_parameters": {"parameter name": new value},
  "explanation": "brief explanation of what was changed"
}`, templateID, params, userPrompt)

	raw, err := a.gen.GenerateText(ctx, prompt)
	if err != nil {
		a.logger.Warn("parameter adjustment failed", slog.String("error", err.Error()))
		return failed
	}

	update, ok := decodeJSON[ParameterUpdate](raw)
	if !ok {
		a.logger.Warn("parameter adjustment reply was not JSON", slog.String("reply", cleanJSON(raw)))
		return failed
	}
	if update.UpdatedParameters == nil {
		update.UpdatedParameters = map[string]any{}
	}
	return update
}
