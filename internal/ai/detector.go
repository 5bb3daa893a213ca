package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

const detectPrompt = `You are a STEM topic detector.

Your job:
- Identify the main STEM topic from the scanned image.
- Identify important variables (e.g., v0, angle, g, refractive index, resistance).

STRICT RULES:
- Respond ONLY with a valid JSON object.
- NO backticks.
- NO markdown.
- NO explanations.
- NO code blocks.

Format example:
{
  "topic": "Projectile Motion",
  "variables": ["v0", "angle", "g"]
}`

// topicKeys are the key names the model has been observed to use for the
// topic, tried in order.
var topicKeys = []string{"topic", "subject", "title"}

// DetectResult is the best-effort classification of a scanned image.
type DetectResult struct {
	Topic     string
	Variables []string
}

// Detector asks the vision model to classify a scanned problem.
type Detector struct {
	gen    Generator
	logger *slog.Logger
}

func NewDetector(gen Generator, logger *slog.Logger) *Detector {
	return &Detector{gen: gen, logger: logger}
}

// DetectTopic returns a topic and variable list for the image. It never
// returns an error: the caller has already paid the cost of an upload, so a
// degraded answer beats no answer.
//
//   - transport failure or disabled AI: topic "Unknown", no variables
//   - unparseable reply: the cleaned reply text verbatim as the topic, no
//     variables
func (d *Detector) DetectTopic(ctx context.Context, image []byte, mimeType string) DetectResult {
	if d.gen == nil {
		return DetectResult{Topic: "Unknown", Variables: []string{}}
	}

	raw, err := d.gen.GenerateImage(ctx, detectPrompt, image, mimeType)
	if err != nil {
		d.logger.Warn("topic detection failed", slog.String("error", err.Error()))
		return DetectResult{Topic: "Unknown", Variables: []string{}}
	}

	cleaned := cleanJSON(raw)

	parsed, ok := decodeJSON[map[string]any](cleaned)
	if !ok {
		d.logger.Warn("topic detection reply was not JSON", slog.String("reply", cleaned))
		return DetectResult{Topic: cleaned, Variables: []string{}}
	}

	return DetectResult{
		Topic:     topicFrom(parsed),
		Variables: variablesFrom(parsed["variables"]),
	}
}

// topicFrom extracts the topic, falling back through the alternate key names
// before giving up.
func topicFrom(m map[string]any) string {
	for _, key := range topicKeys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

// variablesFrom coerces whatever the model put under "variables" into a
// string list. Plain strings pass through; single-key objects contribute
// their key (the model sometimes emits {"v0": "initial velocity"}); anything
// else is stringified. The upstream shape is not contractually fixed, so
// extraction is defensive rather than exact.
func variablesFrom(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case map[string]any:
			keys := make([]string, 0, len(x))
			for k := range x {
				keys = append(keys, k)
			}
			if len(keys) > 0 {
				sort.Strings(keys)
				out = append(out, keys[0])
			}
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}
