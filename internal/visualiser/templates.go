// Package visualiser holds the predefined simulation templates and the
// topic-name lookup that maps a detected topic onto one of them.
//
// Templates are JSON files embedded at build time, so the binary ships with
// its template catalogue and the lookup never touches the filesystem.
package visualiser

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stemly/backend/internal/apperror"
)

//go:embed templates/*.json
var templateFS embed.FS

// Template is a predefined simulation definition with its default parameter
// set and the allowed range for each parameter.
type Template struct {
	TemplateID  string                `json:"template_id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  map[string]any        `json:"parameters"`
	Ranges      map[string]ParamRange `json:"ranges"`
}

// ParamRange bounds one slider in the client UI.
type ParamRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
	Unit string  `json:"unit"`
}

// topicAliases maps normalised topic names (lowercased, trimmed) onto
// template files. The vision model is not consistent about naming, so a few
// spellings per template are accepted.
var topicAliases = map[string]string{
	"projectile motion":      "projectile_motion.json",
	"projectile_motion":      "projectile_motion.json",
	"projectile":             "projectile_motion.json",
	"free fall":              "free_fall.json",
	"free_fall":              "free_fall.json",
	"shm":                    "shm.json",
	"simple harmonic motion": "shm.json",
	"harmonic":               "shm.json",
}

// ByTopic returns the template for a detected topic, or ErrNotFound when no
// template covers it.
func ByTopic(topic string) (*Template, error) {
	key := strings.ToLower(strings.TrimSpace(topic))
	if key == "" {
		return nil, apperror.NotFound("template", topic)
	}

	filename, ok := topicAliases[key]
	if !ok {
		return nil, apperror.NotFound("template", topic)
	}

	return load(filename)
}

// ByID returns the template with the given template id.
func ByID(templateID string) (*Template, error) {
	filename := templateID + ".json"
	if _, err := templateFS.Open("templates/" + filename); err != nil {
		return nil, apperror.NotFound("template", templateID)
	}
	return load(filename)
}

func load(filename string) (*Template, error) {
	data, err := templateFS.ReadFile("templates/" + filename)
	if err != nil {
		return nil, fmt.Errorf("visualiser: reading template %s: %w", filename, err)
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("visualiser: decoding template %s: %w", filename, err)
	}
	return &t, nil
}

// FillDefaults returns the template's initial parameter map as a fresh copy,
// safe for the caller to mutate.
func (t *Template) FillDefaults() map[string]any {
	params := make(map[string]any, len(t.Parameters))
	for k, v := range t.Parameters {
		params[k] = v
	}
	return params
}
