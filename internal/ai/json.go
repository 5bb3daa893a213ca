package ai

import (
	"encoding/json"
	"strings"
)

// cleanJSON strips markdown code-fence markers from a model reply. The
// prompts forbid fences, and the model adds them anyway often enough that
// every parse goes through this first.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// decodeJSON is the decode-with-fallback step for untrusted model replies:
// clean, then unmarshal. The second return is false when the reply is not
// usable JSON; callers branch once on it and never see a parse error.
func decodeJSON[T any](raw string) (T, bool) {
	var v T
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
