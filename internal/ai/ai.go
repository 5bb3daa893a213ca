// Package ai wraps the external generative model and the defensive parsing
// of its replies.
//
// The model is a remote service that is *asked* for strict JSON but does not
// reliably produce it: replies arrive wrapped in markdown fences, with
// renamed keys, or as plain prose. Every parser in this package therefore
// cleans first and decodes generously. Which failures are absorbed and which
// surface to the caller differs per feature:
//
//   - topic detection always answers something (the caller already paid for
//     an upload)
//   - notes generation fails hard (a half-formed notes object is not usable
//     by the client)
//   - chat and parameter adjustment degrade to a safe default and never
//     return an error
package ai

import "context"

// Generator is the minimal surface the rest of the system needs from the
// external model. The Gemini implementation lives in gemini.go; tests inject
// a canned fake.
type Generator interface {
	// GenerateText sends a text-only prompt and returns the raw reply text.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateImage sends a prompt together with image bytes so the model
	// can ground its answer in the original problem.
	GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}
