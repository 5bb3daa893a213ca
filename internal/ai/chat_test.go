package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChatRespond_ParameterChange(t *testing.T) {
	gen := &fakeGenerator{reply: `{
		"response": "Set the launch speed to 30 m/s.",
		"parameter_updates": {"v0": 30},
		"update_type": "parameter_change"
	}`}
	c := NewChat(gen, testLogger())

	got := c.Respond(context.Background(), ChatContext{
		UserPrompt: "make the velocity 30",
		Topic:      "Projectile Motion",
		Variables:  []string{"v0", "angle"},
		TemplateID: "projectile_motion",
		CurrentParams: map[string]any{
			"v0": 20, "angle": 45,
		},
	})

	if got.UpdateType != UpdateParameterChange {
		t.Errorf("UpdateType = %q, want %q", got.UpdateType, UpdateParameterChange)
	}
	if got.ParameterUpdates["v0"] != float64(30) {
		t.Errorf("ParameterUpdates[v0] = %v, want 30", got.ParameterUpdates["v0"])
	}
	if !strings.Contains(gen.lastPrompt, "Current simulation: projectile_motion") {
		t.Error("prompt does not embed the template id")
	}
}

func TestChatRespond_FailureReturnsSafeDefault(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport failure", &fakeGenerator{err: errors.New("timeout")}},
		{"unparseable reply", &fakeGenerator{reply: "let me think about that..."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChat(tt.gen, testLogger())
			got := c.Respond(context.Background(), ChatContext{UserPrompt: "hi", Topic: "Optics"})

			if got.UpdateType != UpdateExplanation {
				t.Errorf("UpdateType = %q, want %q", got.UpdateType, UpdateExplanation)
			}
			if got.Response == "" {
				t.Error("Response is empty; the fallback must still say something")
			}
			if len(got.ParameterUpdates) != 0 {
				t.Errorf("ParameterUpdates = %v, want empty", got.ParameterUpdates)
			}
		})
	}
}

func TestChatRespond_VisionFallsBackToText(t *testing.T) {
	// First call (vision) returns prose, second call (text) valid JSON.
	gen := &flakyGenerator{
		imageReply: "I cannot read this image.",
		textReply:  `{"response": "An answer.", "update_type": "explanation"}`,
	}
	c := NewChat(gen, testLogger())

	got := c.Respond(context.Background(), ChatContext{
		UserPrompt: "why does it curve?",
		Topic:      "Projectile Motion",
		Image:      []byte("imgbytes"),
		ImageMIME:  "image/png",
	})

	if got.Response != "An answer." {
		t.Errorf("Response = %q, want the text-mode answer", got.Response)
	}
	if gen.imageCalls != 1 || gen.textCalls != 1 {
		t.Errorf("calls = %d image / %d text, want 1/1", gen.imageCalls, gen.textCalls)
	}
}

func TestChatRespond_UnknownUpdateTypeClamped(t *testing.T) {
	gen := &fakeGenerator{reply: `{"response": "ok", "update_type": "banana"}`}
	c := NewChat(gen, testLogger())

	got := c.Respond(context.Background(), ChatContext{UserPrompt: "hi"})
	if got.UpdateType != UpdateExplanation {
		t.Errorf("UpdateType = %q, want clamped to %q", got.UpdateType, UpdateExplanation)
	}
}

func TestChatRespond_DisabledAI(t *testing.T) {
	c := NewChat(nil, testLogger())

	got := c.Respond(context.Background(), ChatContext{UserPrompt: "hi"})
	if got.UpdateType != UpdateExplanation || got.Response == "" {
		t.Errorf("Respond() with nil generator = %+v, want explanation default", got)
	}
}

// flakyGenerator answers vision and text calls differently.
type flakyGenerator struct {
	imageReply string
	textReply  string
	imageCalls int
	textCalls  int
}

func (f *flakyGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	f.textCalls++
	return f.textReply, nil
}

func (f *flakyGenerator) GenerateImage(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	f.imageCalls++
	return f.imageReply, nil
}
