package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/apperror"
)

func newVisualiserService(gen ai.Generator, repo *fakeVisualiserRepo) *VisualiserService {
	return NewVisualiserService(ai.NewAdjuster(gen, testLogger()), repo, testLogger())
}

func TestVisualiserGenerate(t *testing.T) {
	repo := &fakeVisualiserRepo{}
	svc := newVisualiserService(nil, repo)

	result, err := svc.Generate(context.Background(), "u1", "Projectile Motion", false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Template.TemplateID != "projectile_motion" {
		t.Errorf("TemplateID = %q", result.Template.TemplateID)
	}
	if result.Parameters["g"] != 9.81 {
		t.Errorf("default g = %v, want 9.81", result.Parameters["g"])
	}
	if result.StateID != "" {
		t.Errorf("StateID = %q without save", result.StateID)
	}
	if len(repo.entries) != 0 {
		t.Error("state persisted without save")
	}
}

func TestVisualiserGenerate_SavesInitialState(t *testing.T) {
	repo := &fakeVisualiserRepo{}
	svc := newVisualiserService(nil, repo)

	result, err := svc.Generate(context.Background(), "u1", "free fall", true)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.StateID == "" {
		t.Error("StateID is empty with save")
	}
	if len(repo.entries) != 1 || repo.entries[0].TemplateID != "free_fall" {
		t.Errorf("recorded entries = %+v", repo.entries)
	}
}

func TestVisualiserGenerate_UnknownTopic(t *testing.T) {
	svc := newVisualiserService(nil, &fakeVisualiserRepo{})

	_, err := svc.Generate(context.Background(), "u1", "quantum chromodynamics", false)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Generate() error = %v, want ErrNotFound", err)
	}
}

func TestVisualiserUpdate_MergesOverLatest(t *testing.T) {
	repo := &fakeVisualiserRepo{}
	svc := newVisualiserService(nil, repo)
	ctx := context.Background()

	if _, err := svc.SaveState(ctx, "u1", "shm", map[string]any{"mass": 2.0, "k": 10.0}); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	result, err := svc.Update(ctx, "u1", "shm", map[string]any{"k": 25.0, "damping": 0.3}, "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Updated keys win, untouched keys survive, defaults fill the rest.
	if result.Parameters["k"] != 25.0 {
		t.Errorf("k = %v, want the updated 25", result.Parameters["k"])
	}
	if result.Parameters["damping"] != 0.3 {
		t.Errorf("damping = %v, want the updated 0.3", result.Parameters["damping"])
	}
	if result.Parameters["mass"] != 2.0 {
		t.Errorf("mass = %v, want the prior snapshot's 2", result.Parameters["mass"])
	}
	if result.Parameters["amplitude"] != 0.5 {
		t.Errorf("amplitude = %v, want the template default 0.5", result.Parameters["amplitude"])
	}

	if len(repo.entries) != 2 {
		t.Fatalf("recorded %d entries, want the original plus the merged snapshot", len(repo.entries))
	}
}

func TestVisualiserUpdate_NoPriorStateUsesDefaults(t *testing.T) {
	repo := &fakeVisualiserRepo{}
	svc := newVisualiserService(nil, repo)

	result, err := svc.Update(context.Background(), "u1", "projectile_motion", map[string]any{"v0": 30.0}, "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if result.Parameters["v0"] != 30.0 {
		t.Errorf("v0 = %v, want 30", result.Parameters["v0"])
	}
	if result.Parameters["angle"] != 45.0 {
		t.Errorf("angle = %v, want the template default 45", result.Parameters["angle"])
	}
}

func TestVisualiserUpdate_PromptRunsAdjuster(t *testing.T) {
	repo := &fakeVisualiserRepo{}
	gen := &fakeGenerator{reply: `{"updated_parameters": {"v0": 50.0, "angle": 60.0}, "explanation": "Increased launch speed."}`}
	svc := newVisualiserService(gen, repo)

	result, err := svc.Update(context.Background(), "u1", "projectile_motion", map[string]any{"angle": 30.0}, "make it go faster")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if result.Parameters["v0"] != 50.0 {
		t.Errorf("v0 = %v, want the adjuster's 50", result.Parameters["v0"])
	}
	// Explicit client parameters win over the adjuster's suggestion.
	if result.Parameters["angle"] != 30.0 {
		t.Errorf("angle = %v, want the caller's 30", result.Parameters["angle"])
	}
	if result.Explanation != "Increased launch speed." {
		t.Errorf("Explanation = %q", result.Explanation)
	}
}

func TestVisualiserUpdate_UnknownTemplate(t *testing.T) {
	svc := newVisualiserService(nil, &fakeVisualiserRepo{})

	_, err := svc.Update(context.Background(), "u1", "warp_drive", nil, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestVisualiserSaveState_RequiresTemplateID(t *testing.T) {
	svc := newVisualiserService(nil, &fakeVisualiserRepo{})

	_, err := svc.SaveState(context.Background(), "u1", "", map[string]any{"x": 1.0})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("SaveState() error = %v, want validation error", err)
	}
}
