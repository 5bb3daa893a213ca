package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/apperror"
)

const notesReply = `{
  "explanation": "A projectile follows a parabolic path.",
  "variable_breakdown": {"v0": "initial velocity"},
  "formulas": ["R = v0^2 sin(2a) / g"],
  "example": "A ball thrown at 45 degrees...",
  "mistakes": ["forgetting air resistance is ignored"],
  "practice_questions": ["What angle maximises range?"],
  "summary": ["range depends on angle and speed"],
  "resources": ["https://example.com/projectiles"]
}`

func TestNotesGenerate(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{reply: notesReply}
	repo := &fakeNotesRepo{}
	svc := NewNotesService(store, ai.NewNotesGenerator(gen, testLogger()), repo, testLogger())

	notes, err := svc.Generate(context.Background(), "u1", "Projectile Motion", []string{"v0"}, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if notes.Explanation == "" {
		t.Error("Explanation is empty")
	}
	if gen.textCalls != 1 || gen.imageCalls != 0 {
		t.Errorf("calls = (text %d, image %d), want text-only", gen.textCalls, gen.imageCalls)
	}
	if len(repo.entries) != 1 || repo.entries[0].Topic != "Projectile Motion" {
		t.Errorf("recorded entries = %+v", repo.entries)
	}
}

func TestNotesGenerate_WithImage(t *testing.T) {
	store := newTestStore(t)
	rel := savedScan(t, store)
	gen := &fakeGenerator{reply: notesReply}
	repo := &fakeNotesRepo{}
	svc := NewNotesService(store, ai.NewNotesGenerator(gen, testLogger()), repo, testLogger())

	_, err := svc.Generate(context.Background(), "u1", "Projectile Motion", nil, rel)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.imageCalls != 1 {
		t.Errorf("image calls = %d, want 1", gen.imageCalls)
	}
	if repo.entries[0].ImagePath != rel {
		t.Errorf("recorded ImagePath = %q, want %q", repo.entries[0].ImagePath, rel)
	}
}

func TestNotesGenerate_BadImagePath(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{reply: notesReply}
	repo := &fakeNotesRepo{}
	svc := NewNotesService(store, ai.NewNotesGenerator(gen, testLogger()), repo, testLogger())

	_, err := svc.Generate(context.Background(), "u1", "Optics", nil, "../../etc/passwd")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Generate() error = %v, want validation error", err)
	}
	if gen.textCalls != 0 || gen.imageCalls != 0 {
		t.Error("generation ran despite an invalid image path")
	}
	if len(repo.entries) != 0 {
		t.Error("an entry was recorded despite an invalid image path")
	}
}

func TestNotesFollowUp_DropsStaleImageReference(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{reply: notesReply}
	svc := NewNotesService(store, ai.NewNotesGenerator(gen, testLogger()), &fakeNotesRepo{}, testLogger())

	previous := map[string]any{
		"explanation": "old notes",
		"image_path":  "static/scans/deleted-long-ago.png",
	}
	_, err := svc.FollowUp(context.Background(), "u1", "Optics", previous, "can you expand on refraction?")
	if err != nil {
		t.Fatalf("FollowUp() error = %v", err)
	}

	if strings.Contains(gen.lastPrompt, "deleted-long-ago") {
		t.Error("stale image reference leaked into the prompt")
	}
	if _, ok := previous["image_path"]; ok {
		t.Error("stale image_path still present in previous notes")
	}
}

func TestNotesFollowUp_KeepsValidImageReference(t *testing.T) {
	store := newTestStore(t)
	rel := savedScan(t, store)
	gen := &fakeGenerator{reply: notesReply}
	svc := NewNotesService(store, ai.NewNotesGenerator(gen, testLogger()), &fakeNotesRepo{}, testLogger())

	previous := map[string]any{"explanation": "old notes", "image_path": rel}
	_, err := svc.FollowUp(context.Background(), "u1", "Optics", previous, "more please")
	if err != nil {
		t.Fatalf("FollowUp() error = %v", err)
	}

	if !strings.Contains(gen.lastPrompt, rel) {
		t.Error("valid image reference missing from the prompt")
	}
}

func TestNotesGenerate_AIUnavailable(t *testing.T) {
	store := newTestStore(t)
	svc := NewNotesService(store, ai.NewNotesGenerator(nil, testLogger()), &fakeNotesRepo{}, testLogger())

	_, err := svc.Generate(context.Background(), "u1", "Optics", nil, "")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrUnavailable", err)
	}
}
