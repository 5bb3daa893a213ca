package service

import (
	"context"
	"testing"

	"github.com/stemly/backend/internal/ai"
)

func TestChatAsk(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{reply: `{"response": "Gravity pulls it down.", "update_type": "explanation"}`}
	svc := NewChatService(store, ai.NewChat(gen, testLogger()), testLogger())

	resp := svc.Ask(context.Background(), "u1", ChatRequest{
		Prompt: "why does the ball curve?",
		Topic:  "Projectile Motion",
	})

	if resp.Response != "Gravity pulls it down." {
		t.Errorf("Response = %q", resp.Response)
	}
	if gen.imageCalls != 0 {
		t.Errorf("image calls = %d for an imageless request", gen.imageCalls)
	}
}

func TestChatAsk_GroundsInImage(t *testing.T) {
	store := newTestStore(t)
	rel := savedScan(t, store)
	gen := &fakeGenerator{reply: `{"response": "ok", "update_type": "explanation"}`}
	svc := NewChatService(store, ai.NewChat(gen, testLogger()), testLogger())

	svc.Ask(context.Background(), "u1", ChatRequest{Prompt: "explain", ImagePath: rel})

	if gen.imageCalls != 1 {
		t.Errorf("image calls = %d, want 1", gen.imageCalls)
	}
}

func TestChatAsk_BadImagePathFallsBackToText(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{reply: `{"response": "ok", "update_type": "explanation"}`}
	svc := NewChatService(store, ai.NewChat(gen, testLogger()), testLogger())

	resp := svc.Ask(context.Background(), "u1", ChatRequest{
		Prompt:    "explain",
		ImagePath: "static/scans/never-existed.png",
	})

	if resp.Response != "ok" {
		t.Errorf("Response = %q, want the text-only answer", resp.Response)
	}
	if gen.imageCalls != 0 {
		t.Errorf("image calls = %d for an unresolvable image", gen.imageCalls)
	}
	if gen.textCalls != 1 {
		t.Errorf("text calls = %d, want 1", gen.textCalls)
	}
}

func TestChatAsk_NeverErrors(t *testing.T) {
	store := newTestStore(t)
	svc := NewChatService(store, ai.NewChat(nil, testLogger()), testLogger())

	resp := svc.Ask(context.Background(), "u1", ChatRequest{Prompt: "hello"})
	if resp.Response == "" {
		t.Error("Response is empty; the chat must always answer")
	}
}
