package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

func TestScanCreateAndList(t *testing.T) {
	db := newTestDB(t)
	s := db.Scans()
	ctx := context.Background()

	scan := &model.Scan{
		UserID:    "u1",
		Topic:     "Projectile Motion",
		Variables: []string{"v0", "angle", "g"},
		ImagePath: "static/scans/abc.png",
	}
	if err := s.Create(ctx, scan); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if scan.ID == "" {
		t.Error("Create() did not set scan.ID")
	}
	if scan.CreatedAt.IsZero() {
		t.Error("Create() did not set scan.CreatedAt")
	}

	got, err := s.ListByUser(ctx, "u1", 20)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListByUser() returned %d scans, want 1", len(got))
	}
	if got[0].Topic != "Projectile Motion" {
		t.Errorf("Topic = %q", got[0].Topic)
	}
	if !reflect.DeepEqual(got[0].Variables, []string{"v0", "angle", "g"}) {
		t.Errorf("Variables = %v", got[0].Variables)
	}
}

func TestScanList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	s := db.Scans()
	ctx := context.Background()

	for _, topic := range []string{"first", "second", "third"} {
		if err := s.Create(ctx, &model.Scan{UserID: "u1", Topic: topic}); err != nil {
			t.Fatalf("Create(%s) error = %v", topic, err)
		}
	}

	got, err := s.ListByUser(ctx, "u1", 20)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByUser() returned %d scans, want 3", len(got))
	}
	if got[0].Topic != "third" || got[2].Topic != "first" {
		t.Errorf("order = [%s %s %s], want newest first", got[0].Topic, got[1].Topic, got[2].Topic)
	}
}

func TestScanList_LimitAndIsolation(t *testing.T) {
	db := newTestDB(t)
	s := db.Scans()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Create(ctx, &model.Scan{UserID: "u1", Topic: "t"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := s.Create(ctx, &model.Scan{UserID: "u2", Topic: "other"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.ListByUser(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("ListByUser() returned %d scans, want limit 3", len(got))
	}
	for _, scan := range got {
		if scan.UserID != "u1" {
			t.Errorf("leaked scan for user %q into u1's history", scan.UserID)
		}
	}
}

func TestScanCreate_RequiresUserID(t *testing.T) {
	db := newTestDB(t)

	err := db.Scans().Create(context.Background(), &model.Scan{Topic: "Optics"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
}

func TestScanList_UnknownUserIsEmpty(t *testing.T) {
	db := newTestDB(t)

	for _, uid := range []string{"", "nobody"} {
		got, err := db.Scans().ListByUser(context.Background(), uid, 20)
		if err != nil {
			t.Fatalf("ListByUser(%q) error = %v", uid, err)
		}
		if len(got) != 0 {
			t.Errorf("ListByUser(%q) returned %d scans, want 0", uid, len(got))
		}
	}
}
