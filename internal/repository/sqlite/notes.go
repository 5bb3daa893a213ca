package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
)

// NotesDB stores generated study-notes entries.
type NotesDB struct {
	conn *sql.DB
}

// compile-time check that *NotesDB implements repository.NotesRepository
var _ repository.NotesRepository = (*NotesDB)(nil)

// Create persists one notes entry, filling in ID and CreatedAt.
func (n *NotesDB) Create(ctx context.Context, entry *model.NotesEntry) error {
	if entry.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save notes")
	}

	payload, err := json.Marshal(entry.Notes)
	if err != nil {
		return fmt.Errorf("sqlite: encoding notes payload: %w", err)
	}

	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now().UTC()

	_, err = n.conn.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, topic, payload, image_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Topic,
		string(payload),
		entry.ImagePath,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting notes for %s: %w", entry.UserID, err)
	}

	return nil
}

// ListByUser returns the user's notes entries, newest first.
func (n *NotesDB) ListByUser(ctx context.Context, userID string, limit int) ([]model.NotesEntry, error) {
	if userID == "" {
		return []model.NotesEntry{}, nil
	}

	rows, err := n.conn.QueryContext(ctx,
		`SELECT id, user_id, topic, payload, image_path, created_at
		 FROM notes WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes for %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.NotesEntry{}
	for rows.Next() {
		var (
			entry   model.NotesEntry
			payload string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Topic,
			&payload,
			&entry.ImagePath,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notes row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Notes); err != nil {
			return nil, fmt.Errorf("sqlite: decoding notes payload: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return entries, nil
}
