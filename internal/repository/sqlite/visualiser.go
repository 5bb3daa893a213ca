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

// VisualiserDB stores saved simulation states. Each save is a new entry;
// "updates" are expressed by the service layer as merge-then-insert, so the
// newest entry for (user, template) is always the current state.
type VisualiserDB struct {
	conn *sql.DB
}

// compile-time check that *VisualiserDB implements repository.VisualiserRepository
var _ repository.VisualiserRepository = (*VisualiserDB)(nil)

// Create persists one visualiser entry, filling in ID and CreatedAt.
func (v *VisualiserDB) Create(ctx context.Context, entry *model.VisualiserEntry) error {
	if entry.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save visualiser state")
	}

	params := entry.Parameters
	if params == nil {
		params = map[string]any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("sqlite: encoding visualiser parameters: %w", err)
	}

	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now().UTC()

	_, err = v.conn.ExecContext(ctx,
		`INSERT INTO visualiser (id, user_id, template_id, parameters, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.TemplateID,
		string(encoded),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting visualiser entry for %s: %w", entry.UserID, err)
	}

	return nil
}

// ListByUser returns the user's saved states, newest first.
func (v *VisualiserDB) ListByUser(ctx context.Context, userID string, limit int) ([]model.VisualiserEntry, error) {
	if userID == "" {
		return []model.VisualiserEntry{}, nil
	}

	rows, err := v.conn.QueryContext(ctx,
		`SELECT id, user_id, template_id, parameters, created_at
		 FROM visualiser WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing visualiser entries for %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.VisualiserEntry{}
	for rows.Next() {
		entry, err := scanVisualiserRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating visualiser entries: %w", err)
	}

	return entries, nil
}

// LatestByTemplate returns the newest saved state for (user, template), or
// nil when none exists.
func (v *VisualiserDB) LatestByTemplate(ctx context.Context, userID, templateID string) (*model.VisualiserEntry, error) {
	if userID == "" {
		return nil, nil
	}

	row := v.conn.QueryRowContext(ctx,
		`SELECT id, user_id, template_id, parameters, created_at
		 FROM visualiser WHERE user_id = ? AND template_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		userID, templateID,
	)

	entry, err := scanVisualiserRow(row.Scan)
	if err != nil {
		if err == errNoVisualiserRow {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

var errNoVisualiserRow = apperror.NotFound("visualiser entry", "latest")

func scanVisualiserRow(scan func(dest ...any) error) (*model.VisualiserEntry, error) {
	var (
		entry  model.VisualiserEntry
		params string
	)
	err := scan(
		&entry.ID,
		&entry.UserID,
		&entry.TemplateID,
		&params,
		&entry.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errNoVisualiserRow
		}
		return nil, fmt.Errorf("sqlite: scanning visualiser row: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &entry.Parameters); err != nil {
		return nil, fmt.Errorf("sqlite: decoding visualiser parameters: %w", err)
	}
	return &entry, nil
}
