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

// ScanDB stores scan records. Records are insert-only: a scan is never
// modified after the upload that created it.
type ScanDB struct {
	conn *sql.DB
}

// compile-time check that *ScanDB implements repository.ScanRepository
var _ repository.ScanRepository = (*ScanDB)(nil)

// Create persists a scan record, filling in ID and CreatedAt.
func (s *ScanDB) Create(ctx context.Context, scan *model.Scan) error {
	if scan.UserID == "" {
		return apperror.ValidationFailed("user_id", "user id is required to save scan history")
	}

	variables, err := json.Marshal(scan.Variables)
	if err != nil {
		return fmt.Errorf("sqlite: encoding scan variables: %w", err)
	}

	scan.ID = xid.New().String()
	scan.CreatedAt = time.Now().UTC()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO scans (id, user_id, topic, variables, image_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		scan.ID,
		scan.UserID,
		scan.Topic,
		string(variables),
		scan.ImagePath,
		scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting scan for %s: %w", scan.UserID, err)
	}

	return nil
}

// ListByUser returns the user's scan history, newest first. An unknown or
// empty user id yields an empty slice, not an error.
func (s *ScanDB) ListByUser(ctx context.Context, userID string, limit int) ([]model.Scan, error) {
	if userID == "" {
		return []model.Scan{}, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, topic, variables, image_path, created_at
		 FROM scans WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scans for %s: %w", userID, err)
	}
	defer rows.Close()

	scans := []model.Scan{}
	for rows.Next() {
		var (
			scan      model.Scan
			variables string
		)
		if err := rows.Scan(
			&scan.ID,
			&scan.UserID,
			&scan.Topic,
			&variables,
			&scan.ImagePath,
			&scan.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(variables), &scan.Variables); err != nil {
			return nil, fmt.Errorf("sqlite: decoding scan variables: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scans: %w", err)
	}

	return scans, nil
}
