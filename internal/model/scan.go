package model

import "time"

// Scan records one uploaded problem photo together with what the vision
// model extracted from it. Records are immutable after creation.
type Scan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	Variables []string  `json:"variables"`
	ImagePath string    `json:"image_path"` // storage-relative, e.g. static/scans/<uuid>.png
	CreatedAt time.Time `json:"timestamp"`
}
