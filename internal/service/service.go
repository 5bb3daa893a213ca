// Package service implements the application's use cases on top of the ai,
// storage and repository packages. Handlers call into here with primitives
// and get domain results or typed errors back; nothing in this package knows
// about HTTP.
package service

import (
	"path/filepath"
	"strings"
)

// defaultHistoryLimit bounds list queries when the caller doesn't ask for a
// specific page size.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}

// mimeForScan derives the MIME type from a stored scan's extension. Stored
// scans only ever have the two extensions SaveScan assigns.
func mimeForScan(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
