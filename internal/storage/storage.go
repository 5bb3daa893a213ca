// Package storage owns the scan file store: writing validated uploads under
// the scans directory and resolving caller-supplied image paths back into it.
//
// Two rules hold everywhere in this package:
//  1. File contents are trusted only after magic-byte sniffing. Client
//     headers (content type, filename, extension) are attacker-controlled
//     and never consulted.
//  2. Caller-supplied paths are only ever accepted when the resolved path is
//     a structural descendant of the scans directory. String-prefix
//     comparison is not containment: "scans-archive" starts with "scans".
package storage

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/stemly/backend/internal/apperror"
)

const (
	// MaxScanBytes is the hard ceiling on a single upload.
	MaxScanBytes = 5 << 20 // 5 MiB

	// chunkSize is how much we read per iteration while enforcing the
	// ceiling, so an oversized body is rejected without buffering all of it.
	chunkSize = 1 << 20
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// Store writes scans below dataDir/static/scans and resolves relative image
// paths against dataDir. The base is fixed at construction; nothing in this
// package looks at the process working directory.
type Store struct {
	dataDir  string
	scansDir string
	logger   *slog.Logger
}

// New creates a Store rooted at dataDir. dataDir must be absolute (config
// guarantees this for the server; tests pass t.TempDir()).
func New(dataDir string, logger *slog.Logger) *Store {
	return &Store{
		dataDir:  filepath.Clean(dataDir),
		scansDir: filepath.Join(dataDir, "static", "scans"),
		logger:   logger,
	}
}

// SaveScan validates and persists one uploaded image.
//
// The stream is read in fixed-size chunks and rejected as soon as the total
// exceeds MaxScanBytes. The file is written in a single WriteFile call after
// every check has passed, so a rejected upload leaves zero files behind.
//
// Returns the storage-relative path, e.g. "static/scans/<uuid>.png".
func (s *Store) SaveScan(r io.Reader) (string, error) {
	var contents bytes.Buffer
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if contents.Len()+n > MaxScanBytes {
				return "", apperror.ValidationFailed("file", "file too large; maximum allowed size is 5 MiB")
			}
			contents.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("storage: reading upload: %w", err)
		}
	}

	if contents.Len() == 0 {
		return "", apperror.ValidationFailed("file", "uploaded file is empty")
	}

	ext, ok := sniffExtension(contents.Bytes())
	if !ok {
		return "", apperror.ValidationFailed("file", "invalid file format; only PNG and JPEG are allowed")
	}

	if err := os.MkdirAll(s.scansDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: creating scans directory: %w", err)
	}

	// The filename is generated, never derived from client input.
	name := uuid.New().String() + ext
	dst := filepath.Join(s.scansDir, name)

	if err := os.WriteFile(dst, contents.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("storage: writing scan file: %w", err)
	}

	s.logger.Info("scan saved",
		slog.String("file", name),
		slog.Int("bytes", contents.Len()),
	)

	return filepath.ToSlash(filepath.Join("static", "scans", name)), nil
}

// sniffExtension inspects the leading bytes and returns the extension for
// the detected signature.
func sniffExtension(b []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(b, pngMagic):
		return ".png", true
	case bytes.HasPrefix(b, jpegMagic):
		return ".jpg", true
	default:
		return "", false
	}
}

// ResolveScanPath validates a caller-supplied image path and returns the
// absolute path of the scan file it names.
//
// Relative paths resolve against the store's data dir, so records carrying
// "static/scans/<name>" round-trip regardless of where the process was
// launched. The resolved path must be a descendant of the scans directory
// and must name an existing regular file; the two failures carry distinct
// messages but both surface as validation errors.
func (s *Store) ResolveScanPath(imagePath string) (string, error) {
	if imagePath == "" {
		return "", apperror.ValidationFailed("image_path", "image_path is required for scan lookup")
	}

	path := imagePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dataDir, path)
	}
	path = filepath.Clean(path)

	if !isDescendant(s.scansDir, path) {
		s.logger.Warn("scan path outside storage root",
			slog.String("input", imagePath),
			slog.String("resolved", path),
		)
		return "", apperror.ValidationFailed("image_path", "image_path must reference a saved scan asset")
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", apperror.ValidationFailed("image_path", "referenced scan image does not exist")
	}

	return path, nil
}

// RelativePath converts an absolute path inside the store back to the
// storage-relative form persisted in records ("static/scans/<name>").
func (s *Store) RelativePath(abs string) string {
	rel, err := filepath.Rel(s.dataDir, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// isDescendant reports whether path is strictly inside root, decided
// structurally via filepath.Rel rather than string prefixing.
func isDescendant(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !filepath.IsAbs(rel) && rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	const up = ".." + string(filepath.Separator)
	return len(rel) >= len(up) && rel[:len(up)] == up
}
