package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stemly/backend/internal/ai"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
	"github.com/stemly/backend/internal/storage"
)

// ScanService handles photo uploads: persist the image, run topic detection
// over it, and record the scan in the user's history.
type ScanService struct {
	files    *storage.Store
	detector *ai.Detector
	scans    repository.ScanRepository
	logger   *slog.Logger
}

func NewScanService(files *storage.Store, detector *ai.Detector, scans repository.ScanRepository, logger *slog.Logger) *ScanService {
	return &ScanService{files: files, detector: detector, scans: scans, logger: logger}
}

// ScanResult is what the client gets back from an upload.
type ScanResult struct {
	Topic     string   `json:"topic"`
	Variables []string `json:"variables"`
	ImagePath string   `json:"image_path"`
	HistoryID string   `json:"history_id"`
}

// Upload saves the image, detects its topic and records the scan.
//
// Storage validation failures (bad format, too large, empty) surface to the
// caller; detection never fails, so a saved image always produces a result.
func (s *ScanService) Upload(ctx context.Context, userID string, file io.Reader) (*ScanResult, error) {
	relPath, err := s.files.SaveScan(file)
	if err != nil {
		return nil, err
	}

	abs, err := s.files.ResolveScanPath(relPath)
	if err != nil {
		return nil, fmt.Errorf("service: resolving saved scan: %w", err)
	}
	image, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("service: reading saved scan: %w", err)
	}

	detected := s.detector.DetectTopic(ctx, image, mimeForScan(abs))

	scan := &model.Scan{
		UserID:    userID,
		Topic:     detected.Topic,
		Variables: detected.Variables,
		ImagePath: relPath,
	}
	if err := s.scans.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("service: recording scan: %w", err)
	}

	s.logger.Info("scan processed",
		slog.String("user", userID),
		slog.String("topic", detected.Topic),
		slog.String("id", scan.ID),
	)

	return &ScanResult{
		Topic:     detected.Topic,
		Variables: detected.Variables,
		ImagePath: relPath,
		HistoryID: scan.ID,
	}, nil
}

// History returns the user's scans, newest first.
func (s *ScanService) History(ctx context.Context, userID string, limit int) ([]model.Scan, error) {
	return s.scans.ListByUser(ctx, userID, clampLimit(limit))
}
