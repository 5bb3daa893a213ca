package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/service"
	"github.com/stemly/backend/internal/storage"
)

// ScanService is what the scan endpoints need from the service layer.
type ScanService interface {
	Upload(ctx context.Context, userID string, file io.Reader) (*service.ScanResult, error)
	History(ctx context.Context, userID string, limit int) ([]model.Scan, error)
}

// ScanHandler serves photo upload and scan history.
type ScanHandler struct {
	scans  ScanService
	logger *slog.Logger
}

func NewScanHandler(scans ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scans: scans, logger: logger}
}

// HandlePing is the connectivity check the mobile app calls on startup.
//
// HTTP: GET /scan/ping
func (h *ScanHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleUpload accepts a multipart image upload, runs topic detection and
// records the scan.
//
// HTTP: POST /scan/upload, multipart field "file"
func (h *ScanHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	// The multipart envelope adds a little overhead on top of the image
	// ceiling; the storage layer enforces the exact image limit.
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxScanBytes+(1<<20))

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	result, err := h.scans.Upload(r.Context(), identity.UID, file)
	if err != nil {
		h.logger.Warn("scan upload rejected", slog.String("user", identity.UID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		*service.ScanResult
	}{Status: "success", ScanResult: result})
}

// HandleHistory returns the user's scans, newest first.
//
// HTTP: GET /scan/history?limit=
func (h *ScanHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	scans, err := h.scans.History(r.Context(), identity.UID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if scans == nil {
		scans = []model.Scan{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": scans})
}

// queryLimit reads the optional ?limit= parameter; 0 means "use the default".
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}
