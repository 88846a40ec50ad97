package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"precisionpulse/controller"
	e "precisionpulse/errors"
	"precisionpulse/middleware"
	"precisionpulse/mirror"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBackupBytes caps an uploaded backup document.
const maxBackupBytes = 64 << 20

type ExportHandler struct {
	export *controller.ExportService
	backup *controller.BackupService
	logger *zap.Logger
}

func NewExportHandler(export *controller.ExportService, backup *controller.BackupService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{export: export, backup: backup, logger: logger}
}

// ExportContainers streams the payout report as a download.
func (h *ExportHandler) ExportContainers(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out, err := h.export.Containers(r.Context(), middleware.GetUserFromContext(r.Context()), q, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	_, _ = w.Write(out.Body)
}

func (h *ExportHandler) Backup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backup.Export(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	name := fmt.Sprintf("precision-pulse-backup-%s.json", snap.CreatedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	writeJSON(w, http.StatusOK, snap)
}

func (h *ExportHandler) Restore(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	var snap mirror.Snapshot
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	if err := decodeBackup(r.Body, &snap); err != nil {
		writeError(w, h.logger, err)
		return
	}
	n, err := h.backup.Import(r.Context(), middleware.GetUserFromContext(r.Context()), &snap, confirm)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"restored": n})
}

func decodeBackup(body io.Reader, snap *mirror.Snapshot) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return e.Validation("data", "could not read backup: %v", err)
	}
	if err := json.Unmarshal(raw, snap); err != nil {
		return e.Validation("data", "backup is not valid JSON: %v", err)
	}
	return nil
}

// FileOpener serves signed downloads.
type FileOpener interface {
	Verify(bucket, objectPath, token string) error
	Open(bucket, objectPath string) (*os.File, error)
}

type FileHandler struct {
	files  FileOpener
	logger *zap.Logger
}

func NewFileHandler(files FileOpener, logger *zap.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Download serves /files/{bucket}/* when the token query parameter was
// signed for exactly that object.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	objectPath, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, h.logger, e.Validation("path", "invalid object path"))
		return
	}
	if err := h.files.Verify(bucket, objectPath, r.URL.Query().Get("token")); err != nil {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "link expired or invalid"})
		return
	}
	f, err := h.files.Open(bucket, objectPath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, objectPath, time.Time{}, f)
}

// Health reports whether the record store answers.
func Health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
