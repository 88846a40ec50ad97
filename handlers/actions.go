package handlers

import (
	"net/http"

	"precisionpulse/controller"
	e "precisionpulse/errors"
	"precisionpulse/middleware"
	"precisionpulse/models"

	"go.uber.org/zap"
)

// maxUploadBytes caps one injury report attachment.
const maxUploadBytes = 25 << 20

// ActionHandler serves the workflow endpoints that go beyond plain CRUD.
type ActionHandler struct {
	services *controller.Services
	logger   *zap.Logger
}

func NewActionHandler(services *controller.Services, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{services: services, logger: logger}
}

// QuoteContainer previews pay and payouts for the container editor.
func (h *ActionHandler) QuoteContainer(w http.ResponseWriter, r *http.Request) {
	var in controller.ContainerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if in.PiecesTotal < 0 {
		writeError(w, h.logger, e.Validation("pieces_total", "must not be negative"))
		return
	}
	writeJSON(w, http.StatusOK, h.services.Containers.Quote(in))
}

func (h *ActionHandler) MoveCandidateStage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		Stage models.CandidateStage `json:"stage"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.services.Candidates.MoveStage(r.Context(), middleware.GetUserFromContext(r.Context()), id, req.Stage)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ActionHandler) SubmitInjuryReport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.services.InjuryReports.Submit(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ActionHandler) CloseInjuryReport(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.services.InjuryReports.Close(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ActionHandler) ListInjuryFiles(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	files, err := h.services.InjuryReports.Files(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// UploadInjuryFile takes one multipart "file" field per request.
func (h *ActionHandler) UploadInjuryFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, e.Validation("file", "a file upload is required"))
		return
	}
	defer file.Close()

	row, err := h.services.InjuryReports.AttachFile(r.Context(), middleware.GetUserFromContext(r.Context()),
		id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (h *ActionHandler) CompleteChecklist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	rec, err := h.services.Checklists.Complete(r.Context(), middleware.GetUserFromContext(r.Context()), id, req.Notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ActionHandler) ListChat(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	listing, err := h.services.Chat.List(r.Context(), middleware.GetUserFromContext(r.Context()), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ActionHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	var in controller.ChatInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	msg, err := h.services.Chat.Post(r.Context(), middleware.GetUserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ActionHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	msg, err := h.services.Chat.TogglePin(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *ActionHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.services.Chat.Delete(r.Context(), middleware.GetUserFromContext(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
