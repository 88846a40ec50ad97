package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors onto status codes. Anything it does not
// recognise is a 500 and gets logged.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if v, ok := e.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: v.Message, Field: v.Field})
		return
	}
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, e.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Not allowed"})
	case errors.Is(err, e.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, e.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, e.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return e.Validation("", "invalid JSON body: %v", err)
	}
	return nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, e.Validation("id", "invalid id")
	}
	return id, nil
}

// listQuery reads the common list filters from the query string.
func listQuery(r *http.Request) (store.Query, error) {
	values := r.URL.Query()
	var q store.Query
	if s := values.Get("building"); s != "" {
		b, ok := models.ParseBuilding(s)
		if !ok {
			return q, e.Validation("building", "unknown building %q", s)
		}
		q.Building = b
	}
	if s := values.Get("shift"); s != "" {
		sh, ok := models.ParseShift(s)
		if !ok {
			return q, e.Validation("shift", "unknown shift %q", s)
		}
		q.Shift = sh
	}
	q.WorkDate = values.Get("work_date")
	q.Status = values.Get("status")
	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, e.Validation("limit", "must be a positive number")
		}
		q.Limit = n
	}
	return q, nil
}
