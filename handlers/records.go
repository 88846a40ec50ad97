package handlers

import (
	"context"
	"net/http"

	"precisionpulse/controller"
	"precisionpulse/middleware"
	"precisionpulse/models"
	"precisionpulse/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordService is the shape every building-scoped page controller shares.
type recordService[T any, In any] interface {
	List(ctx context.Context, user *models.User, q store.Query) (*controller.Listing[T], error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*controller.Item[T], error)
	Create(ctx context.Context, user *models.User, in In) (*T, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, in In) (*T, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
}

// RecordHandler serves list/get/create/update/delete for one entity.
type RecordHandler[T any, In any] struct {
	service recordService[T, In]
	logger  *zap.Logger
}

func NewRecordHandler[T any, In any](service recordService[T, In], logger *zap.Logger) *RecordHandler[T, In] {
	return &RecordHandler[T, In]{service: service, logger: logger}
}

// Mount registers the standard routes on r.
func (h *RecordHandler[T, In]) Mount(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *RecordHandler[T, In]) List(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	listing, err := h.service.List(r.Context(), middleware.GetUserFromContext(r.Context()), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *RecordHandler[T, In]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	item, err := h.service.Get(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *RecordHandler[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.service.Create(r.Context(), middleware.GetUserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecordHandler[T, In]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.service.Update(r.Context(), middleware.GetUserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), middleware.GetUserFromContext(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
