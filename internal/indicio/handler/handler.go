// Package handler exposes indicio management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dicri/internal/indicio/models"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/httputil"
	"dicri/pkg/requestcontext"
)

// Service defines the interface for indicio operations.
type Service interface {
	Create(ctx context.Context, expedienteID id.ExpedienteID, cmd models.CreateIndicioCommand, caller id.Caller) (*models.Indicio, error)
	Get(ctx context.Context, indicioID id.IndicioID) (*models.Indicio, error)
	Update(ctx context.Context, indicioID id.IndicioID, attrs models.Attributes, caller id.Caller) (*models.Indicio, error)
	Delete(ctx context.Context, indicioID id.IndicioID, caller id.Caller) error
	ListByExpediente(ctx context.Context, expedienteID id.ExpedienteID) ([]*models.Indicio, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts indicio endpoints relative to the API prefix.
func (h *Handler) Register(r chi.Router) {
	r.Route("/indicios", func(r chi.Router) {
		r.Post("/expediente/{expedienteID}", h.HandleCreate)
		r.Get("/expediente/{expedienteID}", h.HandleListByExpediente)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, err := id.ParseExpedienteID(chi.URLParam(r, "expedienteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateIndicioRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	in, err := h.service.Create(ctx, expedienteID, req.Command(), caller)
	if err != nil {
		h.fail(w, r, "create indicio failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, in)
}

func (h *Handler) HandleListByExpediente(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	expedienteID, err := id.ParseExpedienteID(chi.URLParam(r, "expedienteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items, err := h.service.ListByExpediente(r.Context(), expedienteID)
	if err != nil {
		h.fail(w, r, "list indicios failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	indicioID, ok := h.indicioID(w, r)
	if !ok {
		return
	}

	in, err := h.service.Get(r.Context(), indicioID)
	if err != nil {
		h.fail(w, r, "get indicio failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, in)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	indicioID, ok := h.indicioID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateIndicioRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	in, err := h.service.Update(ctx, indicioID, req.Attributes(), caller)
	if err != nil {
		h.fail(w, r, "update indicio failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, in)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	indicioID, ok := h.indicioID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), indicioID, caller); err != nil {
		h.fail(w, r, "delete indicio failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Caller, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Caller{}, false
	}
	return caller, true
}

func (h *Handler) indicioID(w http.ResponseWriter, r *http.Request) (id.IndicioID, bool) {
	indicioID, err := id.ParseIndicioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return indicioID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.InfoContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
