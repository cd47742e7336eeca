// Package handler exposes the expediente workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dicri/internal/expediente/models"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/httputil"
	"dicri/pkg/requestcontext"
)

// Service defines the expediente operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, cmd models.CreateExpedienteCommand, caller id.Caller) (*models.Expediente, error)
	Get(ctx context.Context, expedienteID id.ExpedienteID) (*models.Expediente, error)
	GetDetalle(ctx context.Context, expedienteID id.ExpedienteID) (*models.Detalle, error)
	List(ctx context.Context, filter models.ListFilter, page models.Page) (*models.PageResult[*models.Expediente], error)
	Update(ctx context.Context, expedienteID id.ExpedienteID, fields models.ExpedienteFields, caller id.Caller) (*models.Expediente, error)
	Delete(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller) error
	SubmitForReview(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller) (*models.Expediente, error)
	Approve(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, comentarios string) (*models.Expediente, error)
	Reject(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, justificacion, comentarios string) (*models.Expediente, error)
	ReturnToDraft(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, comentarios string) (*models.Expediente, error)
	ListPendientes(ctx context.Context, page models.Page, caller id.Caller) (*models.PageResult[*models.Expediente], error)
	ListHistorial(ctx context.Context, filter models.HistorialFilter) ([]*models.HistorialEntry, error)
}

// Handler wires expediente and approval endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the expediente and approval endpoints. Routes are relative
// to the API prefix.
func (h *Handler) Register(r chi.Router) {
	r.Route("/expedientes", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Get("/{id}/detalle", h.HandleGetDetalle)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/enviar-revision", h.HandleSubmit)
	})
	r.Route("/aprobaciones", func(r chi.Router) {
		r.Get("/pendientes", h.HandleListPendientes)
		r.Get("/historial", h.HandleListHistorial)
		r.Post("/{id}/aprobar", h.HandleApprove)
		r.Post("/{id}/rechazar", h.HandleReject)
		r.Post("/{id}/devolver", h.HandleReturn)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateExpedienteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	e, err := h.service.Create(ctx, req.Command(), caller)
	if err != nil {
		h.fail(w, r, "create expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toExpedienteResponse(e))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.List(r.Context(), filter, parsePage(r.URL.Query()))
	if err != nil {
		h.fail(w, r, "list expedientes failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(page))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), expedienteID)
	if err != nil {
		h.fail(w, r, "get expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleGetDetalle(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}

	d, err := h.service.GetDetalle(r.Context(), expedienteID)
	if err != nil {
		h.fail(w, r, "get expediente detalle failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetalleResponse(d))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateExpedienteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	e, err := h.service.Update(ctx, expedienteID, req.Fields(), caller)
	if err != nil {
		h.fail(w, r, "update expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), expedienteID, caller); err != nil {
		h.fail(w, r, "delete expediente failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}

	e, err := h.service.SubmitForReview(r.Context(), expedienteID, caller)
	if err != nil {
		h.fail(w, r, "submit expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}
	req, ok := decodeOptional[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.Approve(r.Context(), expedienteID, caller, req.Comentarios)
	if err != nil {
		h.fail(w, r, "approve expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	e, err := h.service.Reject(ctx, expedienteID, caller, req.JustificacionRechazo, req.Comentarios)
	if err != nil {
		h.fail(w, r, "reject expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	expedienteID, ok := h.expedienteID(w, r)
	if !ok {
		return
	}
	req, ok := decodeOptional[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.ReturnToDraft(r.Context(), expedienteID, caller, req.Comentarios)
	if err != nil {
		h.fail(w, r, "return expediente failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toExpedienteResponse(e))
}

func (h *Handler) HandleListPendientes(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListPendientes(r.Context(), parsePage(r.URL.Query()), caller)
	if err != nil {
		h.fail(w, r, "list pendientes failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(page))
}

func (h *Handler) HandleListHistorial(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	filter, err := parseHistorialFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.ListHistorial(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list historial failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistorialResponse(rows))
}

// caller returns the verified caller placed in the context by the auth
// middleware.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Caller, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Caller{}, false
	}
	return caller, true
}

func (h *Handler) expedienteID(w http.ResponseWriter, r *http.Request) (id.ExpedienteID, bool) {
	expedienteID, err := id.ParseExpedienteID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return expedienteID, true
}

// fail logs at a level matching the error kind and writes the response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

// decodeOptional decodes a body when one is sent; an empty body yields the
// zero request.
func decodeOptional[T any, PT interface {
	*T
	httputil.Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	if r.ContentLength == 0 {
		return new(T), true
	}
	ctx := r.Context()
	return httputil.DecodeAndPrepare[T, PT](w, r, logger, ctx, requestcontext.RequestID(ctx))
}
