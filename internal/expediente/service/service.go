// Package service implements the expediente workflow: creation, field edits,
// the review state machine and the read-side queries.
//
// Every mutation re-reads persisted state and evaluates the permission policy
// inside the store's per-record lock, so a decision is never made against a
// stale snapshot.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dicri/internal/expediente/metrics"
	"dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	"dicri/internal/policy"
	"dicri/internal/storage"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/audit"
	"dicri/pkg/platform/sentinel"
	"dicri/pkg/requestcontext"
)

type Store interface {
	CreateExpediente(ctx context.Context, e *models.Expediente) error
	GetExpediente(ctx context.Context, expedienteID id.ExpedienteID) (*models.Expediente, error)
	UpdateExpedienteFields(ctx context.Context, expedienteID id.ExpedienteID, fields models.ExpedienteFields, check storage.ExpedienteCheck) (*models.Expediente, error)
	TransitionExpediente(ctx context.Context, expedienteID id.ExpedienteID, expected models.Estado, t *models.Transition) (*models.Expediente, error)
	DeleteExpediente(ctx context.Context, expedienteID id.ExpedienteID) (int64, error)
	ListExpedientes(ctx context.Context, filter models.ListFilter, page models.Page) ([]*models.Expediente, int, error)
	ListIndiciosByExpediente(ctx context.Context, expedienteID id.ExpedienteID) ([]*indmodels.Indicio, error)
	ListHistorial(ctx context.Context, filter models.HistorialFilter) ([]*models.HistorialEntry, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

var tracer = otel.Tracer("dicri/internal/expediente/service")

// Service orchestrates the expediente workflow.
type Service struct {
	store          Store
	rules          models.TransitionRules
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTransitionRules overrides the default strict rules, under which
// approve, reject and return require EnRevision.
func WithTransitionRules(r models.TransitionRules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		rules: models.TransitionRules{EnforceReviewState: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, op string, expedienteID id.ExpedienteID) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "expediente."+op)
	if !expedienteID.IsNil() {
		span.SetAttributes(attribute.Int64("expediente.id", int64(expedienteID)))
	}
	return ctx, span
}

// finish ends the span and records the outcome. Use with a named error
// return: defer s.finish(span, "op", start, &err).
func (s *Service) finish(span trace.Span, op string, start time.Time, errp *error) {
	if errp != nil && *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(*errp)))
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

// deny records a policy denial and returns its Forbidden error.
func (s *Service) deny(ctx context.Context, caller id.Caller, expedienteID id.ExpedienteID, d policy.Decision) error {
	if s.metrics != nil {
		s.metrics.IncrementDenied(string(d.Action), string(d.Reason))
	}
	event := audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(audit.EventAccessDenied),
		ExpedienteID: expedienteID,
		Decision:     string(d.Action),
		Reason:       string(d.Reason),
	}
	if d.Estado != 0 {
		event.EstadoAnterior = d.Estado.String()
	}
	s.logAudit(ctx, event,
		"user_id", caller.UserID.String(),
		"expediente_id", expedienteID.String(),
		"action", string(d.Action),
		"reason", string(d.Reason),
	)
	return d.Err()
}

func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event.Action, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestID
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}

// translate maps store sentinels to coded errors. Coded errors raised by a
// check callback pass through unchanged.
func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "ya existe un expediente con ese número")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "el estado del expediente cambió, vuelva a intentarlo")
	case errors.Is(err, sentinel.ErrPreconditionFailed):
		return dErrors.New(dErrors.CodeFailedPrecondition, "el expediente debe tener al menos un indicio")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "almacenamiento no disponible")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "error interno")
	}
}

const msgNotFound = "expediente no encontrado"
