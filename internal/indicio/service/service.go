// Package service manages indicios under their parent expediente. Every
// mutation re-resolves the parent and applies the parent's edit rule inside
// the store's lock.
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
	expmodels "dicri/internal/expediente/models"
	"dicri/internal/indicio/models"
	"dicri/internal/policy"
	"dicri/internal/storage"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/audit"
	"dicri/pkg/platform/sentinel"
	"dicri/pkg/requestcontext"
)

type Store interface {
	GetExpediente(ctx context.Context, expedienteID id.ExpedienteID) (*expmodels.Expediente, error)
	CreateIndicio(ctx context.Context, in *models.Indicio, check storage.IndicioCheck) error
	GetIndicio(ctx context.Context, indicioID id.IndicioID) (*models.Indicio, error)
	UpdateIndicio(ctx context.Context, indicioID id.IndicioID, attrs models.Attributes, check storage.IndicioCheck) (*models.Indicio, error)
	DeleteIndicio(ctx context.Context, indicioID id.IndicioID, check storage.IndicioCheck) error
	ListIndiciosByExpediente(ctx context.Context, expedienteID id.ExpedienteID) ([]*models.Indicio, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

var tracer = otel.Tracer("dicri/internal/indicio/service")

const (
	msgExpedienteNotFound = "expediente no encontrado"
	msgIndicioNotFound    = "indicio no encontrado"
)

type Service struct {
	store          Store
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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// guard builds the under-lock check. A denial is remembered so the caller
// can record it once the store call returns.
func guard(caller id.Caller, denied **policy.Decision) storage.IndicioCheck {
	return func(parent *expmodels.Expediente, _ *models.Indicio) error {
		if d := policy.CanMutateIndicio(caller, policy.SubjectOf(parent)); !d.Allowed {
			*denied = &d
			return d.Err()
		}
		return nil
	}
}

// Create adds an indicio to an expediente. The parent must exist and be
// editable by the caller; NumeroIndicio must be unique within the parent.
func (s *Service) Create(ctx context.Context, expedienteID id.ExpedienteID, cmd models.CreateIndicioCommand, caller id.Caller) (in *models.Indicio, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "indicio.create")
	span.SetAttributes(attribute.Int64("expediente.id", int64(expedienteID)))
	defer s.finish(span, "indicio_create", start, &err)

	parent, err := s.store.GetExpediente(ctx, expedienteID)
	if err != nil {
		return nil, translate(err, msgExpedienteNotFound)
	}
	if d := policy.CanMutateIndicio(caller, policy.SubjectOf(parent)); !d.Allowed {
		return nil, s.deny(ctx, caller, expedienteID, 0, d)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	in, err = models.NewIndicio(expedienteID, cmd, caller.UserID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}

	// The parent may have changed since the read above; re-check under lock.
	var denied *policy.Decision
	err = s.store.CreateIndicio(ctx, in, guard(caller, &denied))
	if denied != nil {
		return nil, s.deny(ctx, caller, expedienteID, 0, *denied)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "ya existe un indicio con ese número en el expediente")
		}
		return nil, translate(err, msgExpedienteNotFound)
	}

	s.mutated(ctx, caller, audit.EventIndicioCreated, in)
	return in, nil
}

func (s *Service) Get(ctx context.Context, indicioID id.IndicioID) (in *models.Indicio, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "indicio.get")
	defer s.finish(span, "indicio_get", start, &err)

	in, err = s.store.GetIndicio(ctx, indicioID)
	if err != nil {
		return nil, translate(err, msgIndicioNotFound)
	}
	return in, nil
}

// Update applies present attributes. NumeroIndicio and the parent never change.
func (s *Service) Update(ctx context.Context, indicioID id.IndicioID, attrs models.Attributes, caller id.Caller) (in *models.Indicio, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "indicio.update")
	span.SetAttributes(attribute.Int64("indicio.id", int64(indicioID)))
	defer s.finish(span, "indicio_update", start, &err)

	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	var denied *policy.Decision
	in, err = s.store.UpdateIndicio(ctx, indicioID, attrs, guard(caller, &denied))
	if denied != nil {
		return nil, s.deny(ctx, caller, 0, indicioID, *denied)
	}
	if err != nil {
		return nil, translate(err, msgIndicioNotFound)
	}

	s.mutated(ctx, caller, audit.EventIndicioUpdated, in)
	return in, nil
}

func (s *Service) Delete(ctx context.Context, indicioID id.IndicioID, caller id.Caller) (err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "indicio.delete")
	span.SetAttributes(attribute.Int64("indicio.id", int64(indicioID)))
	defer s.finish(span, "indicio_delete", start, &err)

	var (
		denied  *policy.Decision
		deleted *models.Indicio
	)
	check := guard(caller, &denied)
	err = s.store.DeleteIndicio(ctx, indicioID, func(parent *expmodels.Expediente, in *models.Indicio) error {
		deleted = in
		return check(parent, in)
	})
	if denied != nil {
		return s.deny(ctx, caller, 0, indicioID, *denied)
	}
	if err != nil {
		return translate(err, msgIndicioNotFound)
	}

	s.mutated(ctx, caller, audit.EventIndicioDeleted, deleted)
	return nil
}

// ListByExpediente lists the indicios of an existing expediente.
func (s *Service) ListByExpediente(ctx context.Context, expedienteID id.ExpedienteID) (items []*models.Indicio, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "indicio.list")
	defer s.finish(span, "indicio_list", start, &err)

	if _, err := s.store.GetExpediente(ctx, expedienteID); err != nil {
		return nil, translate(err, msgExpedienteNotFound)
	}
	items, err = s.store.ListIndiciosByExpediente(ctx, expedienteID)
	if err != nil {
		return nil, translate(err, msgExpedienteNotFound)
	}
	return items, nil
}

func (s *Service) finish(span trace.Span, op string, start time.Time, errp *error) {
	if *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(*errp)))
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) mutated(ctx context.Context, caller id.Caller, event audit.AuditEvent, in *models.Indicio) {
	if s.metrics != nil {
		s.metrics.IncrementIndicioMutation(string(event))
	}
	s.logAudit(ctx, audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(event),
		ExpedienteID: in.ExpedienteID,
		IndicioID:    in.ID,
	},
		"user_id", caller.UserID.String(),
		"expediente_id", in.ExpedienteID.String(),
		"indicio_id", in.ID.String(),
		"numero_indicio", in.NumeroIndicio,
	)
}

func (s *Service) deny(ctx context.Context, caller id.Caller, expedienteID id.ExpedienteID, indicioID id.IndicioID, d policy.Decision) error {
	if s.metrics != nil {
		s.metrics.IncrementDenied(string(d.Action), string(d.Reason))
	}
	s.logAudit(ctx, audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(audit.EventAccessDenied),
		ExpedienteID: expedienteID,
		IndicioID:    indicioID,
		Decision:     string(d.Action),
		Reason:       string(d.Reason),
	},
		"user_id", caller.UserID.String(),
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

func translate(err error, notFoundMsg string) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "almacenamiento no disponible")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "error interno")
	}
}
