package service

import (
	"context"
	"strings"
	"time"

	"dicri/internal/expediente/models"
	"dicri/internal/policy"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/audit"
	"dicri/pkg/requestcontext"
)

// Create registers a new expediente in Borrador owned by the caller.
func (s *Service) Create(ctx context.Context, cmd models.CreateExpedienteCommand, caller id.Caller) (e *models.Expediente, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "create", 0)
	defer s.finish(span, "create", start, &err)

	if d := policy.CanCreate(caller); !d.Allowed {
		return nil, s.deny(ctx, caller, 0, d)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	e, err = models.NewExpediente(cmd, caller.UserID, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.CreateExpediente(ctx, e); err != nil {
		return nil, translate(err, msgNotFound)
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.logAudit(ctx, audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(audit.EventExpedienteCreated),
		ExpedienteID: e.ID,
		EstadoNuevo:  e.EstadoID.String(),
	},
		"user_id", caller.UserID.String(),
		"expediente_id", e.ID.String(),
		"numero_expediente", e.NumeroExpediente,
	)
	return e, nil
}

// Update applies a partial field edit. Administrador may edit in any state;
// the owning Técnico only while Borrador. EstadoID never changes here.
func (s *Service) Update(ctx context.Context, expedienteID id.ExpedienteID, fields models.ExpedienteFields, caller id.Caller) (e *models.Expediente, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "update", expedienteID)
	defer s.finish(span, "update", start, &err)

	var denied *policy.Decision
	e, err = s.store.UpdateExpedienteFields(ctx, expedienteID, fields, func(current *models.Expediente) error {
		if d := policy.CanEdit(caller, policy.SubjectOf(current)); !d.Allowed {
			denied = &d
			return d.Err()
		}
		return nil
	})
	if denied != nil {
		return nil, s.deny(ctx, caller, expedienteID, *denied)
	}
	if err != nil {
		return nil, translate(err, msgNotFound)
	}

	s.logAudit(ctx, audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(audit.EventExpedienteUpdated),
		ExpedienteID: e.ID,
		EstadoNuevo:  e.EstadoID.String(),
	},
		"user_id", caller.UserID.String(),
		"expediente_id", e.ID.String(),
	)
	return e, nil
}

// Delete hard-deletes an expediente with its indicios and history.
// Administrador only.
func (s *Service) Delete(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller) (err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "delete", expedienteID)
	defer s.finish(span, "delete", start, &err)

	if d := policy.CanDelete(caller); !d.Allowed {
		return s.deny(ctx, caller, expedienteID, d)
	}
	n, err := s.store.DeleteExpediente(ctx, expedienteID)
	if err != nil {
		return translate(err, msgNotFound)
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}

	s.logAudit(ctx, audit.Event{
		UserID:       caller.UserID,
		Role:         caller.Role.String(),
		Action:       string(audit.EventExpedienteDeleted),
		ExpedienteID: expedienteID,
	},
		"user_id", caller.UserID.String(),
		"expediente_id", expedienteID.String(),
	)
	return nil
}

// SubmitForReview moves a Borrador expediente with at least one indicio into
// EnRevision. Only the owning Técnico or an Administrador may submit.
func (s *Service) SubmitForReview(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller) (*models.Expediente, error) {
	return s.transition(ctx, expedienteID, caller, models.TransitionCommand{Op: models.OpSubmit})
}

// Approve moves an expediente into Aprobado and stamps FechaAprobacion.
func (s *Service) Approve(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, comentarios string) (*models.Expediente, error) {
	return s.transition(ctx, expedienteID, caller, models.TransitionCommand{
		Op:          models.OpApprove,
		Comentarios: strings.TrimSpace(comentarios),
	})
}

// Reject moves an expediente into Rechazado. The justification is required
// and stored on the history row.
func (s *Service) Reject(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, justificacion, comentarios string) (*models.Expediente, error) {
	return s.transition(ctx, expedienteID, caller, models.TransitionCommand{
		Op:                   models.OpReject,
		Comentarios:          strings.TrimSpace(comentarios),
		JustificacionRechazo: strings.TrimSpace(justificacion),
	})
}

// ReturnToDraft sends an expediente back to Borrador for corrections.
func (s *Service) ReturnToDraft(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, comentarios string) (*models.Expediente, error) {
	return s.transition(ctx, expedienteID, caller, models.TransitionCommand{
		Op:          models.OpReturnToDraft,
		Comentarios: strings.TrimSpace(comentarios),
	})
}

var transitionEvents = map[models.Operation]audit.AuditEvent{
	models.OpSubmit:        audit.EventExpedienteEnviado,
	models.OpApprove:       audit.EventExpedienteAprobado,
	models.OpReject:        audit.EventExpedienteRechazo,
	models.OpReturnToDraft: audit.EventExpedienteDevuelto,
}

// transition is the single entry point for state changes. Review roles are
// checked before any lookup; ownership needs the persisted record. The store
// applies the change only if the state is still the one the decision was
// made against.
func (s *Service) transition(ctx context.Context, expedienteID id.ExpedienteID, caller id.Caller, cmd models.TransitionCommand) (e *models.Expediente, err error) {
	op := string(cmd.Op)
	start := time.Now()
	ctx, span := s.startSpan(ctx, op, expedienteID)
	defer s.finish(span, op, start, &err)

	if cmd.Op != models.OpSubmit {
		if d := policy.CanReview(caller); !d.Allowed {
			return nil, s.deny(ctx, caller, expedienteID, d)
		}
	}
	if cmd.Op == models.OpReject && cmd.JustificacionRechazo == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "la justificación de rechazo es requerida")
	}

	current, err := s.store.GetExpediente(ctx, expedienteID)
	if err != nil {
		return nil, translate(err, msgNotFound)
	}
	if cmd.Op == models.OpSubmit {
		if d := policy.CanSubmit(caller, policy.SubjectOf(current)); !d.Allowed {
			return nil, s.deny(ctx, caller, expedienteID, d)
		}
	}

	cmd.UsuarioID = caller.UserID
	t, err := s.rules.ApplyTransition(current, cmd, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	e, err = s.store.TransitionExpediente(ctx, expedienteID, current.EstadoID, t)
	if err != nil {
		return nil, translate(err, msgNotFound)
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(t.History.Accion)
	}
	s.logAudit(ctx, audit.Event{
		UserID:         caller.UserID,
		Role:           caller.Role.String(),
		Action:         string(transitionEvents[cmd.Op]),
		ExpedienteID:   expedienteID,
		EstadoAnterior: t.From.String(),
		EstadoNuevo:    t.To.String(),
		Reason:         t.History.JustificacionRechazo,
	},
		"user_id", caller.UserID.String(),
		"expediente_id", expedienteID.String(),
		"estado_anterior", t.From.String(),
		"estado_nuevo", t.To.String(),
	)
	return e, nil
}
