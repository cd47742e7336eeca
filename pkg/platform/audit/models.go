package audit

import (
	"context"
	"time"

	id "dicri/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers changes to the chain of custody: workflow
	// transitions and record creation or deletion.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers denied operations and authentication failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine edits.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic after a change commits. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category       EventCategory   `json:"category"`
	Timestamp      time.Time       `json:"timestamp"`
	UserID         id.UserID       `json:"usuarioID"`
	Role           string          `json:"rol,omitempty"`
	Action         string          `json:"action"`
	ExpedienteID   id.ExpedienteID `json:"expedienteID,omitempty"`
	IndicioID      id.IndicioID    `json:"indicioID,omitempty"`
	EstadoAnterior string          `json:"estadoAnterior,omitempty"`
	EstadoNuevo    string          `json:"estadoNuevo,omitempty"`
	Decision       string          `json:"decision,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	RequestID      string          `json:"requestID,omitempty"`
	ClientIP       string          `json:"clientIP,omitempty"`
	UserAgent      string          `json:"userAgent,omitempty"`
}

type AuditEvent string

const (
	// Expediente events
	EventExpedienteCreated  AuditEvent = "expediente_created"
	EventExpedienteUpdated  AuditEvent = "expediente_updated"
	EventExpedienteDeleted  AuditEvent = "expediente_deleted"
	EventExpedienteEnviado  AuditEvent = "expediente_submitted"
	EventExpedienteAprobado AuditEvent = "expediente_approved"
	EventExpedienteRechazo  AuditEvent = "expediente_rejected"
	EventExpedienteDevuelto AuditEvent = "expediente_returned"

	// Indicio events
	EventIndicioCreated AuditEvent = "indicio_created"
	EventIndicioUpdated AuditEvent = "indicio_updated"
	EventIndicioDeleted AuditEvent = "indicio_deleted"

	// Access events
	EventAccessDenied AuditEvent = "access_denied"
	EventAuthFailed   AuditEvent = "auth_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventExpedienteCreated:  CategoryCompliance,
	EventExpedienteDeleted:  CategoryCompliance,
	EventExpedienteEnviado:  CategoryCompliance,
	EventExpedienteAprobado: CategoryCompliance,
	EventExpedienteRechazo:  CategoryCompliance,
	EventExpedienteDevuelto: CategoryCompliance,
	EventIndicioCreated:     CategoryCompliance,
	EventIndicioDeleted:     CategoryCompliance,

	EventAccessDenied: CategorySecurity,
	EventAuthFailed:   CategorySecurity,

	EventExpedienteUpdated: CategoryOperations,
	EventIndicioUpdated:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
