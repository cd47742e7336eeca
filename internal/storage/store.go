// Package storage persists expedientes, indicios and the approval history.
//
// Two implementations satisfy RecordStore: InMemoryStore for development and
// unit tests, and PostgresStore for production. Both return sentinel errors
// from pkg/platform/sentinel; services translate them into coded errors.
package storage

import (
	"context"

	expmodels "dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	id "dicri/pkg/domain"
)

// ExpedienteCheck runs under the expediente's lock before a write. Returning
// an error aborts the write and is passed through unchanged.
type ExpedienteCheck func(e *expmodels.Expediente) error

// IndicioCheck runs under the parent expediente's lock before an indicio write.
type IndicioCheck func(parent *expmodels.Expediente, in *indmodels.Indicio) error

// RecordStore is the transactional persistence contract for the workflow.
//
// Error contract:
//   - sentinel.ErrNotFound: the expediente or indicio does not exist
//   - sentinel.ErrAlreadyUsed: NumeroExpediente, or NumeroIndicio within its
//     expediente, is taken
//   - sentinel.ErrInvalidState: TransitionExpediente found a state other than
//     the expected one
//   - sentinel.ErrPreconditionFailed: a RequireIndicios transition found none
//   - sentinel.ErrUnavailable: the backend failed or timed out
type RecordStore interface {
	CreateExpediente(ctx context.Context, e *expmodels.Expediente) error
	GetExpediente(ctx context.Context, expedienteID id.ExpedienteID) (*expmodels.Expediente, error)
	UpdateExpedienteFields(ctx context.Context, expedienteID id.ExpedienteID, fields expmodels.ExpedienteFields, check ExpedienteCheck) (*expmodels.Expediente, error)
	TransitionExpediente(ctx context.Context, expedienteID id.ExpedienteID, expected expmodels.Estado, t *expmodels.Transition) (*expmodels.Expediente, error)
	DeleteExpediente(ctx context.Context, expedienteID id.ExpedienteID) (int64, error)
	ListExpedientes(ctx context.Context, filter expmodels.ListFilter, page expmodels.Page) ([]*expmodels.Expediente, int, error)
	CountIndicios(ctx context.Context, expedienteID id.ExpedienteID) (int, error)

	CreateIndicio(ctx context.Context, in *indmodels.Indicio, check IndicioCheck) error
	GetIndicio(ctx context.Context, indicioID id.IndicioID) (*indmodels.Indicio, error)
	UpdateIndicio(ctx context.Context, indicioID id.IndicioID, attrs indmodels.Attributes, check IndicioCheck) (*indmodels.Indicio, error)
	DeleteIndicio(ctx context.Context, indicioID id.IndicioID, check IndicioCheck) error
	ListIndiciosByExpediente(ctx context.Context, expedienteID id.ExpedienteID) ([]*indmodels.Indicio, error)

	ListHistorial(ctx context.Context, filter expmodels.HistorialFilter) ([]*expmodels.HistorialEntry, error)
}

var (
	_ RecordStore = (*InMemoryStore)(nil)
	_ RecordStore = (*PostgresStore)(nil)
)
