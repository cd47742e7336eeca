package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	"dicri/internal/policy"
	id "dicri/pkg/domain"
)

func (s *Service) Get(ctx context.Context, expedienteID id.ExpedienteID) (e *models.Expediente, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "get", expedienteID)
	defer s.finish(span, "get", start, &err)

	e, err = s.store.GetExpediente(ctx, expedienteID)
	if err != nil {
		return nil, translate(err, msgNotFound)
	}
	return e, nil
}

// GetDetalle loads the expediente, its indicios and its history concurrently.
func (s *Service) GetDetalle(ctx context.Context, expedienteID id.ExpedienteID) (d *models.Detalle, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "detalle", expedienteID)
	defer s.finish(span, "detalle", start, &err)

	var (
		e         *models.Expediente
		indicios  []*indmodels.Indicio
		historial []*models.HistorialEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e, err = s.store.GetExpediente(gctx, expedienteID)
		return err
	})
	g.Go(func() error {
		var err error
		indicios, err = s.store.ListIndiciosByExpediente(gctx, expedienteID)
		return err
	})
	g.Go(func() error {
		var err error
		historial, err = s.store.ListHistorial(gctx, models.HistorialFilter{ExpedienteID: expedienteID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err, msgNotFound)
	}
	return &models.Detalle{Expediente: e, Indicios: indicios, Historial: historial}, nil
}

// List returns one page of expedientes newest first. Any authenticated
// caller may list.
func (s *Service) List(ctx context.Context, filter models.ListFilter, page models.Page) (r *models.PageResult[*models.Expediente], err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "list", 0)
	defer s.finish(span, "list", start, &err)

	page = page.Normalize()
	items, total, err := s.store.ListExpedientes(ctx, filter, page)
	if err != nil {
		return nil, translate(err, msgNotFound)
	}
	return models.NewPageResult(items, page, total), nil
}

// ListPendientes lists the review queue: expedientes in EnRevision.
func (s *Service) ListPendientes(ctx context.Context, page models.Page, caller id.Caller) (*models.PageResult[*models.Expediente], error) {
	if d := policy.CanListPendientes(caller); !d.Allowed {
		return nil, s.deny(ctx, caller, 0, d)
	}
	return s.List(ctx, models.ListFilter{Estados: []models.Estado{models.EstadoEnRevision}}, page)
}

// ListHistorial returns approval history rows oldest first.
func (s *Service) ListHistorial(ctx context.Context, filter models.HistorialFilter) (rows []*models.HistorialEntry, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "historial", filter.ExpedienteID)
	defer s.finish(span, "historial", start, &err)

	rows, err = s.store.ListHistorial(ctx, filter)
	if err != nil {
		return nil, translate(err, msgNotFound)
	}
	return rows, nil
}
