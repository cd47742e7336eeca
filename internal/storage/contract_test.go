package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	expmodels "dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	id "dicri/pkg/domain"
	"dicri/pkg/platform/sentinel"
)

// recordStoreSuite exercises the RecordStore contract. Each backend embeds it
// and sets store in SetupTest.
type recordStoreSuite struct {
	suite.Suite
	store RecordStore
	now   time.Time
	seq   int
}

func (s *recordStoreSuite) ctx() context.Context {
	return context.Background()
}

func (s *recordStoreSuite) newExpediente(numero string) *expmodels.Expediente {
	s.seq++
	return &expmodels.Expediente{
		NumeroExpediente:  numero,
		TituloExpediente:  "Caso " + numero,
		Prioridad:         expmodels.PrioridadNormal,
		EstadoID:          expmodels.EstadoBorrador,
		TecnicoRegistraID: 10,
		FechaRegistro:     s.now.Add(time.Duration(s.seq) * time.Minute),
	}
}

func (s *recordStoreSuite) createExpediente(numero string) *expmodels.Expediente {
	e := s.newExpediente(numero)
	s.Require().NoError(s.store.CreateExpediente(s.ctx(), e))
	s.Require().False(e.ID.IsNil())
	return e
}

func (s *recordStoreSuite) createIndicio(parent id.ExpedienteID, numero string) *indmodels.Indicio {
	nombre := "objeto " + numero
	in, err := indmodels.NewIndicio(parent, indmodels.CreateIndicioCommand{
		NumeroIndicio: numero,
		Attributes:    indmodels.Attributes{NombreObjeto: &nombre},
	}, 10, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateIndicio(s.ctx(), in, nil))
	return in
}

func (s *recordStoreSuite) transition(e *expmodels.Expediente, op expmodels.Operation) (*expmodels.Expediente, error) {
	rules := expmodels.TransitionRules{EnforceReviewState: true}
	t, err := rules.ApplyTransition(e, expmodels.TransitionCommand{Op: op, UsuarioID: 20, JustificacionRechazo: "faltan datos"}, s.now)
	s.Require().NoError(err)
	return s.store.TransitionExpediente(s.ctx(), e.ID, e.EstadoID, t)
}

func (s *recordStoreSuite) TestExpedienteUniqueness() {
	s.createExpediente("EXP-U-1")

	dup := s.newExpediente("EXP-U-1")
	err := s.store.CreateExpediente(s.ctx(), dup)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrAlreadyUsed))

	items, total, err := s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{Busqueda: "EXP-U-1"}, expmodels.Page{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(items, 1)
}

func (s *recordStoreSuite) TestConcurrentCreateSameNumero() {
	const goroutines = 20
	var wg sync.WaitGroup
	var ok, conflict atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateExpediente(s.ctx(), s.newConcurrentExpediente("EXP-RACE"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflict.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(goroutines-1), conflict.Load())
}

func (s *recordStoreSuite) newConcurrentExpediente(numero string) *expmodels.Expediente {
	return &expmodels.Expediente{
		NumeroExpediente:  numero,
		TituloExpediente:  "race",
		Prioridad:         expmodels.PrioridadNormal,
		EstadoID:          expmodels.EstadoBorrador,
		TecnicoRegistraID: 10,
		FechaRegistro:     s.now,
	}
}

func (s *recordStoreSuite) TestGetMissing() {
	_, err := s.store.GetExpediente(s.ctx(), 999999)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	_, err = s.store.GetIndicio(s.ctx(), 999999)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *recordStoreSuite) TestTransitionAppliesStateAndHistoryTogether() {
	e := s.createExpediente("EXP-T-1")
	s.createIndicio(e.ID, "A1")

	updated, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)
	s.Equal(expmodels.EstadoEnRevision, updated.EstadoID)
	s.Equal(1, updated.CantidadIndicios)

	approved, err := s.transition(updated, expmodels.OpApprove)
	s.Require().NoError(err)
	s.Equal(expmodels.EstadoAprobado, approved.EstadoID)
	s.Require().NotNil(approved.FechaAprobacion)

	history, err := s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID})
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(expmodels.AccionEnviarRevision, history[0].Accion)
	s.Equal(expmodels.AccionAprobar, history[1].Accion)
	s.NotEqual(history[0].ID, history[1].ID)

	replayed, err := expmodels.Replay(derefHistory(history))
	s.Require().NoError(err)
	s.Equal(approved.EstadoID, replayed)
}

func derefHistory(in []*expmodels.HistorialEntry) []expmodels.HistorialEntry {
	out := make([]expmodels.HistorialEntry, len(in))
	for i, h := range in {
		out[i] = *h
	}
	return out
}

func (s *recordStoreSuite) TestTransitionStateMismatch() {
	e := s.createExpediente("EXP-T-2")
	s.createIndicio(e.ID, "A1")
	_, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)

	// e still carries the stale Borrador state.
	_, err = s.transition(e, expmodels.OpSubmit)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrInvalidState))

	history, err := s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID})
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *recordStoreSuite) TestSubmitRequiresIndicioUnderLock() {
	e := s.createExpediente("EXP-T-3")
	_, err := s.transition(e, expmodels.OpSubmit)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrPreconditionFailed))

	current, err := s.store.GetExpediente(s.ctx(), e.ID)
	s.Require().NoError(err)
	s.Equal(expmodels.EstadoBorrador, current.EstadoID)
}

func (s *recordStoreSuite) TestConcurrentTransitionsSerialize() {
	e := s.createExpediente("EXP-T-4")
	s.createIndicio(e.ID, "A1")
	e, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)

	const goroutines = 10
	var wg sync.WaitGroup
	var ok, stale atomic.Int32
	for i := 0; i < goroutines; i++ {
		op := expmodels.OpApprove
		if i%2 == 0 {
			op = expmodels.OpReject
		}
		wg.Add(1)
		go func(op expmodels.Operation) {
			defer wg.Done()
			_, err := s.transition(e, op)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				stale.Add(1)
			}
		}(op)
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(goroutines-1), stale.Load())

	history, err := s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID})
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *recordStoreSuite) TestUpdateFieldsCheckRunsAgainstCurrentState() {
	e := s.createExpediente("EXP-F-1")
	titulo := "nuevo titulo"

	denied := errors.New("denied")
	_, err := s.store.UpdateExpedienteFields(s.ctx(), e.ID, expmodels.ExpedienteFields{TituloExpediente: &titulo},
		func(current *expmodels.Expediente) error { return denied })
	s.Require().ErrorIs(err, denied)

	updated, err := s.store.UpdateExpedienteFields(s.ctx(), e.ID, expmodels.ExpedienteFields{TituloExpediente: &titulo},
		func(current *expmodels.Expediente) error {
			s.Equal(expmodels.EstadoBorrador, current.EstadoID)
			return nil
		})
	s.Require().NoError(err)
	s.Equal(titulo, updated.TituloExpediente)
	s.Equal(expmodels.EstadoBorrador, updated.EstadoID)
	s.NotNil(updated.FechaModificacion)

	reloaded, err := s.store.GetExpediente(s.ctx(), e.ID)
	s.Require().NoError(err)
	s.Equal(titulo, reloaded.TituloExpediente)

	_, err = s.store.UpdateExpedienteFields(s.ctx(), 999999, expmodels.ExpedienteFields{}, nil)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *recordStoreSuite) TestIndicioUniquenessIsPerParent() {
	e1 := s.createExpediente("EXP-I-1")
	e2 := s.createExpediente("EXP-I-2")
	s.createIndicio(e1.ID, "A1")

	nombre := "duplicado"
	dup, err := indmodels.NewIndicio(e1.ID, indmodels.CreateIndicioCommand{
		NumeroIndicio: "A1",
		Attributes:    indmodels.Attributes{NombreObjeto: &nombre},
	}, 10, s.now)
	s.Require().NoError(err)
	err = s.store.CreateIndicio(s.ctx(), dup, nil)
	s.True(errors.Is(err, sentinel.ErrAlreadyUsed))

	s.createIndicio(e2.ID, "A1")

	n, err := s.store.CountIndicios(s.ctx(), e1.ID)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *recordStoreSuite) TestIndicioMutationsSeeParent() {
	e := s.createExpediente("EXP-I-3")
	in := s.createIndicio(e.ID, "B1")

	color := "rojo"
	updated, err := s.store.UpdateIndicio(s.ctx(), in.ID, indmodels.Attributes{Color: &color},
		func(parent *expmodels.Expediente, current *indmodels.Indicio) error {
			s.Equal(e.ID, parent.ID)
			s.Equal("B1", current.NumeroIndicio)
			return nil
		})
	s.Require().NoError(err)
	s.Equal("rojo", *updated.Color)
	s.Equal("cm", updated.UnidadMedida)

	blocked := errors.New("blocked")
	err = s.store.DeleteIndicio(s.ctx(), in.ID, func(*expmodels.Expediente, *indmodels.Indicio) error { return blocked })
	s.Require().ErrorIs(err, blocked)

	s.Require().NoError(s.store.DeleteIndicio(s.ctx(), in.ID, nil))
	_, err = s.store.GetIndicio(s.ctx(), in.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	err = s.store.DeleteIndicio(s.ctx(), in.ID, nil)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *recordStoreSuite) TestCreateIndicioUnderMissingParent() {
	nombre := "huérfano"
	in, err := indmodels.NewIndicio(999999, indmodels.CreateIndicioCommand{
		NumeroIndicio: "Z1",
		Attributes:    indmodels.Attributes{NombreObjeto: &nombre},
	}, 10, s.now)
	s.Require().NoError(err)
	err = s.store.CreateIndicio(s.ctx(), in, nil)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *recordStoreSuite) TestDeleteExpedienteCascades() {
	e := s.createExpediente("EXP-D-1")
	in := s.createIndicio(e.ID, "A1")
	_, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)

	n, err := s.store.DeleteExpediente(s.ctx(), e.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.store.GetExpediente(s.ctx(), e.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	_, err = s.store.GetIndicio(s.ctx(), in.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	history, err := s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID})
	s.Require().NoError(err)
	s.Empty(history)

	n, err = s.store.DeleteExpediente(s.ctx(), e.ID)
	s.Require().NoError(err)
	s.Zero(n)

	// The business key is free again.
	s.createExpediente("EXP-D-1")
}

func (s *recordStoreSuite) TestListOrderingAndPagination() {
	var created []*expmodels.Expediente
	for _, n := range []string{"EXP-L-1", "EXP-L-2", "EXP-L-3", "EXP-L-4", "EXP-L-5"} {
		created = append(created, s.createExpediente(n))
	}

	filter := expmodels.ListFilter{Busqueda: "EXP-L-"}
	first, total, err := s.store.ListExpedientes(s.ctx(), filter, expmodels.Page{Number: 1, Size: 2})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(first, 2)
	s.Equal(created[4].ID, first[0].ID, "newest first")
	s.Equal(created[3].ID, first[1].ID)

	last, _, err := s.store.ListExpedientes(s.ctx(), filter, expmodels.Page{Number: 3, Size: 2})
	s.Require().NoError(err)
	s.Require().Len(last, 1)
	s.Equal(created[0].ID, last[0].ID)

	beyond, total, err := s.store.ListExpedientes(s.ctx(), filter, expmodels.Page{Number: 9, Size: 2})
	s.Require().NoError(err)
	s.Empty(beyond)
	s.Equal(5, total)
}

func (s *recordStoreSuite) TestListHugePageNumberIsEmpty() {
	s.createExpediente("EXP-HP-1")
	page := expmodels.Page{Number: 461168601842738792, Size: 20}.Normalize()

	var (
		items []*expmodels.Expediente
		total int
		err   error
	)
	s.Require().NotPanics(func() {
		items, total, err = s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{Busqueda: "EXP-HP-"}, page)
	})
	s.Require().NoError(err)
	s.Empty(items)
	s.Equal(1, total)
}

func (s *recordStoreSuite) TestListFilters() {
	a := s.createExpediente("EXP-FL-1")
	b := s.createExpediente("EXP-FL-2")
	s.createIndicio(b.ID, "A1")
	b, err := s.transition(b, expmodels.OpSubmit)
	s.Require().NoError(err)
	_, err = s.transition(b, expmodels.OpReturnToDraft)
	s.Require().NoError(err)
	c := s.createExpediente("EXP-FL-3")
	s.createIndicio(c.ID, "A1")
	_, err = s.transition(c, expmodels.OpSubmit)
	s.Require().NoError(err)

	pending, total, err := s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{
		Estados:  []expmodels.Estado{expmodels.EstadoEnRevision},
		Busqueda: "EXP-FL-",
	}, expmodels.Page{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(c.ID, pending[0].ID)
	s.Equal(1, pending[0].CantidadIndicios)

	reviewed, total, err := s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{CoordinadorID: 20, Busqueda: "EXP-FL-"}, expmodels.Page{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(b.ID, reviewed[0].ID)

	_, total, err = s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{TecnicoID: 77, Busqueda: "EXP-FL-"}, expmodels.Page{})
	s.Require().NoError(err)
	s.Zero(total)

	drafts, _, err := s.store.ListExpedientes(s.ctx(), expmodels.ListFilter{
		Estados:  []expmodels.Estado{expmodels.EstadoBorrador},
		Busqueda: "exp-fl-",
	}, expmodels.Page{})
	s.Require().NoError(err)
	s.Len(drafts, 2)
	s.Equal(b.ID, drafts[0].ID)
	s.Equal(a.ID, drafts[1].ID)
}

func (s *recordStoreSuite) TestHistorialDateFilter() {
	e := s.createExpediente("EXP-H-1")
	s.createIndicio(e.ID, "A1")
	_, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)

	from := s.now.Add(-time.Minute)
	to := s.now.Add(time.Minute)
	rows, err := s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID, FechaInicio: &from, FechaFin: &to})
	s.Require().NoError(err)
	s.Len(rows, 1)

	later := s.now.Add(time.Hour)
	rows, err = s.store.ListHistorial(s.ctx(), expmodels.HistorialFilter{ExpedienteID: e.ID, FechaInicio: &later})
	s.Require().NoError(err)
	s.Empty(rows)
}
