package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	expmodels "dicri/internal/expediente/models"
	"dicri/internal/indicio/models"
	"dicri/internal/indicio/service/mocks"
	"dicri/internal/storage"
	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/audit"
	"dicri/pkg/platform/sentinel"
)

type IndicioServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *storage.InMemoryStore
	mockAudit *mocks.MockAuditPublisher
	service   *Service
	ctx       context.Context

	mu     sync.Mutex
	events []audit.Event

	tecnico     id.Caller
	otroTecnico id.Caller
	coordinador id.Caller
	admin       id.Caller
}

func TestIndicioServiceSuite(t *testing.T) {
	suite.Run(t, new(IndicioServiceSuite))
}

func (s *IndicioServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = storage.NewInMemoryStore()
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.events = nil
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev audit.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, ev)
		return nil
	}).AnyTimes()
	s.service = New(s.store, WithAuditPublisher(s.mockAudit))
	s.ctx = context.Background()

	s.tecnico = id.Caller{UserID: 10, Role: id.RoleTecnico}
	s.otroTecnico = id.Caller{UserID: 11, Role: id.RoleTecnico}
	s.coordinador = id.Caller{UserID: 20, Role: id.RoleCoordinador}
	s.admin = id.Caller{UserID: 1, Role: id.RoleAdministrador}
}

func (s *IndicioServiceSuite) expediente(numero string) *expmodels.Expediente {
	e := &expmodels.Expediente{
		NumeroExpediente:  numero,
		TituloExpediente:  "caso",
		Prioridad:         expmodels.PrioridadNormal,
		EstadoID:          expmodels.EstadoBorrador,
		TecnicoRegistraID: s.tecnico.UserID,
		FechaRegistro:     time.Now(),
	}
	s.Require().NoError(s.store.CreateExpediente(s.ctx, e))
	return e
}

func cmd(numero, nombre string) models.CreateIndicioCommand {
	return models.CreateIndicioCommand{NumeroIndicio: numero, Attributes: models.Attributes{NombreObjeto: &nombre}}
}

func (s *IndicioServiceSuite) submit(e *expmodels.Expediente) {
	rules := expmodels.TransitionRules{EnforceReviewState: true}
	t, err := rules.ApplyTransition(e, expmodels.TransitionCommand{Op: expmodels.OpSubmit, UsuarioID: s.tecnico.UserID}, time.Now())
	s.Require().NoError(err)
	_, err = s.store.TransitionExpediente(s.ctx, e.ID, e.EstadoID, t)
	s.Require().NoError(err)
}

func (s *IndicioServiceSuite) lastEvent() audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.events)
	return s.events[len(s.events)-1]
}

// Scenario D: NumeroIndicio is unique per expediente, not globally.
func (s *IndicioServiceSuite) TestNumeroIndicioUniquePerExpediente() {
	e1 := s.expediente("E1")
	e2 := s.expediente("E2")

	i2, err := s.service.Create(s.ctx, e1.ID, cmd("A1", "arma"), s.tecnico)
	s.Require().NoError(err)
	s.Equal("A1", i2.NumeroIndicio)

	_, err = s.service.Create(s.ctx, e1.ID, cmd("A1", "otra arma"), s.tecnico)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Create(s.ctx, e2.ID, cmd("A1", "arma"), s.tecnico)
	s.NoError(err)

	items, err := s.service.ListByExpediente(s.ctx, e1.ID)
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *IndicioServiceSuite) TestCreateDefaultsAndNulls() {
	e := s.expediente("E1")
	in, err := s.service.Create(s.ctx, e.ID, cmd("A1", "cuchillo"), s.tecnico)
	s.Require().NoError(err)

	s.Equal(models.DefaultUnidadMedida, in.UnidadMedida)
	s.Equal(models.DefaultUnidadPeso, in.UnidadPeso)
	s.Nil(in.Peso, "absent measures stay null")
	s.Nil(in.TamanoAlto)
	s.Equal(s.tecnico.UserID, in.TecnicoRegistraID)

	ev := s.lastEvent()
	s.Equal(string(audit.EventIndicioCreated), ev.Action)
	s.Equal(e.ID, ev.ExpedienteID)
	s.Equal(in.ID, ev.IndicioID)
}

func (s *IndicioServiceSuite) TestCreateErrorOrder() {
	s.Run("missing parent is not found", func() {
		_, err := s.service.Create(s.ctx, 9999, cmd("", ""), s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("permission is checked before shape", func() {
		e := s.expediente("E-ORDER")
		_, err := s.service.Create(s.ctx, e.ID, cmd("", ""), s.otroTecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing fields are validation errors", func() {
		e := s.expediente("E-VAL")
		_, err := s.service.Create(s.ctx, e.ID, cmd("A1", "  "), s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.Create(s.ctx, e.ID, cmd(" ", "objeto"), s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("negative weight is a validation error", func() {
		e := s.expediente("E-NEG")
		c := cmd("A1", "objeto")
		peso := -1.5
		c.Peso = &peso
		_, err := s.service.Create(s.ctx, e.ID, c, s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *IndicioServiceSuite) TestMutationsFollowParentState() {
	e := s.expediente("E1")
	in, err := s.service.Create(s.ctx, e.ID, cmd("A1", "casquillo"), s.tecnico)
	s.Require().NoError(err)

	// The expediente moves to EnRevision after the technician read the indicio.
	s.submit(e)

	color := "dorado"
	_, err = s.service.Update(s.ctx, in.ID, models.Attributes{Color: &color}, s.tecnico)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal("wrong_state", dErrors.DetailsOf(err)["reason"])
	s.Equal(string(audit.EventAccessDenied), s.lastEvent().Action)

	err = s.service.Delete(s.ctx, in.ID, s.tecnico)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Create(s.ctx, e.ID, cmd("A2", "otro"), s.tecnico)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	current, err := s.service.Get(s.ctx, in.ID)
	s.Require().NoError(err)
	s.Nil(current.Color)

	updated, err := s.service.Update(s.ctx, in.ID, models.Attributes{Color: &color}, s.admin)
	s.Require().NoError(err)
	s.Equal("dorado", *updated.Color)
}

func (s *IndicioServiceSuite) TestOwnershipRules() {
	e := s.expediente("E1")
	in, err := s.service.Create(s.ctx, e.ID, cmd("A1", "casquillo"), s.tecnico)
	s.Require().NoError(err)

	for _, caller := range []id.Caller{s.otroTecnico, s.coordinador} {
		err := s.service.Delete(s.ctx, in.ID, caller)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "caller %s", caller.Role)
	}

	s.Require().NoError(s.service.Delete(s.ctx, in.ID, s.tecnico))
	ev := s.lastEvent()
	s.Equal(string(audit.EventIndicioDeleted), ev.Action)
	s.Equal(in.ID, ev.IndicioID)

	_, err = s.service.Get(s.ctx, in.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	err = s.service.Delete(s.ctx, in.ID, s.tecnico)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IndicioServiceSuite) TestUpdate() {
	e := s.expediente("E1")
	in, err := s.service.Create(s.ctx, e.ID, cmd("A1", "casquillo"), s.tecnico)
	s.Require().NoError(err)

	s.Run("applies present fields only", func() {
		peso := 8.2
		unidad := "kg"
		updated, err := s.service.Update(s.ctx, in.ID, models.Attributes{Peso: &peso, UnidadPeso: &unidad}, s.tecnico)
		s.Require().NoError(err)
		s.Equal(8.2, *updated.Peso)
		s.Equal("kg", updated.UnidadPeso)
		s.Equal("casquillo", updated.NombreObjeto)
		s.Equal("cm", updated.UnidadMedida)
		s.NotNil(updated.FechaModificacion)
	})

	s.Run("invalid coordinates", func() {
		lat := 95.0
		_, err := s.service.Update(s.ctx, in.ID, models.Attributes{LatitudGPS: &lat}, s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing indicio", func() {
		color := "rojo"
		_, err := s.service.Update(s.ctx, 9999, models.Attributes{Color: &color}, s.tecnico)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IndicioServiceSuite) TestListByMissingExpediente() {
	_, err := s.service.ListByExpediente(s.ctx, 9999)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IndicioServiceSuite) TestStoreUnavailable() {
	mockStore := mocks.NewMockStore(s.ctrl)
	svc := New(mockStore)
	mockStore.EXPECT().GetIndicio(gomock.Any(), id.IndicioID(3)).Return(nil, sentinel.ErrUnavailable)

	_, err := svc.Get(s.ctx, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
