package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	expmodels "dicri/internal/expediente/models"
	"dicri/internal/indicio/service"
	"dicri/internal/storage"
	id "dicri/pkg/domain"
	"dicri/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	store        *storage.InMemoryStore
	router       http.Handler
	expedienteID id.ExpedienteID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = storage.NewInMemoryStore()
	r := chi.NewRouter()
	New(service.New(s.store), slog.New(slog.DiscardHandler)).Register(r)
	s.router = r

	e, err := expmodels.NewExpediente(expmodels.CreateExpedienteCommand{
		NumeroExpediente: "E-1",
		TituloExpediente: "Homicidio",
	}, 10, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateExpediente(s.T().Context(), e))
	s.expedienteID = e.ID
}

func (s *HandlerSuite) base() string {
	return "/indicios/expediente/" + s.expedienteID.String()
}

func (s *HandlerSuite) create(numero string) map[string]any {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.base(), map[string]any{
		"numeroIndicio": numero,
		"nombreObjeto":  "Cuchillo",
		"peso":          120.5,
	})
	rr := testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	s.Require().Equal(http.StatusCreated, rr.Code)
	return *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
}

func (s *HandlerSuite) TestCreateAppliesDefaults() {
	body := s.create("IND-1")
	s.Equal("IND-1", body["numeroIndicio"])
	s.Equal("cm", body["unidadMedida"])
	s.Equal("g", body["unidadPeso"])
	s.Equal(120.5, body["peso"])
	s.Nil(body["tamanoAlto"])
	s.Nil(body["descripcion"])
}

func (s *HandlerSuite) TestCreateErrors() {
	s.create("IND-1")

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.base(), map[string]any{
		"numeroIndicio": "IND-1",
		"nombreObjeto":  "Otro",
	})
	rr := testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, s.base(), map[string]any{
		"numeroIndicio": "IND-2",
	})
	rr = testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, s.base(), map[string]any{
		"numeroIndicio": "IND-2",
		"nombreObjeto":  "Bala",
	})
	rr = testutil.DoRequest(s.router, testutil.AsTecnico(req, 11))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/indicios/expediente/999", map[string]any{
		"numeroIndicio": "IND-2",
		"nombreObjeto":  "Bala",
	})
	rr = testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestUpdateAndDelete() {
	created := s.create("IND-1")
	path := "/indicios/" + id.IndicioID(created["indicioID"].(float64)).String()

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{
		"color":      "rojo",
		"latitudGPS": 14.6,
	})
	rr := testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusOK(s.T(), rr)
	body := *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("rojo", body["color"])
	s.Equal("Cuchillo", body["nombreObjeto"])
	s.NotNil(body["fechaModificacion"])

	req = testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"numeroIndicio": "X"})
	rr = testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")

	req = testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"latitudGPS": 120})
	rr = testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")

	rr = testutil.DoRequest(s.router, testutil.AsTecnico(testutil.NewRequest(s.T(), http.MethodDelete, path), 10))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, testutil.AsTecnico(testutil.NewRequest(s.T(), http.MethodGet, path), 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestList() {
	s.create("IND-2")
	s.create("IND-1")

	rr := testutil.DoRequest(s.router, testutil.AsCoordinador(testutil.NewRequest(s.T(), http.MethodGet, s.base()), 20))
	testutil.AssertStatusOK(s.T(), rr)
	items := *testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
	s.Require().Len(items, 2)
	s.Equal("IND-1", items[0]["numeroIndicio"])

	rr = testutil.DoRequest(s.router, testutil.AsCoordinador(testutil.NewRequest(s.T(), http.MethodGet, "/indicios/expediente/999"), 20))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestMutationsBlockedOutsideBorrador() {
	created := s.create("IND-1")
	path := "/indicios/" + id.IndicioID(created["indicioID"].(float64)).String()

	e, err := s.store.GetExpediente(s.T().Context(), s.expedienteID)
	s.Require().NoError(err)
	t, err := expmodels.TransitionRules{EnforceReviewState: true}.ApplyTransition(e, expmodels.TransitionCommand{
		Op:        expmodels.OpSubmit,
		UsuarioID: 10,
	}, time.Now())
	s.Require().NoError(err)
	_, err = s.store.TransitionExpediente(s.T().Context(), s.expedienteID, expmodels.EstadoBorrador, t)
	s.Require().NoError(err)

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"color": "azul"})
	rr := testutil.DoRequest(s.router, testutil.AsTecnico(req, 10))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")

	req = testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]any{"color": "azul"})
	rr = testutil.DoRequest(s.router, testutil.AsAdministrador(req, 1))
	testutil.AssertStatusOK(s.T(), rr)
}
