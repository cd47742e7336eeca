package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dicri/internal/expediente/handler"
	"dicri/internal/expediente/service"
	jwttoken "dicri/internal/jwt_token"
	"dicri/internal/platform/metrics"
	"dicri/internal/storage"
	id "dicri/pkg/domain"
	"dicri/pkg/platform/middleware/auth/mocks"
	"dicri/pkg/platform/middleware/request"
	"dicri/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	jwt     *jwttoken.JWTService
	revoked *mocks.MockTokenRevocationChecker
	dbErr   error
	router  http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.revoked = mocks.NewMockTokenRevocationChecker(ctrl)
	s.jwt = jwttoken.NewJWTService("test-key", "dicri-test", "")
	s.dbErr = nil

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(storage.NewInMemoryStore())
	s.router = NewRouter(Config{
		Logger:            logger,
		Metrics:           metrics.NewWithRegistry(reg, reg),
		Validator:         jwttoken.NewJWTServiceAdapter(s.jwt),
		RevocationChecker: s.revoked,
		HealthChecks: map[string]HealthCheck{
			"database": func(context.Context) error { return s.dbErr },
		},
		RequestTimeout: 5 * time.Second,
		APIHandlers:    []Registrar{handler.New(svc, logger)},
	})
}

func (s *RouterSuite) bearer(userID id.UserID, role id.Role) string {
	token, err := s.jwt.GenerateAccessToken(userID, role, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + token
}

func (s *RouterSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.dbErr = errors.New("connection refused")
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	s.NotContains(rr.Body.String(), "connection refused")
}

func (s *RouterSuite) TestAPIRequiresToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/expedientes"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	s.NotEmpty(rr.Header().Get(request.HeaderRequestID))
}

func (s *RouterSuite) TestAuthenticatedCreate() {
	s.revoked.EXPECT().IsTokenRevoked(gomock.Any(), gomock.Any()).Return(false, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/expedientes", map[string]any{
		"numeroExpediente": "DICRI-1",
		"tituloExpediente": "Robo",
	})
	req.Header.Set("Authorization", s.bearer(10, id.RoleTecnico))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "tecnicoRegistraID", float64(10))
}

func (s *RouterSuite) TestRevokedTokenRejected() {
	s.revoked.EXPECT().IsTokenRevoked(gomock.Any(), gomock.Any()).Return(true, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/expedientes")
	req.Header.Set("Authorization", s.bearer(10, id.RoleTecnico))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `dicri_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
