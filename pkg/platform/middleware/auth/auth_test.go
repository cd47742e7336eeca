package auth_test

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks JWTValidator,TokenRevocationChecker

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	id "dicri/pkg/domain"
	"dicri/pkg/platform/middleware/auth"
	"dicri/pkg/platform/middleware/auth/mocks"
	"dicri/pkg/requestcontext"
)

type RequireAuthSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	validator *mocks.MockJWTValidator
	revoked   *mocks.MockTokenRevocationChecker
	handler   http.Handler
	caller    id.Caller
	reached   bool
}

func TestRequireAuthSuite(t *testing.T) {
	suite.Run(t, new(RequireAuthSuite))
}

func (s *RequireAuthSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.validator = mocks.NewMockJWTValidator(s.ctrl)
	s.revoked = mocks.NewMockTokenRevocationChecker(s.ctrl)
	s.reached = false
	s.caller = id.Caller{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.reached = true
		s.caller, _ = requestcontext.Caller(r.Context())
	})
	s.handler = auth.RequireAuth(s.validator, s.revoked, slog.New(slog.DiscardHandler))(next)
}

func (s *RequireAuthSuite) do(header string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/expedientes", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, r)
	return rr
}

func (s *RequireAuthSuite) errorCode(rr *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func (s *RequireAuthSuite) TestValidTokenSetsCaller() {
	s.validator.EXPECT().ValidateToken("good").Return(&auth.JWTClaims{UserID: 7, Role: "Coordinador", JTI: "j1"}, nil)
	s.revoked.EXPECT().IsTokenRevoked(gomock.Any(), "j1").Return(false, nil)

	rr := s.do("Bearer good")
	s.Equal(http.StatusOK, rr.Code)
	s.True(s.reached)
	s.Equal(id.Caller{UserID: 7, Role: id.RoleCoordinador}, s.caller)
}

func (s *RequireAuthSuite) TestMissingHeader() {
	rr := s.do("")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("unauthorized", s.errorCode(rr))
	s.False(s.reached)

	rr = s.do("Basic abc")
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *RequireAuthSuite) TestInvalidToken() {
	s.validator.EXPECT().ValidateToken("bad").Return(nil, errors.New("signature"))
	rr := s.do("Bearer bad")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.False(s.reached)
}

func (s *RequireAuthSuite) TestUnknownRoleIsRejected() {
	s.validator.EXPECT().ValidateToken("t").Return(&auth.JWTClaims{UserID: 7, Role: "Auditor", JTI: "j1"}, nil)
	rr := s.do("Bearer t")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.False(s.reached)
}

func (s *RequireAuthSuite) TestRevokedToken() {
	s.validator.EXPECT().ValidateToken("t").Return(&auth.JWTClaims{UserID: 7, Role: "Técnico", JTI: "j1"}, nil)
	s.revoked.EXPECT().IsTokenRevoked(gomock.Any(), "j1").Return(true, nil)
	rr := s.do("Bearer t")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.False(s.reached)
}

func (s *RequireAuthSuite) TestMissingJTIWithRevocationEnabled() {
	s.validator.EXPECT().ValidateToken("t").Return(&auth.JWTClaims{UserID: 7, Role: "Técnico"}, nil)
	rr := s.do("Bearer t")
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *RequireAuthSuite) TestRevocationBackendDown() {
	s.validator.EXPECT().ValidateToken("t").Return(&auth.JWTClaims{UserID: 7, Role: "Técnico", JTI: "j1"}, nil)
	s.revoked.EXPECT().IsTokenRevoked(gomock.Any(), "j1").Return(false, errors.New("redis down"))
	rr := s.do("Bearer t")
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Equal("unavailable", s.errorCode(rr))
}

func (s *RequireAuthSuite) TestRevocationCheckerOptional() {
	handler := auth.RequireAuth(s.validator, nil, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.reached = true
	}))
	s.validator.EXPECT().ValidateToken("t").Return(&auth.JWTClaims{UserID: 7, Role: "Administrador"}, nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer t")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, r)
	s.Equal(http.StatusOK, rr.Code)
	s.True(s.reached)
}
