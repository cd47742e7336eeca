package testutil

import (
	"net/http"

	id "dicri/pkg/domain"
	"dicri/pkg/requestcontext"
)

// WithCaller places a verified caller on the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, userID id.UserID, role id.Role) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), id.Caller{UserID: userID, Role: role})
	return req.WithContext(ctx)
}

// Role shorthands for WithCaller.
func AsTecnico(req *http.Request, userID id.UserID) *http.Request {
	return WithCaller(req, userID, id.RoleTecnico)
}

func AsCoordinador(req *http.Request, userID id.UserID) *http.Request {
	return WithCaller(req, userID, id.RoleCoordinador)
}

func AsAdministrador(req *http.Request, userID id.UserID) *http.Request {
	return WithCaller(req, userID, id.RoleAdministrador)
}
