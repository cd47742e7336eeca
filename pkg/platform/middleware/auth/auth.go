// Package auth verifies bearer tokens issued by the external authentication
// service and places the verified caller in the request context.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "dicri/pkg/domain"
	dErrors "dicri/pkg/domain-errors"
	"dicri/pkg/platform/httputil"
	request "dicri/pkg/platform/middleware/request"
	"dicri/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID id.UserID
	Role   string
	JTI    string // JWT ID for revocation tracking
}

func reject(w http.ResponseWriter, code dErrors.Code, msg string) {
	httputil.WriteError(w, dErrors.New(code, msg))
}

func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				reject(w, dErrors.CodeUnauthorized, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				reject(w, dErrors.CodeUnauthorized, "Invalid or expired token")
				return
			}

			role, err := id.ParseRole(claims.Role)
			if err != nil || claims.UserID.IsNil() {
				logger.WarnContext(ctx, "unauthorized access - unusable identity claims",
					"role", claims.Role,
					"request_id", requestID,
				)
				reject(w, dErrors.CodeUnauthorized, "Invalid or expired token")
				return
			}

			if revocationChecker != nil {
				if claims.JTI == "" {
					logger.WarnContext(ctx, "unauthorized access - missing token jti",
						"request_id", requestID,
					)
					reject(w, dErrors.CodeUnauthorized, "Invalid or expired token")
					return
				}

				revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					reject(w, dErrors.CodeUnavailable, "Failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", requestID,
					)
					reject(w, dErrors.CodeUnauthorized, "Token has been revoked")
					return
				}
			}

			ctx = requestcontext.WithCaller(ctx, id.Caller{UserID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
