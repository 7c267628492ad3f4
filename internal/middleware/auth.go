package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"student-records/internal/model"
	"student-records/pkg/apierror"
)

type tokenAuthenticator interface {
	Authenticate(accessToken string) (model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	authenticator tokenAuthenticator
}

func NewAuthMiddleware(authenticator tokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the
// verified claims on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			writeFailure(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "Access token required")
			return
		}

		token := strings.TrimSpace(header[7:])
		if token == "" {
			writeFailure(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "Access token required")
			return
		}

		claims, err := m.authenticator.Authenticate(token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, model.ErrTokenExpired) {
				message = "Token has expired"
			}
			writeFailure(w, http.StatusUnauthorized, apierror.CodeUnauthorized, message)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AuthClaims)
	return claims, ok
}
