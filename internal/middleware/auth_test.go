package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/model"
)

type stubAuthenticator map[string]error

func (s stubAuthenticator) Authenticate(token string) (model.AuthClaims, error) {
	if err, ok := s[token]; ok && err != nil {
		return model.AuthClaims{}, err
	}
	if _, ok := s[token]; !ok {
		return model.AuthClaims{}, model.ErrTokenInvalid
	}
	return model.AuthClaims{UserID: "user-1", DeviceID: "device-a"}, nil
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	mw := NewAuthMiddleware(stubAuthenticator{
		"good":    nil,
		"expired": model.ErrTokenExpired,
	})

	var seen model.AuthClaims
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid bearer", header: "Bearer good", status: http.StatusNoContent},
		{name: "scheme is case insensitive", header: "bearer good", status: http.StatusNoContent},
		{name: "missing header", header: "", status: http.StatusUnauthorized, message: "Access token required"},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg==", status: http.StatusUnauthorized, message: "Access token required"},
		{name: "empty token", header: "Bearer   ", status: http.StatusUnauthorized, message: "Access token required"},
		{name: "expired", header: "Bearer expired", status: http.StatusUnauthorized, message: "Token has expired"},
		{name: "unknown", header: "Bearer forged", status: http.StatusUnauthorized, message: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.JSONEq(t, `{"success":false,"code":"UNAUTHORIZED","message":"`+tt.message+`"}`, rec.Body.String())
			}
		})
	}

	assert.Equal(t, "user-1", seen.UserID)
}

func TestClaimsFromContext_Missing(t *testing.T) {
	_, ok := ClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
