package middleware

import (
	"context"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type exposeErrorsKey struct{}

// Diagnostics controls whether 500 responses carry the error text and,
// for recovered panics, the stack. It is enabled outside production.
func Diagnostics(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), exposeErrorsKey{}, expose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ErrorsExposed(ctx context.Context) bool {
	expose, _ := ctx.Value(exposeErrorsKey{}).(bool)
	return expose
}

// Sentry gives each request its own hub when a Sentry client is configured.
func Sentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sentry.CurrentHub().Client() == nil {
			next.ServeHTTP(w, r)
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(r)
		ctx := sentry.SetHubOnContext(r.Context(), hub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
