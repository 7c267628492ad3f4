package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"student-records/internal/model"
	"student-records/pkg/apierror"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			stack := string(debug.Stack())
			slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "path", r.URL.Path, "stack", stack)
			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.RecoverWithContext(r.Context(), recovered)
			}

			body := model.APIResponse{
				Success: false,
				Code:    apierror.CodeInternal,
				Message: "Internal server error",
			}
			if ErrorsExposed(r.Context()) {
				body.Error = fmt.Sprintf("%v", recovered)
				body.Stack = stack
			}
			writeEnvelope(w, http.StatusInternalServerError, body)
		}()

		next.ServeHTTP(w, r)
	})
}
