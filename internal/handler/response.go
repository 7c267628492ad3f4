package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	"student-records/internal/middleware"
	"student-records/internal/model"
	"student-records/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, model.APIResponse{Success: true, Message: message, Data: data})
}

func writePage(w http.ResponseWriter, data any, pagination model.Pagination) {
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: data, Pagination: &pagination})
}

func writeJSON(w http.ResponseWriter, status int, body model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps service errors onto the envelope. Anything unclassified
// is a 500: it is logged, reported to Sentry and only described to the
// client when diagnostics are enabled.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := model.APIResponse{
		Success: false,
		Code:    apierror.CodeInternal,
		Message: "Internal server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrTokenNotFound):
		status, body.Code, body.Message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid refresh token"
	case errors.Is(err, model.ErrTokenRevoked):
		status, body.Code, body.Message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Refresh token has been revoked"
	case errors.Is(err, model.ErrTokenExpired):
		status, body.Code, body.Message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Refresh token has expired"
	case errors.Is(err, model.ErrTokenInvalid):
		status, body.Code, body.Message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid token"
	case errors.Is(err, model.ErrInvalidCredentials):
		status, body.Code, body.Message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid credentials"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status, body.Code, body.Message = http.StatusConflict, apierror.CodeConflict, "User with this email already exists"
	case errors.Is(err, model.ErrUserNotFound):
		status, body.Code, body.Message = http.StatusNotFound, apierror.CodeNotFound, "User not found"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", middleware.RequestIDFromContext(r.Context()),
			"method", r.Method, "path", r.URL.Path, "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		if middleware.ErrorsExposed(r.Context()) {
			body.Error = err.Error()
		}
	}

	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return apierror.Validation("Invalid JSON body", "")
	}
	return nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.NotFound("Route not found", r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.New("METHOD_NOT_ALLOWED", "Method not allowed", r.Method, http.StatusMethodNotAllowed))
}
