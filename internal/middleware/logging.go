package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	// Error envelopes are small; anything past this is not worth parsing.
	maxCapturedBody = 4 << 10
)

const requestIDContextKey contextKey = "request_id"

// RequestIDFromContext returns the id assigned by RequestLogger, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

type failureEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Error   string `json:"error"`
}

// RequestLogger emits one entry per request, levelled by status. Failed
// responses also carry the envelope code and message.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDContextKey, requestID))

			started := time.Now()
			capture := &bodyCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", capture.status),
				slog.Int64("duration_ms", time.Since(started).Milliseconds()),
				slog.String("client_ip", extractClientIP(r)),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				attrs = append(attrs, slog.String("route", rctx.RoutePattern()))
			}

			level := slog.LevelInfo
			if capture.status >= 400 {
				level = slog.LevelWarn
				if capture.status >= 500 {
					level = slog.LevelError
				}
				if r.URL.RawQuery != "" {
					attrs = append(attrs, slog.String("query", r.URL.RawQuery))
				}
				attrs = append(attrs, capture.failureAttrs()...)
			}

			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}

type bodyCapture struct {
	http.ResponseWriter
	status      int
	body        []byte
	wroteHeader bool
}

func (c *bodyCapture) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.status = statusCode
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *bodyCapture) Write(b []byte) (int, error) {
	if c.status >= 400 && len(c.body) < maxCapturedBody {
		room := maxCapturedBody - len(c.body)
		if len(b) < room {
			room = len(b)
		}
		c.body = append(c.body, b[:room]...)
	}
	return c.ResponseWriter.Write(b)
}

func (c *bodyCapture) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

func (c *bodyCapture) failureAttrs() []slog.Attr {
	var env failureEnvelope
	if len(c.body) == 0 || json.Unmarshal(c.body, &env) != nil || env.Code == "" {
		return nil
	}

	attrs := []slog.Attr{slog.String("error_code", env.Code), slog.String("error_message", env.Message)}
	if env.Details != "" {
		attrs = append(attrs, slog.String("error_details", env.Details))
	}
	if env.Error != "" {
		attrs = append(attrs, slog.String("error", env.Error))
	}
	return attrs
}
