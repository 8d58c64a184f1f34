package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/target/escrow-api/internal/errors"
)

const (
	msgInternal = "An internal error occurred. Please try again."
	msgUpstream = "The payment processor could not complete the request. Please try again."
)

// ErrorRenderer maps service errors to enveloped JSON responses.
type ErrorRenderer struct {
	// IsDev exposes upstream error detail to callers.
	IsDev  bool
	Logger *slog.Logger
}

// StatusFor returns the HTTP status for an application error code.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeWebhookVerification:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeStateGuard, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Render writes err as an error envelope.
func (e *ErrorRenderer) Render(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	status := StatusFor(code)

	msg := publicMessage(err)
	switch {
	case code == apperrors.ErrCodeUpstream && e.IsDev:
		msg = err.Error()
	case code == apperrors.ErrCodeUpstream:
		msg = msgUpstream
	case status >= http.StatusInternalServerError:
		msg = msgInternal
	}

	details := apperrors.GetDetails(err)
	if field := apperrors.GetField(err); field != "" {
		details = withDetail(details, "field", field)
	}

	e.log(r, status, err)
	WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: errors.New(msg), Details: details})
}

func (e *ErrorRenderer) log(r *http.Request, status int, err error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"method", r.Method, "path", r.URL.Path, "status", status, "error", err}
	if id := RequestIDFromContext(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	case status == http.StatusConflict || status == http.StatusBadRequest:
		logger.InfoContext(r.Context(), "request rejected", attrs...)
	default:
		logger.DebugContext(r.Context(), "request rejected", attrs...)
	}
}

// classify turns bare context and database errors into application errors.
func classify(err error) error {
	if apperrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request was canceled")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperrors.MapDBError(err)
	}
	return err
}

// publicMessage returns the outermost AppError message without its cause chain.
func publicMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func withDetail(details map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out[key] = value
	return out
}
