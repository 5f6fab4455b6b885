package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/api/handler"
	"github.com/99minutos/customer-api/internal/core/domain"
)

const bearerChallenge = `Bearer realm="customer-api"`

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status, category and message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON body: {timestamp, status, error, message, path}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return newHTTPErrorHandler(log, time.Now)
}

func newHTTPErrorHandler(log zerolog.Logger, now func() time.Time) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, category, msg := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, bearerChallenge)
		}

		body := handler.ErrorResponse{
			Timestamp: now().UTC().Format(time.RFC3339),
			Status:    code,
			Error:     category,
			Message:   msg,
			Path:      c.Request().URL.Path,
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	var (
		validation *domain.ValidationError
		argType    *domain.ArgumentTypeError
		notFound   *domain.NotFoundError
	)

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "Validation failed", validation.Error()
	case errors.As(err, &argType):
		return http.StatusBadRequest, "Invalid argument type", argType.Error()
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, "Invalid date format", "Invalid date format. Expected format: yyyy-MM-dd"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "Resource not found", notFound.Error()
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, "Resource not found", "Customer not found"
	case errors.Is(err, domain.ErrNationalIDExists):
		return http.StatusBadRequest, "Business rule violation", "National ID already exists"
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusBadRequest, "Business rule violation", "Email already exists"
	case errors.Is(err, domain.ErrBusinessRule):
		return http.StatusBadRequest, "Business rule violation", "Business rule violation"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", "Email or password is incorrect"
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, "Unauthorized", "Missing or invalid bearer token"
	case errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusUnauthorized, "Invalid token", "The access token is malformed"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid token", "The access token is expired or invalid"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "Access denied", "You do not have permission to access this resource"
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, "Too many requests", "Too many login attempts, retry later"
	}

	// Echo's own errors (bind failures, 404/405 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, http.StatusText(he.Code), fmt.Sprintf("%v", he.Message)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error", "An internal server error occurred"
}
