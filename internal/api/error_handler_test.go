package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/api/handler"
	"github.com/99minutos/customer-api/internal/core/domain"
)

func renderError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, handler.ErrorResponse) {
	t.Helper()
	fixed := time.Date(2025, 9, 2, 12, 30, 0, 0, time.UTC)
	h := newHTTPErrorHandler(zerolog.Nop(), func() time.Time { return fixed })

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/customers/7", nil), rec)
	h(err, c)

	var body handler.ErrorResponse
	if method != http.MethodHead {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{"not found", fmt.Errorf("get: %w", &domain.NotFoundError{ID: 7}), 404, "Resource not found", "Customer not found with ID: 7"},
		{"email taken", domain.ErrEmailExists, 400, "Business rule violation", "Email already exists"},
		{"expired token", domain.ErrTokenExpired, 401, "Invalid token", "The access token is expired or invalid"},
		{"forbidden", domain.ErrAccessDenied, 403, "Access denied", "You do not have permission to access this resource"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), 405, "Method Not Allowed", "method not allowed"},
		{"unexpected", errors.New("connection reset by peer"), 500, "Internal server error", "An internal server error occurred"},
		{"echo 5xx", echo.NewHTTPError(http.StatusBadGateway, "upstream secret"), 500, "Internal server error", "An internal server error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := renderError(t, http.MethodGet, tt.err)
			if rec.Code != tt.wantStatus || body.Status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d/%d", tt.wantStatus, rec.Code, body.Status)
			}
			if body.Error != tt.wantError || body.Message != tt.wantMessage {
				t.Fatalf("unexpected body: %+v", body)
			}
			if body.Path != "/customers/7" || body.Timestamp != "2025-09-02T12:30:00Z" {
				t.Fatalf("unexpected path or timestamp: %+v", body)
			}
		})
	}
}

func TestHTTPErrorHandler_UnauthorizedChallenge(t *testing.T) {
	rec, _ := renderError(t, http.MethodGet, domain.ErrMissingToken)
	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != bearerChallenge {
		t.Fatalf("unexpected challenge %q", got)
	}

	rec, _ = renderError(t, http.MethodGet, domain.ErrAccessDenied)
	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "" {
		t.Fatalf("403 must not carry a challenge, got %q", got)
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := renderError(t, http.MethodHead, &domain.NotFoundError{ID: 7})
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected bodiless 404, got %d with %q", rec.Code, rec.Body.String())
	}
}
