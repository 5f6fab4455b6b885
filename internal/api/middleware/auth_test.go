package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-api/internal/core/domain"
)

type stubCodec struct {
	verifyFn func(token string) (*domain.Claims, error)
	calls    int
}

func (s *stubCodec) Sign(domain.Claims) (string, error) { return "", errors.New("not implemented") }

func (s *stubCodec) Verify(token string) (*domain.Claims, error) {
	s.calls++
	return s.verifyFn(token)
}

func codecFor(tokens map[string]*domain.Claims) *stubCodec {
	return &stubCodec{verifyFn: func(token string) (*domain.Claims, error) {
		switch token {
		case "expired":
			return nil, domain.ErrTokenExpired
		case "garbage":
			return nil, domain.ErrTokenMalformed
		}
		if c, ok := tokens[token]; ok {
			return c, nil
		}
		return nil, domain.ErrTokenSignature
	}}
}

var (
	customerClaims = &domain.Claims{Subject: "ana@example.com", Scopes: []string{"SCOPE_ROLE_CUSTOMER"}, CustomerID: 2}
	adminClaims    = &domain.Claims{Subject: "matheus@example.com", Scopes: []string{"SCOPE_ROLE_ADMIN"}, CustomerID: 1}
)

func runGate(t *testing.T, codec *stubCodec, method, path, authHeader string) (bool, domain.Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		called    bool
		principal domain.Principal
	)
	h := Gate(DefaultRouteTable(), codec)(func(c echo.Context) error {
		called = true
		fromCtx, ok := domain.PrincipalFrom(c.Request().Context())
		if ok {
			principal = fromCtx
		}
		if p, _ := c.Get(PrincipalKey).(domain.Principal); p.Subject != principal.Subject {
			t.Fatalf("echo and request context principals differ")
		}
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return called, principal, err
}

func TestGate_PublicRouteSkipsVerification(t *testing.T) {
	codec := codecFor(nil)
	called, p, err := runGate(t, codec, http.MethodPost, "/customers/login", "Bearer garbage")
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}
	if !p.Anonymous() {
		t.Fatalf("expected anonymous principal, got %+v", p)
	}
	if codec.calls != 0 {
		t.Fatalf("expected no token verification on a public route")
	}
}

func TestGate_Denials(t *testing.T) {
	codec := codecFor(map[string]*domain.Claims{"customer": customerClaims})

	tests := []struct {
		name, method, path, header string
		wantErr                    error
	}{
		{"missing header", http.MethodGet, "/customers/2", "", domain.ErrMissingToken},
		{"wrong scheme", http.MethodGet, "/customers/2", "Basic YWxhZGRpbjpvcGVu", domain.ErrMissingToken},
		{"empty bearer", http.MethodGet, "/customers/2", "Bearer   ", domain.ErrMissingToken},
		{"malformed token", http.MethodGet, "/customers/2", "Bearer garbage", domain.ErrTokenMalformed},
		{"expired token", http.MethodGet, "/customers/2", "Bearer expired", domain.ErrTokenExpired},
		{"bad signature", http.MethodGet, "/customers/2", "Bearer forged", domain.ErrTokenSignature},
		{"customer listing all", http.MethodGet, "/customers", "Bearer customer", domain.ErrAccessDenied},
		{"unknown route without token", http.MethodGet, "/nowhere", "", domain.ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called, _, err := runGate(t, codec, tt.method, tt.path, tt.header)
			if called {
				t.Fatalf("handler must not run on denial")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGate_AccessDeniedIsNotUnauthenticated(t *testing.T) {
	codec := codecFor(map[string]*domain.Claims{"customer": customerClaims})
	_, _, err := runGate(t, codec, http.MethodGet, "/customers", "Bearer customer")
	if errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("scope failure must be distinct from authentication failure")
	}
}

func TestGate_PassAttachesPrincipal(t *testing.T) {
	codec := codecFor(map[string]*domain.Claims{"customer": customerClaims, "admin": adminClaims})

	called, p, err := runGate(t, codec, http.MethodGet, "/customers/2", "bearer customer")
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}
	if p.Subject != "ana@example.com" || p.CustomerID != 2 || len(p.Scopes) != 1 {
		t.Fatalf("unexpected principal: %+v", p)
	}

	called, p, err = runGate(t, codec, http.MethodGet, "/customers", "Bearer admin")
	if err != nil || !called {
		t.Fatalf("expected admin to list, got called=%v err=%v", called, err)
	}
	if p.CustomerID != 1 {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestGate_ForeignVerifierErrorBecomesInvalidToken(t *testing.T) {
	codec := &stubCodec{verifyFn: func(string) (*domain.Claims, error) { return nil, errors.New("boom") }}
	_, _, err := runGate(t, codec, http.MethodGet, "/customers/2", "Bearer x")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
