package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-api/internal/api/metrics"
	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

// PrincipalKey is the echo context key holding the request's domain.Principal.
const PrincipalKey = "principal"

// Gate authorizes every request against table before it reaches a handler.
//
// Public routes pass with an anonymous principal. Other routes need an
// "Authorization: Bearer <token>" header whose token verifies with codec, and
// scope-restricted routes additionally need the scope in the token. Denials
// are returned as domain errors for the HTTP error handler to render.
func Gate(table RouteTable, codec ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rule := table.Lookup(req.Method, req.URL.Path)

			if rule.Access == AccessPublic {
				metrics.GateDecisionsTotal.WithLabelValues("pass", "public").Inc()
				c.Set(PrincipalKey, domain.Principal{})
				return next(c)
			}

			token, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.GateDecisionsTotal.WithLabelValues("deny", "missing_token").Inc()
				return domain.ErrMissingToken
			}

			claims, err := codec.Verify(token)
			if err != nil {
				metrics.GateDecisionsTotal.WithLabelValues("deny", verifyReason(err)).Inc()
				if !errors.Is(err, domain.ErrUnauthenticated) {
					err = fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
				}
				return err
			}

			if rule.Access == AccessScope && !claims.HasScope(rule.Scope) {
				metrics.GateDecisionsTotal.WithLabelValues("deny", "forbidden").Inc()
				return domain.ErrAccessDenied
			}

			p := domain.Principal{
				Subject:    claims.Subject,
				Scopes:     claims.Scopes,
				CustomerID: claims.CustomerID,
			}
			c.Set(PrincipalKey, p)
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))

			metrics.GateDecisionsTotal.WithLabelValues("pass", "authorized").Inc()
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		return "bad_signature"
	default:
		return "invalid"
	}
}
