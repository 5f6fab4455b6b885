package middleware

import (
	"net/http"
	"strings"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// Access is the authorization requirement of a route.
type Access int

const (
	// AccessAuthenticated requires a valid bearer token.
	AccessAuthenticated Access = iota
	// AccessPublic lets the request through without a token.
	AccessPublic
	// AccessScope requires a valid token carrying Rule.Scope.
	AccessScope
)

// Rule binds a method and path pattern to an access requirement.
//
// An empty Method matches every method. Patterns are slash-separated; a
// ":name" segment matches exactly one non-empty segment and a trailing "*"
// matches any remainder, including none.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
	Scope   string
}

// Public returns a rule exempting the route from authentication.
func Public(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, Access: AccessPublic}
}

// Authenticated returns a rule requiring any valid token.
func Authenticated(method, pattern string) Rule {
	return Rule{Method: method, Pattern: pattern, Access: AccessAuthenticated}
}

// RequireScope returns a rule requiring a token that grants scope.
func RequireScope(method, pattern, scope string) Rule {
	return Rule{Method: method, Pattern: pattern, Access: AccessScope, Scope: scope}
}

// RouteTable is an ordered list of rules. The first matching rule wins and
// unmatched requests require authentication.
type RouteTable []Rule

// DefaultRouteTable is the access policy of the customer API.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		Public("", "/customers/login"),
		Public(http.MethodPost, "/customers"),
		RequireScope(http.MethodGet, "/customers", domain.RoleAdmin.Scope()),
		Authenticated("", "/customers/:id"),
		Public(http.MethodGet, "/health/*"),
		Public(http.MethodGet, "/swagger/*"),
		Public(http.MethodGet, "/metrics"),
	}
}

// Lookup returns the rule governing method and path.
func (t RouteTable) Lookup(method, path string) Rule {
	for _, r := range t {
		if r.Method != "" && !strings.EqualFold(r.Method, method) {
			continue
		}
		if matchPattern(r.Pattern, path) {
			return r
		}
	}
	return Rule{Method: method, Pattern: path, Access: AccessAuthenticated}
}

func matchPattern(pattern, path string) bool {
	ps := splitPath(pattern)
	segs := splitPath(path)

	for i, p := range ps {
		if p == "*" && i == len(ps)-1 {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if strings.HasPrefix(p, ":") {
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return len(ps) == len(segs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
