// Package policy decides whether a principal may use a route. Routes are
// described declaratively by Descriptor values and judged by Authorize, a
// pure function with no I/O.
package policy

import (
	"net/http"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
)

// Audience selects which branch of principals a route serves.
type Audience string

const (
	// AudiencePublic routes need no session.
	AudiencePublic Audience = "public"
	// AudienceAuthenticated routes accept any principal.
	AudienceAuthenticated Audience = "authenticated"
	// AudienceStaff routes are gated by staff rank.
	AudienceStaff Audience = "staff"
	// AudienceClient routes accept clients only.
	AudienceClient Audience = "client"
	// AudienceNone matches nobody. Used for the default-deny descriptor.
	AudienceNone Audience = "none"
)

// Descriptor is one row of the route table.
type Descriptor struct {
	Name     string   `yaml:"name"`
	Method   string   `yaml:"method"`  // empty or "*" matches any method
	Pattern  string   `yaml:"pattern"` // /api/jobs/:id style, matched with KeyMatch2
	Audience Audience `yaml:"audience"`
	// MinimumRole applies to staff routes; empty admits every staff rank.
	MinimumRole auth.PrincipalType `yaml:"minimum_role,omitempty"`
	// FinanceSensitive routes admit admin and master only, whatever MinimumRole says.
	FinanceSensitive bool `yaml:"finance_sensitive,omitempty"`
}

// DefaultDeny applies to every request no table row matches.
var DefaultDeny = Descriptor{
	Name:     "default-deny",
	Pattern:  "/*",
	Audience: AudienceNone,
}

// Decision is the outcome of Authorize. Denials carry the HTTP status and
// error code the gateway answers with.
type Decision struct {
	Allowed bool
	Status  int
	Code    string
	Reason  string
}

var allow = Decision{Allowed: true, Status: http.StatusOK}

func deny(status int, code, reason string) Decision {
	return Decision{Status: status, Code: code, Reason: reason}
}

// Err converts a denial into the error rendered to the caller. It returns nil
// for an allowed decision.
func (d Decision) Err() *envelope.Error {
	if d.Allowed {
		return nil
	}
	return envelope.NewError(d.Status, d.Code, d.Reason)
}

// Authorize judges principal against d. principal is nil for anonymous
// requests. The checks run in a fixed order: authentication, branch,
// finance, then rank, so a worker on a finance route always sees
// FORBIDDEN_FINANCE.
func Authorize(principal *auth.Principal, d Descriptor) Decision {
	if d.Audience == AudiencePublic {
		return allow
	}
	if principal == nil || !principal.Type.Valid() {
		return deny(http.StatusUnauthorized, envelope.CodeUnauthenticated, "authentication required")
	}

	switch d.Audience {
	case AudienceAuthenticated:
		return allow

	case AudienceClient:
		if !principal.Type.IsClient() {
			return deny(http.StatusForbidden, envelope.CodeForbiddenRole, "this route is for clients")
		}
		return allow

	case AudienceStaff:
		if !principal.Type.IsStaff() {
			return deny(http.StatusForbidden, envelope.CodeForbiddenRole, "this route is for staff")
		}
		if d.FinanceSensitive && principal.Type.Rank() < auth.RankAdmin {
			return deny(http.StatusForbidden, envelope.CodeForbiddenFinance, "financial data requires admin or master")
		}
		if principal.Type.Rank() < d.MinimumRole.Rank() {
			return deny(http.StatusForbidden, envelope.CodeForbiddenRole, "requires "+string(d.MinimumRole)+" or higher")
		}
		return allow

	default:
		return deny(http.StatusNotFound, envelope.CodeRouteNotFound, "route not found")
	}
}
