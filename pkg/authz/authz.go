// Package authz decides, for an identity and session, whether a console
// destination may be reached and where to send the caller otherwise.
// Denials are redirects, never errors.
package authz

import (
	"ledgerdesk/pkg/models"
)

// Destination is a console route path.
type Destination string

// Console destinations. Public entries are reachable without a session;
// everything else sits behind the route guard.
const (
	DestLogin          Destination = "/login"
	DestSignUp         Destination = "/signup"
	DestForgotPassword Destination = "/forgot-password"

	DestDashboard    Destination = "/dashboard"
	DestClients      Destination = "/clients"
	DestDocuments    Destination = "/documents"
	DestTasks        Destination = "/tasks"
	DestCompliance   Destination = "/compliance"
	DestWorkpapers   Destination = "/workpapers"
	DestSettings     Destination = "/settings"
	DestUsers        Destination = "/users"
	DestClientPortal Destination = "/client-portal"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	RedirectTo Destination
}

func allow() Decision                 { return Decision{Allowed: true} }
func redirect(d Destination) Decision { return Decision{RedirectTo: d} }

// DefaultDestination is the fixed role -> landing destination map:
// clients go to the client portal, every staff-side role to the dashboard.
func DefaultDestination(role models.Role) Destination {
	if role == models.RoleClient {
		return DestClientPortal
	}
	return DestDashboard
}

// Authorize applies the gate for one destination:
//   - no session: redirect to the public entry (login);
//   - allowedRoles non-empty and the identity's role not among them:
//     redirect to the role's default destination. An absent identity can
//     satisfy no role restriction, so gated destinations fall back to the
//     staff dashboard; ungated ones stay reachable.
//   - otherwise: allow.
//
// Pure function of its arguments; no state, no side effects.
func Authorize(sess *models.Session, ident *models.Profile, dest Destination, allowedRoles []models.Role) Decision {
	if sess == nil {
		return redirect(DestLogin)
	}
	if len(allowedRoles) > 0 {
		if ident == nil {
			return redirect(DestDashboard)
		}
		for _, r := range allowedRoles {
			if ident.Role == r {
				return allow()
			}
		}
		return redirect(DefaultDestination(ident.Role))
	}
	return allow()
}
