// Package routing selects which destination set is reachable for the
// current session state, before per-destination authorization applies.
package routing

import (
	"sync"

	"ledgerdesk/pkg/authz"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/session"
)

// Area is the coarse screen set selected by session state.
type Area int

const (
	// AreaLoading: initial state, session check in flight.
	AreaLoading Area = iota
	// AreaPublic: no session; only login/signup/password-reset reachable.
	AreaPublic
	// AreaClientPortal: session present, role=client.
	AreaClientPortal
	// AreaStaff: session present, any non-client role; each destination
	// is still individually gated by authz.
	AreaStaff
)

func (a Area) String() string {
	switch a {
	case AreaLoading:
		return "loading"
	case AreaPublic:
		return "public"
	case AreaClientPortal:
		return "client"
	case AreaStaff:
		return "staff"
	}
	return "unknown"
}

// AreaOf classifies session state into an area. Pure; the controller and
// the routes endpoint share it.
func AreaOf(loading bool, sess *models.Session, ident *models.Profile) Area {
	if loading {
		return AreaLoading
	}
	if sess == nil {
		return AreaPublic
	}
	if ident != nil && ident.Role == models.RoleClient {
		return AreaClientPortal
	}
	return AreaStaff
}

// RoutesFor returns the reachable destinations for an area. The loading
// area has none: nothing renders until the session check resolves.
func RoutesFor(a Area) []authz.Destination {
	switch a {
	case AreaPublic:
		return []authz.Destination{authz.DestLogin, authz.DestSignUp, authz.DestForgotPassword}
	case AreaClientPortal:
		return []authz.Destination{authz.DestClientPortal}
	case AreaStaff:
		return []authz.Destination{
			authz.DestDashboard, authz.DestClients, authz.DestDocuments,
			authz.DestTasks, authz.DestCompliance, authz.DestWorkpapers,
			authz.DestSettings, authz.DestUsers,
		}
	}
	return nil
}

// Controller composes the session store and the authorization gate to
// keep the visible screen set current. It re-evaluates on every session
// change for the process lifetime; there is no terminal state and no
// timeout out of loading other than the store resolving.
type Controller struct {
	sessions *session.Store

	mu   sync.RWMutex
	area Area
}

// New builds a controller over the given session store. The store is an
// explicit dependency: passing nil is a programming error, caught here
// rather than at first use.
func New(s *session.Store) *Controller {
	if s == nil {
		panic("routing: nil session store")
	}
	c := &Controller{sessions: s}
	s.OnChange(c.recompute)
	c.recompute()
	return c
}

func (c *Controller) recompute() {
	a := AreaOf(c.sessions.Loading(), c.sessions.Session(), c.sessions.Identity())
	c.mu.Lock()
	c.area = a
	c.mu.Unlock()
}

// Area returns the current screen set.
func (c *Controller) Area() Area {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.area
}

// Routes returns the reachable destinations for the current area.
func (c *Controller) Routes() []authz.Destination {
	return RoutesFor(c.Area())
}
