package authz

import (
	"net/http"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
)

// Guard wraps next with the authorization gate for one destination. The
// session and identity come from the auth middleware's request context;
// a denial answers with a redirect to the fallback destination, never an
// error status.
func Guard(dest Destination, allowedRoles []models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		ident := auth.IdentityFromContext(r.Context())
		d := Authorize(sess, ident, dest, allowedRoles)
		if !d.Allowed {
			logger.Info("route_redirected", "dest", string(dest), "to", string(d.RedirectTo), "path", r.URL.Path)
			http.Redirect(w, r, string(d.RedirectTo), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GuardFunc is Guard for plain handler funcs.
func GuardFunc(dest Destination, allowedRoles []models.Role, next http.HandlerFunc) http.Handler {
	return Guard(dest, allowedRoles, next)
}
