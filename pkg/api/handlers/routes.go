package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/routing"
	"ledgerdesk/pkg/utils"
)

// RegisterRoutes registers GET /routes, which tells a console frontend
// which screen set the caller's session state selects. Open to
// everyone; an unauthenticated caller simply gets the public area.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/routes", getRoutes).Methods(http.MethodGet)
}

func getRoutes(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	ident := auth.IdentityFromContext(r.Context())

	// Server side the session check has already resolved, so the
	// loading area never applies here.
	area := routing.AreaOf(false, sess, ident)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"area":   area.String(),
		"routes": routing.RoutesFor(area),
	})
}
