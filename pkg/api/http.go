// Package api wires the console's HTTP surface: auth, conversations,
// records, routing info and the operational endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"ledgerdesk/pkg/api/handlers"
	"ledgerdesk/pkg/auth"
	"ledgerdesk/pkg/inbox"
	"ledgerdesk/pkg/store"
	"ledgerdesk/pkg/telemetry"
	"ledgerdesk/pkg/utils"
)

// Deps are the collaborators the HTTP surface is built over.
type Deps struct {
	Auth    *auth.Service
	Inbox   *inbox.Registry
	Version string
	// CORSOrigins are the browser origins allowed to call the API.
	// Empty means no cross-origin access.
	CORSOrigins []string
}

// Handler builds the full router. Every request passes through the
// session resolver and the telemetry middleware; per-route guards sit
// on the gated subtrees.
func Handler(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)
	r.Use(d.Auth.ResolveSession)

	r.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyzHandler(d.Version)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.PathPrefix("/openapi.yaml").Handler(http.FileServer(http.Dir("./docs")))

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterAuth(v1, d.Auth)
	handlers.RegisterConversations(v1, d.Inbox)
	handlers.RegisterRecords(v1)
	handlers.RegisterUsers(v1)
	handlers.RegisterRoutes(v1)

	// CORS wraps the router itself: preflights must be answered even on
	// paths whose routes only register mutation methods.
	return corsMiddleware(d.CORSOrigins, r)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readyzHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !store.Ready() {
			utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
		if version == "" {
			version = "dev"
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	}
}
