package app

import (
	"context"
	"time"

	"ledgerdesk/pkg/api"
	"ledgerdesk/pkg/banner"
	"ledgerdesk/pkg/httpx"
	"ledgerdesk/pkg/logger"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	banner.Print(a.eff, a.version)
}

// startHTTP builds the handler, starts the HTTP server in a goroutine
// and returns a channel that will contain any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	h := api.Handler(api.Deps{
		Auth:        a.authSvc,
		Inbox:       a.registry,
		Version:     a.version,
		CORSOrigins: a.eff.Config.Security.CORS.AllowedOrigins,
	})

	errCh := make(chan error, 1)
	srv, err := httpx.NewServer(a.eff.Config.Server.Engine, h)
	if err != nil {
		errCh <- err
		return errCh
	}
	a.srv = srv

	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(a.eff.Addr, cert, key)
		} else {
			errCh <- srv.ListenAndServe(a.eff.Addr)
		}
	}()
	return errCh
}

// stopHTTP drains in-flight requests with a bounded grace period.
func (a *App) stopHTTP() {
	if a.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		logger.Warn("http_shutdown_error", "error", err)
	}
}
