// Package httpx abstracts the HTTP transport so the same handler tree
// can be served by net/http (default) or fasthttp.
package httpx

import (
	"context"
	"fmt"
	"net/http"
)

// Engine names accepted by NewServer.
const (
	EngineNetHTTP  = "nethttp"
	EngineFastHTTP = "fasthttp"
)

// Server is the minimal lifecycle both transports provide.
type Server interface {
	ListenAndServe(addr string) error
	ListenAndServeTLS(addr, certFile, keyFile string) error
	Shutdown(ctx context.Context) error
}

// NewServer builds a server for the selected engine. An empty engine
// means net/http.
func NewServer(engine string, h http.Handler) (Server, error) {
	switch engine {
	case "", EngineNetHTTP:
		return newNetHTTPServer(h), nil
	case EngineFastHTTP:
		return newFastHTTPServer(h), nil
	}
	return nil, fmt.Errorf("unknown http engine: %s", engine)
}
