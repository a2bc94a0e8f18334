package httpx

import (
	"context"
	"net/http"
)

type netHTTPServer struct {
	srv *http.Server
}

func newNetHTTPServer(h http.Handler) *netHTTPServer {
	return &netHTTPServer{srv: &http.Server{Handler: h}}
}

func (s *netHTTPServer) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	return s.srv.ListenAndServe()
}

func (s *netHTTPServer) ListenAndServeTLS(addr, certFile, keyFile string) error {
	s.srv.Addr = addr
	return s.srv.ListenAndServeTLS(certFile, keyFile)
}

func (s *netHTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
