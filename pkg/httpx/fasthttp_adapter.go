package httpx

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type fastHTTPServer struct {
	srv *fasthttp.Server
}

func newFastHTTPServer(h http.Handler) *fastHTTPServer {
	return &fastHTTPServer{srv: &fasthttp.Server{
		Name:    "ledgerdesk",
		Handler: fasthttpadaptor.NewFastHTTPHandler(h),
	}}
}

func (s *fastHTTPServer) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *fastHTTPServer) ListenAndServeTLS(addr, certFile, keyFile string) error {
	return s.srv.ListenAndServeTLS(addr, certFile, keyFile)
}

func (s *fastHTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}
