package httpx

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServerEngines(t *testing.T) {
	h := http.NewServeMux()

	srv, err := NewServer("", h)
	require.NoError(t, err)
	require.IsType(t, &netHTTPServer{}, srv)

	srv, err = NewServer(EngineNetHTTP, h)
	require.NoError(t, err)
	require.IsType(t, &netHTTPServer{}, srv)

	srv, err = NewServer(EngineFastHTTP, h)
	require.NoError(t, err)
	require.IsType(t, &fastHTTPServer{}, srv)

	_, err = NewServer("apache", h)
	require.Error(t, err)
}
