package server

import (
	"net"
	"net/http"

	"github.com/AlibekovAA/relay-hub/internal/common/constants"
)

const maxHeaderBytes = 1 << 16

// NewServer builds the relay HTTP server. Hijacked WebSocket connections
// manage their own deadlines, so the read/write timeouts only bound REST calls.
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      constants.ServerWriteTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
