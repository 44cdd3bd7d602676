package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Server wraps an *http.Server with a start/shutdown lifecycle. The
// controller serves tiny CBOR payloads plus one long-lived WebSocket, so
// header and read limits are kept tight while the write path stays
// untimed for the bridge connection.
type Server struct {
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 16 // 64 KB is plenty for a device API
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 90 * time.Second
)

// Run starts listening on the given port ("8080" or ":8080") and blocks
// until the listener fails or Shutdown is called.
func (s *Server) Run(port string, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              normalizeAddr(port),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func normalizeAddr(port string) string {
	if port == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(port); err == nil {
		return port
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
