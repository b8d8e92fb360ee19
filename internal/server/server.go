package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Server encapsulates the HTTP server of the application, providing controlled startup and shutdown.
type Server struct {
	// server — embedded HTTP server from net/http package, fully configured and ready to use.
	server *http.Server
}

// ListenAndServe starts the HTTP server and begins listening on the configured address.
// Blocks execution until the server is stopped or an error occurs.
// If server is stopped via Shutdown, method returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Serve accepts connections on l. Same return semantics as ListenAndServe.
func (s *Server) Serve(l net.Listener) error {
	return s.server.Serve(l)
}

// Shutdown gracefully stops the server with the provided context.
// Stops listening, terminates accepting new connections, and allows active connections
// to complete within the timeout specified in the context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NewServer creates and configures a new server instance.
//
// Parameters:
// - address: address and port to listen on (e.g., ":8080").
// - readTimeout, writeTimeout: connection timeouts.
// - router: API v1 routes.
//
// Limits header size. Returns pointer to a ready-to-run server.
func NewServer(address string, readTimeout, writeTimeout time.Duration, router *ApiV1Router) *Server {
	return &Server{&http.Server{
		Addr:           address,
		Handler:        router.Mux(),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		MaxHeaderBytes: 1024 * 10,
	}}
}
