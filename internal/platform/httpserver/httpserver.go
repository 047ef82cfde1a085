// Package httpserver constructs the HTTP server with timeouts sized for the
// verification workload.
package httpserver

import (
	"net/http"
	"time"
)

// Verification requests may spend up to 60s in DNS retries, so the write
// timeout has to outlast the handler-level timeout or the server would cut
// the connection before the handler can answer.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 90 * time.Second
	idleTimeout       = 120 * time.Second
)

// New builds an HTTP server for the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
