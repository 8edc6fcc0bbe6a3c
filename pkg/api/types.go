// Package api exposes the logger over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness probe
//	GET  /status           controller status snapshot (JSON)
//	GET  /sessions         journal entries (JSON)
//	GET  /sessions/{index} one journal entry (JSON)
//	POST /toggle           virtual button press, rate limited per client
//	GET  /metrics          Prometheus metrics
//
// The toggle route only queues a press; the sampling loop applies it at
// its next iteration boundary, exactly like the physical button.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
)

// Sessions is the read side of the session journal.
type Sessions interface {
	List() ([]*journal.Entry, error)
	Get(index uint32) (*journal.Entry, error)
}

// Server serves the HTTP surface.
type Server interface {
	// Handler returns the router, for tests and embedding.
	Handler() http.Handler

	// Run listens on the configured address and serves until ctx is
	// cancelled, then shuts down gracefully. It returns nil after a clean
	// shutdown.
	Run(ctx context.Context) error

	// Addr returns the bound listen address, or nil before Run has bound.
	Addr() net.Addr
}

// Config contains server configuration.
type Config struct {
	// Listen is the TCP listen address, e.g. "127.0.0.1:8080".
	Listen string

	// ToggleRate is the number of POST /toggle requests allowed per client
	// per minute (default: 10).
	ToggleRate int

	// ReadHeaderTimeout bounds reading request headers (default: 5s).
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration
}

// Deps are the server's collaborators. Sessions is optional; without it
// the session routes answer 503.
type Deps struct {
	Controller controller.Controller
	Sessions   Sessions
}

// toggleResponse is the body of a POST /toggle reply.
type toggleResponse struct {
	Accepted bool             `json:"accepted"`
	State    controller.State `json:"state"`
	Pending  int              `json:"pending_presses"`
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
