// Package server implements the basalt development server: a static file
// HTTP server over the build output, a serialized rebuild loop fed by
// coalesced file-watch triggers, the persisted run-state file, and the
// lifecycle controller tying them together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	basalterrors "github.com/basalt-ssg/basalt/internal/errors"
	"github.com/basalt-ssg/basalt/internal/logging"
)

// HTTPServer is the minimal static file server of the dev loop. The
// listener is bound at construction time so port conflicts surface as fatal
// startup errors before any other component starts.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	logger   logging.Logger
}

// NewHTTPServer binds host:port and prepares the handler chain. reloadHub
// may be nil to disable the live-reload endpoint.
func NewHTTPServer(host string, port int, outputRoot string, reloadHub *ReloadHub, logger logging.Logger, useColor bool) (*HTTPServer, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, basalterrors.Network("could not bind "+addr, err)
	}

	mux := http.NewServeMux()
	if reloadHub != nil {
		mux.Handle(ReloadPath, reloadHub)
	}
	mux.Handle("/", &staticHandler{root: outputRoot})

	httpLogger := logger.WithComponent("http")
	return &HTTPServer{
		srv: &http.Server{
			Handler:           accessLog(mux, httpLogger, useColor),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   httpLogger,
	}, nil
}

// Addr returns the bound listen address, useful when port 0 was requested.
func (s *HTTPServer) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until Shutdown is called, blocking the calling
// goroutine. A shutdown-initiated stop returns nil.
func (s *HTTPServer) Serve() error {
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and unblocks Serve. Callable
// from any goroutine.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Close tears the listener down without draining, for partial-start
// cleanup.
func (s *HTTPServer) Close() error {
	return s.srv.Close()
}
