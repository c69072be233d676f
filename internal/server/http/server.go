package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/log"
	"github.com/autopeer-io/robocmd/pkg/options"
)

// Server exposes health probes, metrics and the scheduler's active commands.
type Server struct {
	server  *http.Server
	router  *mux.Router
	options *options.HttpOptions
	ready   atomic.Bool
}

func NewServer(opts *options.HttpOptions, sched *command.Scheduler, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		options: opts,
	}

	// Basic Liveness Probe
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Ready once the control loop is running.
	s.router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "control loop not running", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.HandleJSON("/commands", func() any { return sched.Active() })

	s.server = &http.Server{
		Addr:    opts.Addr,
		Handler: s.router,
	}
	return s
}

// HandleJSON serves the value returned by fn, encoded as JSON, on GET path.
func (s *Server) HandleJSON(path string, fn func() any) {
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(fn()); err != nil {
			log.Error(err, "Failed to encode response", "path", path)
		}
	}).Methods(http.MethodGet)
}

// SetReady flips the readiness probe.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is done and then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
