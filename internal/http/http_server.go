package http

// this is entry point of the control api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers/jobs"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers/lifecycle"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers/workers"
)

const shutdownGrace = 5 * time.Second

// ServiceProvider holds what the handlers read and drive. JobLog and
// Mirror are nil when their stores are disabled.
type ServiceProvider struct {
	Initiator primary.JobInitiator
	JobLog    secondary.JobLogReader
	Mirror    secondary.SnapshotRepository
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	middleware      *handlers.MiddlewareProvider
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, middleware *handlers.MiddlewareProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		middleware:      middleware,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.ResponseWithJson(w, http.StatusOK, map[string]string{"service": s.ServiceName, "status": "ok"})
	}).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if s.middleware != nil {
		api.Use(s.middleware.JWTMiddleware)
	}
	sp := s.ServiceProvider
	jobs.NewJobHandler(sp.Initiator, sp.JobLog, s.logger).RegisterRoutes(api)
	workers.NewHandler(sp.Initiator, sp.Mirror, s.logger).Register(api)
	lifecycle.NewHandler(sp.Initiator, s.logger).Register(api)

	s.router = r
	return nil
}

// Handler returns the router built by Init.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.Port, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.router == nil {
		if err := s.Init(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
