// Package api serves the aggregated account view over HTTP as JSON, and a
// gRPC health service for process supervisors.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"bankroll/internal/broker"
	"bankroll/internal/config"
)

var errNoMarketData = errors.New("no configured source provides market data")

// Server hosts the HTTP API and the gRPC health service.
type Server struct {
	cfg     config.Server
	account broker.Composite
	log     *slog.Logger
	health  *healthService
}

// NewServer creates a Server answering from account. A nil log means
// slog.Default().
func NewServer(cfg config.Server, account broker.Composite, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		account: account,
		log:     log.With("component", "api"),
		health:  newHealthService(),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("GET /api/v1/activity", s.handleActivity)
	mux.HandleFunc("GET /api/v1/balance", s.handleBalance)
	mux.HandleFunc("GET /api/v1/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/v1/quotes", s.handleQuotes)
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// ListenAndServe starts the HTTP and gRPC listeners and blocks until ctx is
// cancelled or a listener fails, then shuts both down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	grpcLn, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.GRPCPort)))
	if err != nil {
		httpLn.Close()
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.Serve(ctx, httpLn, grpcLn)
}

// Serve is ListenAndServe on existing listeners.
func (s *Server) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpc.NewServer()
	s.health.register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.log.Info("gRPC health server listening", "addr", grpcLn.Addr().String())
		if err := grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down API server")
		s.health.shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown error", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})
	s.health.serving()

	return g.Wait()
}
