// Package web exposes the REST surface of the service: authentication,
// directory lookups, health and metrics. Handlers stay thin; all
// directory semantics live in internal/directory.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netresearch/ldap-rest-auth/internal/directory"
)

// Directory is the slice of the directory client the handlers need.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (directory.AuthResult, error)
	FindUserBySAMAccountNameContext(ctx context.Context, sAMAccountName string) (*directory.User, error)
	SearchUsersContext(ctx context.Context, term string) ([]directory.User, error)
	FindUsersInGroupContext(ctx context.Context, groupDN string) ([]directory.User, error)
	FindUsersContext(ctx context.Context) ([]directory.User, error)
	UserGroupsContext(ctx context.Context, sAMAccountName string) ([]string, error)
}

var _ Directory = (*directory.Client)(nil)

// Server serves the HTTP API.
type Server struct {
	dir           Directory
	logger        *slog.Logger
	domain        string
	requiredGroup string

	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// Options configures a Server.
type Options struct {
	Listen string
	// Domain and RequiredGroup are echoed by the health endpoint.
	Domain          string
	RequiredGroup   string
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

// NewServer builds the server and its route table.
func NewServer(dir Directory, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		dir:             dir,
		logger:          logger,
		domain:          opts.Domain,
		requiredGroup:   opts.RequiredGroup,
		shutdownTimeout: opts.ShutdownTimeout,
	}

	s.httpServer = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/authenticate", s.handleAuthenticate)
	mux.HandleFunc("POST /api/auth/honorarios", s.handleAuthenticateHonorarios)
	mux.HandleFunc("GET /api/auth/group/users", s.handleRequiredGroupUsers)
	mux.HandleFunc("GET /api/auth/health", s.handleHealth)

	mux.HandleFunc("GET /api/ldap/users", s.handleListUsers)
	mux.HandleFunc("GET /api/ldap/users/search", s.handleSearchUsers)
	mux.HandleFunc("GET /api/ldap/users/{username}", s.handleGetUser)
	mux.HandleFunc("GET /api/ldap/users/{username}/groups", s.handleGetUserGroups)

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestID(s.withAccessLog(s.withMetrics(mux)))
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http_server_shutting_down",
		slog.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response_encoding_failed", slog.String("error", err.Error()))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
