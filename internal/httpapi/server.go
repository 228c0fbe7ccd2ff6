// Package httpapi exposes the administrative command surface over HTTP.
// Every operation maps onto one service call; the package holds no business
// logic of its own.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/motorinps-dev/emby/internal/logging"
	"github.com/motorinps-dev/emby/internal/models"
	"github.com/motorinps-dev/emby/internal/services"
)

// Lifecycle is the slice of the lifecycle engine the API needs.
type Lifecycle interface {
	Provision(ctx context.Context, entries []services.Entry) (*services.ProvisionReport, error)
	DetectLogins(ctx context.Context) (*services.LoginSweepReport, error)
	ExpireAccounts(ctx context.Context) (*services.ExpirySweepReport, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AccountStats(ctx context.Context) (*services.Stats, error)
}

// Admins is the slice of the admin service the API needs.
type Admins interface {
	AddAdmin(ctx context.Context, chatID int64, username string) error
	RemoveAdmin(ctx context.Context, chatID int64) error
	ListAdmins(ctx context.Context) ([]int64, error)
	AddGroup(ctx context.Context, chatID int64) error
	RemoveGroup(ctx context.Context, chatID int64) error
	ListGroups(ctx context.Context) ([]int64, error)
}

// Pinger checks that the ledger database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves the admin API on a single address.
type Server struct {
	addr      string
	token     string
	lifecycle Lifecycle
	admins    Admins
	db        Pinger
	connCheck func(ctx context.Context) error
	logger    logging.Logger
}

func NewServer(addr, token string, lc Lifecycle, adm Admins, db Pinger, connCheck func(ctx context.Context) error, l logging.Logger) *Server {
	return &Server{
		addr:      addr,
		token:     token,
		lifecycle: lc,
		admins:    adm,
		db:        db,
		connCheck: connCheck,
		logger:    l.With("module", "httpapi"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "admin api listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info(ctx, "admin api stopped")
	return nil
}

// Routes builds the router. Exported so tests can serve it directly.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/provision", s.handleProvision)
		r.Get("/accounts", s.handleListAccounts)
		r.Post("/sweeps/logins", s.handleLoginSweep)
		r.Post("/sweeps/expiry", s.handleExpirySweep)
		r.Post("/admins", s.handleAddAdmin)
		r.Delete("/admins/{id}", s.handleRemoveAdmin)
		r.Post("/admin-groups", s.handleAddGroup)
		r.Delete("/admin-groups/{id}", s.handleRemoveGroup)
		r.Get("/healthz", s.handleHealth)
	})

	return r
}

// authorize is the guard clause run at the top of every protected handler.
// It reports whether the request may proceed; on false the 401 has already
// been written.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got := r.Header.Get("Authorization")
	want := "Bearer " + s.token
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1 {
		return true
	}
	s.writeError(w, http.StatusUnauthorized, "unauthorized")
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "response encoding failed", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
