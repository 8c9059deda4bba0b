// Package api serves the ledger over a JSON HTTP interface.
//
// Every request names its user in the X-User-ID header; there is no
// authentication. Amounts cross the boundary as strings with exactly two
// fraction digits.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/goals"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/metrics"
	"github.com/tally-dev/tally/internal/splits"
)

// UserHeader carries the caller's user id.
const UserHeader = "X-User-ID"

// Deps are the services the API serves.
type Deps struct {
	Accounts   *accounts.Service
	Ledger     *ledger.Service
	Reconciler *balance.Reconciler
	Goals      *goals.Service
	Splits     *splits.Service
	Metrics    *metrics.Metrics // optional
	Logger     *slog.Logger     // optional
}

// Server routes API requests to the services.
type Server struct {
	accounts   *accounts.Service
	ledger     *ledger.Service
	reconciler *balance.Reconciler
	goals      *goals.Service
	splits     *splits.Service
	metrics    *metrics.Metrics
	log        *slog.Logger
	mux        *http.ServeMux
}

// New builds a Server with every route registered.
func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		accounts:   d.Accounts,
		ledger:     d.Ledger,
		reconciler: d.Reconciler,
		goals:      d.Goals,
		splits:     d.Splits,
		metrics:    d.Metrics,
		log:        log,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	user := s.requireUser

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.Handle("GET /accounts", user(s.listAccounts))
	s.mux.Handle("POST /accounts", user(s.createAccount))
	s.mux.Handle("PUT /accounts/order", user(s.reorderAccounts))
	s.mux.Handle("GET /accounts/{id}", user(s.getAccount))
	s.mux.Handle("PATCH /accounts/{id}", user(s.updateAccount))
	s.mux.Handle("DELETE /accounts/{id}", user(s.deleteAccount))
	s.mux.Handle("POST /accounts/{id}/deactivate", user(s.deactivateAccount))
	s.mux.Handle("POST /accounts/{id}/reactivate", user(s.reactivateAccount))
	s.mux.Handle("POST /accounts/{id}/reseed", user(s.reseedAccount))
	s.mux.Handle("GET /accounts/{id}/entries", user(s.listEntries))
	s.mux.Handle("GET /accounts/{id}/balance", user(s.getBalance))
	s.mux.Handle("GET /accounts/{id}/balance/check", user(s.checkBalance))
	s.mux.Handle("POST /accounts/{id}/balance/recompute", user(s.recomputeBalance))

	s.mux.Handle("GET /balance/total", user(s.totalBalance))
	s.mux.Handle("POST /balance/recompute", user(s.recomputeAll))
	s.mux.Handle("GET /summary/{year}/{month}", user(s.monthlySummary))

	s.mux.Handle("POST /entries", user(s.createEntry))
	s.mux.Handle("GET /entries/{id}", user(s.getEntry))
	s.mux.Handle("PUT /entries/{id}", user(s.updateEntry))
	s.mux.Handle("DELETE /entries/{id}", user(s.deleteEntry))
	s.mux.Handle("DELETE /series/{id}", user(s.deleteSeries))

	s.mux.Handle("POST /transfers", user(s.createTransfer))
	s.mux.Handle("GET /transfers/{id}", user(s.getTransfer))
	s.mux.Handle("DELETE /transfers/{id}", user(s.deleteTransfer))

	s.mux.Handle("GET /goals", user(s.listGoals))
	s.mux.Handle("POST /goals", user(s.createGoal))
	s.mux.Handle("GET /goals/{id}", user(s.getGoal))
	s.mux.Handle("DELETE /goals/{id}", user(s.deleteGoal))
	s.mux.Handle("GET /goals/{id}/progress", user(s.goalProgress))
	s.mux.Handle("PUT /goals/{id}/completed", user(s.setGoalCompleted))
	s.mux.Handle("PUT /goals/{id}/accounts/{accountID}", user(s.linkGoalAccount))
	s.mux.Handle("DELETE /goals/{id}/accounts/{accountID}", user(s.unlinkGoalAccount))

	s.mux.Handle("GET /splits", user(s.listSplits))
	s.mux.Handle("POST /splits", user(s.createSplit))
	s.mux.Handle("GET /splits/outstanding", user(s.outstandingSplits))
	s.mux.Handle("GET /splits/{id}", user(s.getSplit))
	s.mux.Handle("PUT /splits/{id}/participants/{participantID}/paid", user(s.markParticipantPaid))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	if s.metrics != nil {
		s.metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	}
	s.log.DebugContext(r.Context(), "request",
		"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireUser rejects requests with no X-User-ID header.
func (s *Server) requireUser(h userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserHeader)
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: UserHeader + " header is required"})
			return
		}
		h(w, r, userID)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
