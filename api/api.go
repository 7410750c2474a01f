package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luca-patrignani/radio-rps/application"
	"github.com/luca-patrignani/radio-rps/ledger"
)

var ErrNoMatch = errors.New("no match started")

// StatusSource is what the server reports on. *application.StatusBoard
// implements it.
type StatusSource interface {
	Status() application.Status
	Ledger() *ledger.Ledger
}

type apiFunc func(w http.ResponseWriter, r *http.Request) error

// httpError carries the status code a handler failure maps to.
type httpError struct {
	status int
	err    error
}

func (e httpError) Error() string { return e.err.Error() }
func (e httpError) Unwrap() error { return e.err }

func makeHTTPHandlerFunc(f apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			status := http.StatusBadRequest
			var he httpError
			if errors.As(err, &he) {
				status = he.status
			}
			JSON(w, status, map[string]any{"error": err.Error()})
		}
	}
}

func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Server is the status API of one device.
type Server struct {
	listenAddr string
	source     StatusSource
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
	server     *http.Server
	listener   net.Listener
}

// NewServer creates a server for source. Metrics are read from gatherer,
// which may be nil to serve no /metrics endpoint.
func NewServer(listenAddr string, source StatusSource, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listenAddr: listenAddr,
		source:     source,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/api/health", makeHTTPHandlerFunc(s.handleHealth)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/match", makeHTTPHandlerFunc(s.handleMatch)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/ledger", makeHTTPHandlerFunc(s.handleLedger)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/ledger/{index:[0-9]+}", makeHTTPHandlerFunc(s.handleBlock)).Methods("GET", "OPTIONS")
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.listener = l
	s.server = &http.Server{Handler: s.Handler()}
	s.logger.Info("API server starting", "addr", l.Addr().String())
	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("API server stopped", "error", err)
		}
	}()
	return nil
}

// Addr is the address the server listens on once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthResponse struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

type LedgerResponse struct {
	MatchID string         `json:"match_id"`
	Valid   bool           `json:"valid"`
	Error   string         `json:"error,omitempty"`
	Blocks  []ledger.Block `json:"blocks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Device: s.source.Status().Device.String(),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, s.source.Status())
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) error {
	l := s.source.Ledger()
	if l == nil {
		return httpError{status: http.StatusNotFound, err: ErrNoMatch}
	}
	resp := LedgerResponse{
		MatchID: l.MatchID(),
		Valid:   true,
		Blocks:  l.Blocks(),
	}
	if err := l.Verify(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	return JSON(w, http.StatusOK, resp)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) error {
	l := s.source.Ledger()
	if l == nil {
		return httpError{status: http.StatusNotFound, err: ErrNoMatch}
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return fmt.Errorf("invalid block index: %w", err)
	}
	block, err := l.ByIndex(index)
	if err != nil {
		return httpError{status: http.StatusNotFound, err: err}
	}
	return JSON(w, http.StatusOK, block)
}
