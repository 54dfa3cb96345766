package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gamepulse/internal/games"
	"gamepulse/internal/metrics"
	"gamepulse/internal/models"
	"gamepulse/internal/storage"
)

// StatusSource exposes the connectivity monitor to the API layer.
type StatusSource interface {
	State() models.ConnectivityState
	Subscribe() chan bool
	Unsubscribe(chan bool)
}

// Server wraps HTTP serving of the status and games API.
type Server struct {
	httpServer   *http.Server
	monitor      StatusSource
	pings        *storage.ConnectivityStorage
	games        *storage.GameStore
	syncer       *games.Syncer
	node         string
	historyLimit int
	logger       *zap.Logger
}

// New creates a configured HTTP server.
func New(addr, node string, monitor StatusSource, pings *storage.ConnectivityStorage, gameStore *storage.GameStore, syncer *games.Syncer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux},
		monitor:      monitor,
		pings:        pings,
		games:        gameStore,
		syncer:       syncer,
		node:         node,
		historyLimit: 200,
		logger:       logger,
	}
	s.registerRoutes(mux)
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/status/history", s.handleStatusHistory)
	mux.HandleFunc("/api/status/uptime", s.handleStatusUptime)
	mux.HandleFunc("/api/status/ws", s.handleStatusWS)
	mux.HandleFunc("/api/games", s.handleGames)
	mux.HandleFunc("/api/games/", s.handleGame)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "gamepulse",
		"node":    s.node,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type statusResponse struct {
	Node         string                   `json:"node"`
	Connectivity models.ConnectivityState `json:"connectivity"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

func (s *Server) statusPayload() statusResponse {
	return statusResponse{
		Node:         s.node,
		Connectivity: s.monitor.State(),
		GeneratedAt:  time.Now().UTC(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusPayload())
}

func (s *Server) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.pings.HistoryN(limit))
}

func (s *Server) handleStatusUptime(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	summary := metrics.ComputeAvailability(s.pings.HistoryN(limit))
	writeJSON(w, http.StatusOK, summary)
}

type gamesResponse struct {
	Games       []models.GameRecord `json:"games"`
	Sync        *games.SyncStatus   `json:"sync,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	records, err := s.games.List(limit)
	if err != nil {
		s.logger.Error("list games", zap.Error(err))
		http.Error(w, "game store unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.GameRecord{}
	}

	resp := gamesResponse{
		Games:       records,
		GeneratedAt: time.Now().UTC(),
	}
	if s.syncer != nil {
		status := s.syncer.Status()
		resp.Sync = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/games/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	game, found, err := s.games.Get(id)
	if err != nil {
		s.logger.Error("load game", zap.String("id", id), zap.Error(err))
		http.Error(w, "game store unavailable", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
