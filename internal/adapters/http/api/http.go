// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const defaultMaxLimit = 1000

// Dependencies bundles what the handlers read and drive.
type Dependencies struct {
	Board     BoardReader
	Assigner  Assigner
	Refresher Refresher
	Stats     StatsProvider

	// WinnersLimit is the default /winners limit. Zero lists every winner.
	WinnersLimit int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	divisionsHandler   *DivisionsHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers. A non-positive
// maxLimit falls back to the default.
func NewServer(deps Dependencies, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps.Stats),
		leaderboardHandler: NewLeaderboardHandler(deps.Board, maxLimit, deps.WinnersLimit),
		divisionsHandler:   NewDivisionsHandler(deps.Assigner),
		refreshHandler:     NewRefreshHandler(deps.Refresher),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
		r.Get("/page", MetricsMiddleware(s.leaderboardHandler.HandleGetPage, "leaderboard_page"))
		r.Get("/{participantID}", MetricsMiddleware(s.leaderboardHandler.HandleGetEntry, "leaderboard_entry"))
	})
	r.Get("/winners", MetricsMiddleware(s.leaderboardHandler.HandleGetWinners, "winners"))

	r.Route("/divisions", func(r chi.Router) {
		r.Post("/classify", MetricsMiddleware(s.divisionsHandler.HandleClassify, "divisions_classify"))
		r.Post("/assign", MetricsMiddleware(s.divisionsHandler.HandleAssign, "divisions_assign"))
	})
	r.Post("/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}
