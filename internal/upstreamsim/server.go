package upstreamsim

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/okian/fairway/internal/domain/model"
)

// NewRouter exposes t over the REST endpoints the engine consumes and hub
// at /tournaments/{id}/ws. A non-empty token is required as a bearer
// token. failRate is the share of read requests answered with 503.
func NewRouter(t *Tournament, hub *Hub, token string, failRate float64) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	if token != "" {
		r.Use(requireToken(token))
	}

	r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Use(knownTournament(t.ID()))
		r.Get("/ws", hub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(flaky(t, failRate))
			r.Get("/scorecards", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, t.Scorecards())
			})
			r.Get("/participants", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, t.Participants())
			})
			r.Get("/divisions", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, t.Divisions())
			})
		})

		r.Post("/divisions/bulk-assign", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Assignments []model.BulkAssignment `json:"assignments"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
				return
			}
			writeJSON(w, http.StatusOK, t.Assign(req.Assignments))
		})
	})
	return r
}

func requireToken(token string) func(http.Handler) http.Handler {
	want := "Bearer " + token
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != want {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func knownTournament(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "tournamentID") != id {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "tournament not found"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func flaky(t *Tournament, failRate float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if failRate > 0 && t.Roll() < failRate {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "simulated outage"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
