package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/internal/domain/types"
)

// BoardReader exposes the published board.
type BoardReader interface {
	Current(ctx context.Context) *board.Snapshot
	Rank(ctx context.Context, view ranking.View, participantID string) (model.RankEntry, error)
	TopN(ctx context.Context, view ranking.View, n int) ([]model.RankEntry, error)
	Count(ctx context.Context, view ranking.View) int
}

// LeaderboardHandler serves the ranked lists.
type LeaderboardHandler struct {
	board        BoardReader
	maxLimit     int
	winnersLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler. winnersLimit is
// used when /winners is called without a limit.
func NewLeaderboardHandler(b BoardReader, maxLimit, winnersLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{board: b, maxLimit: maxLimit, winnersLimit: winnersLimit}
}

// HandleGetLeaderboard handles GET /leaderboard?view=live|final&limit=N.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	limit, err := h.limit(r, 0)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view := ranking.ParseView(r.URL.Query().Get("view"))

	ctx := r.Context()
	snap := h.board.Current(ctx)
	entries := snap.Entries(view)
	total := len(entries)
	if limit > 0 {
		top, err := h.board.TopN(ctx, view, limit)
		switch {
		case errors.Is(err, repository.ErrInvalidLimit):
			writeError(w, WrapKind(op, ErrBadRequest, err))
			return
		case err != nil:
			writeError(w, Wrap(op, err))
			return
		}
		entries, total = top, h.board.Count(ctx, view)
	}
	writeJSON(w, http.StatusOK, types.NewLeaderboard(snap, view, entries, total))
}

// HandleGetPage handles GET /leaderboard/page.
func (h *LeaderboardHandler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.NewPage(h.board.Current(r.Context())))
}

// HandleGetEntry handles GET /leaderboard/{participantID}?view=.
func (h *LeaderboardHandler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entry"
	id := chi.URLParam(r, "participantID")
	view := ranking.ParseView(r.URL.Query().Get("view"))
	entry, err := h.board.Rank(r.Context(), view, id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetWinners handles GET /winners?limit=N.
func (h *LeaderboardHandler) HandleGetWinners(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_winners"
	limit, err := h.limit(r, h.winnersLimit)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewWinners(h.board.Current(r.Context()), limit))
}

var errLimit = errors.New("invalid limit")

func (h *LeaderboardHandler) limit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errLimit
	}
	if h.maxLimit > 0 && n > h.maxLimit {
		return 0, fmt.Errorf("%w: max %d", errLimit, h.maxLimit)
	}
	return n, nil
}
