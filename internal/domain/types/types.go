// Package types contains the read shapes served by the HTTP API.
package types

import (
	"time"

	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
)

// Entry is one leaderboard row.
type Entry = model.RankEntry

// Freshness tells a viewer how current the board is.
type Freshness struct {
	Version   uint64     `json:"version"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Stale     bool       `json:"stale"`
	Notice    string     `json:"notice,omitempty"`
}

// Leaderboard is the full ranked list for one view.
type Leaderboard struct {
	Freshness
	View      ranking.View    `json:"view"`
	Criterion model.Criterion `json:"criterion"`
	Total     int             `json:"total"`
	Entries   []Entry         `json:"entries"`
}

// Page is the window currently shown by the display pager.
type Page struct {
	Freshness
	View     ranking.View `json:"view"`
	Page     int          `json:"page"`
	Pages    int          `json:"pages"`
	PageSize int          `json:"page_size"`
	Start    int          `json:"start"`
	Total    int          `json:"total"`
	Entries  []Entry      `json:"entries"`
}

// Winners lists the leading finishers.
type Winners struct {
	Freshness
	Limit   int     `json:"limit"`
	Entries []Entry `json:"entries"`
}

func freshness(s *board.Snapshot) Freshness {
	f := Freshness{Version: s.Version, Stale: s.Stale, Notice: s.Notice}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		f.UpdatedAt = &at
	}
	return f
}

func nonNil(e []Entry) []Entry {
	if e == nil {
		return []Entry{}
	}
	return e
}

// NewLeaderboard builds the leaderboard response for view. entries is the
// slice served, total the length of the whole view.
func NewLeaderboard(s *board.Snapshot, view ranking.View, entries []Entry, total int) Leaderboard {
	return Leaderboard{
		Freshness: freshness(s),
		View:      view,
		Criterion: s.Criterion,
		Total:     total,
		Entries:   nonNil(entries),
	}
}

// NewPage builds the pager window response.
func NewPage(s *board.Snapshot) Page {
	return Page{
		Freshness: freshness(s),
		View:      s.View,
		Page:      s.Page,
		Pages:     s.Pages,
		PageSize:  s.PageSize,
		Start:     s.Start,
		Total:     len(s.Entries(s.View)),
		Entries:   nonNil(s.Visible),
	}
}

// NewWinners keeps winners ranked within limit. Ties straddling the limit
// are kept whole. A non-positive limit keeps every winner.
func NewWinners(s *board.Snapshot, limit int) Winners {
	out := make([]Entry, 0, len(s.Winners))
	for _, e := range s.Winners {
		if limit > 0 && e.Rank > limit {
			break
		}
		out = append(out, e)
	}
	return Winners{Freshness: freshness(s), Limit: limit, Entries: out}
}
