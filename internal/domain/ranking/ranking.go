// Package ranking orders scorecard snapshots into leaderboard entries.
//
// Rank is a pure function: the same set of snapshots yields the same output
// order and rank numbers regardless of input order.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/fairway/internal/domain/model"
)

// View selects the comparator chain.
type View string

const (
	// ViewLive compares holes completed (desc) before score.
	ViewLive View = "live"
	// ViewFinal compares by score only.
	ViewFinal View = "final"
)

// ParseView maps a query value to a View, defaulting to live.
func ParseView(s string) View {
	if strings.EqualFold(strings.TrimSpace(s), string(ViewFinal)) {
		return ViewFinal
	}
	return ViewLive
}

// ParseCriterion maps a string to a Criterion, defaulting to gross.
func ParseCriterion(s string) model.Criterion {
	if strings.EqualFold(strings.TrimSpace(s), string(model.CriterionNet)) {
		return model.CriterionNet
	}
	return model.CriterionGross
}

type options struct {
	view View
}

// Option configures a Rank call.
type Option func(*options)

// Final ranks purely by score.
func Final() Option {
	return func(o *options) { o.view = ViewFinal }
}

// WithView selects the view explicitly.
func WithView(v View) Option {
	return func(o *options) {
		if v == ViewFinal || v == ViewLive {
			o.view = v
		}
	}
}

// key is the comparable part of a snapshot.
type key struct {
	scored bool
	holes  int
	score  float64
}

type row struct {
	snap model.ScorecardSnapshot
	key  key
}

// Rank orders snapshots by criterion and assigns sparse ranks.
func Rank(snapshots []model.ScorecardSnapshot, criterion model.Criterion, opts ...Option) []model.RankEntry {
	o := options{view: ViewLive}
	for _, opt := range opts {
		opt(&o)
	}

	rows := make([]row, len(snapshots))
	for i, s := range snapshots {
		score := s.Score(criterion)
		k := key{scored: score > 0, score: score}
		if o.view == ViewLive {
			k.holes = s.HolesCompleted
		}
		rows[i] = row{snap: s, key: k}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := compare(rows[i].key, rows[j].key); c != 0 {
			return c < 0
		}
		return rows[i].snap.ParticipantID < rows[j].snap.ParticipantID
	})

	ranks := AssignRanks(len(rows), func(i, j int) bool {
		return rows[i].key == rows[j].key
	})

	out := make([]model.RankEntry, len(rows))
	for i, r := range rows {
		out[i] = model.RankEntry{
			ParticipantID:  r.snap.ParticipantID,
			Name:           r.snap.Name,
			Country:        r.snap.Country,
			Rank:           ranks[i],
			Score:          r.key.score,
			HolesCompleted: r.snap.HolesCompleted,
			Tied:           (i > 0 && ranks[i-1] == ranks[i]) || (i+1 < len(rows) && ranks[i+1] == ranks[i]),
		}
	}
	return out
}

// compare returns <0 when a ranks ahead of b, 0 on a tie.
// Unscored entries always trail scored ones.
func compare(a, b key) int {
	if a.scored != b.scored {
		if a.scored {
			return -1
		}
		return 1
	}
	if a.holes != b.holes {
		if a.holes > b.holes {
			return -1
		}
		return 1
	}
	switch {
	case a.score < b.score:
		return -1
	case a.score > b.score:
		return 1
	}
	return 0
}

// AssignRanks numbers a pre-sorted sequence of n items. same(i, i-1)
// reports whether neighbours share a key. Tied items share a rank and the
// next distinct item skips ahead by the tie size (1, 1, 3).
func AssignRanks(n int, same func(i, j int) bool) []int {
	ranks := make([]int, n)
	current, pending := 0, 0
	for i := 0; i < n; i++ {
		if i > 0 && same(i, i-1) {
			pending++
		} else {
			current += pending + 1
			pending = 0
		}
		ranks[i] = current
	}
	return ranks
}
