// Package board holds the display state owned by the event loop: the last
// good ranked lists, the pager over the displayed list, and the staleness
// notice shown after a failed fetch.
package board

import (
	"time"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/pager"
	"github.com/okian/fairway/internal/domain/ranking"
)

// StaleNotice is shown while the board serves data from a previous fetch.
const StaleNotice = "Live scores are temporarily unavailable; showing the last known standings."

// Result is the outcome of one successful fetch and rank.
type Result struct {
	RunID     string
	Criterion model.Criterion
	Live      []model.RankEntry
	Final     []model.RankEntry
	Winners   []model.RankEntry
	FetchedAt time.Time
}

// Snapshot is an immutable copy of the board published to readers.
type Snapshot struct {
	Version   uint64
	RunID     string
	Criterion model.Criterion
	View      ranking.View
	Live      []model.RankEntry
	Final     []model.RankEntry
	Winners   []model.RankEntry
	Visible   []model.RankEntry
	Start     int
	Page      int
	Pages     int
	PageSize  int
	Stale     bool
	Notice    string
	LastError string
	UpdatedAt time.Time
	FailedAt  time.Time
}

// Entries returns the list for view.
func (s *Snapshot) Entries(v ranking.View) []model.RankEntry {
	if v == ranking.ViewFinal {
		return s.Final
	}
	return s.Live
}

// State is mutated by a single goroutine only. Readers get Snapshots.
type State struct {
	view    ranking.View
	pager   *pager.Pager
	version uint64

	runID     string
	criterion model.Criterion
	live      []model.RankEntry
	final     []model.RankEntry
	winners   []model.RankEntry
	stale     bool
	lastErr   string
	updatedAt time.Time
	failedAt  time.Time
}

// Option configures a State.
type Option func(*State)

// WithView selects the list the pager scrolls. Defaults to live.
func WithView(v ranking.View) Option {
	return func(s *State) { s.view = v }
}

// WithPageSize sets the pager page size.
func WithPageSize(n int) Option {
	return func(s *State) { s.pager = pager.New(n) }
}

// New returns an empty board.
func New(opts ...Option) *State {
	s := &State{view: ranking.ViewLive, pager: pager.New(pager.DefaultPageSize)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyResult replaces every list wholesale and clears the stale flag.
func (s *State) ApplyResult(r Result) {
	s.runID = r.RunID
	s.criterion = r.Criterion
	s.live = r.Live
	s.final = r.Final
	s.winners = r.Winners
	s.updatedAt = r.FetchedAt
	s.stale = false
	s.lastErr = ""
	s.pager.Resize(len(s.displayed()))
	s.version++
}

// ApplyFailure keeps the last good lists and marks the board stale. The
// pager keeps scrolling over the retained list.
func (s *State) ApplyFailure(err error, at time.Time) {
	s.stale = true
	if err != nil {
		s.lastErr = err.Error()
	}
	s.failedAt = at
	s.version++
}

// Tick advances the pager. It reports whether the visible window changed
// and whether it wrapped.
func (s *State) Tick() (advanced, wrapped bool) {
	advanced, wrapped = s.pager.Tick()
	if advanced {
		s.version++
	}
	return advanced, wrapped
}

// Stale reports whether the board is serving a previous fetch.
func (s *State) Stale() bool { return s.stale }

// Version increases on every change to the board.
func (s *State) Version() uint64 { return s.version }

func (s *State) displayed() []model.RankEntry {
	if s.view == ranking.ViewFinal {
		return s.final
	}
	return s.live
}

// Snapshot copies the current board. Entry slices are shared because
// ApplyResult never mutates them in place.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:   s.version,
		RunID:     s.runID,
		Criterion: s.criterion,
		View:      s.view,
		Live:      s.live,
		Final:     s.final,
		Winners:   s.winners,
		Visible:   pager.Window(s.pager, s.displayed()),
		Start:     s.pager.Start(),
		Page:      s.pager.Page(),
		Pages:     s.pager.Pages(),
		PageSize:  s.pager.Size(),
		Stale:     s.stale,
		LastError: s.lastErr,
		UpdatedAt: s.updatedAt,
		FailedAt:  s.failedAt,
	}
	if s.stale {
		snap.Notice = StaleNotice
	}
	return snap
}
