// Package repository publishes board snapshots from the event loop to
// concurrent readers.
//
// The event loop is the only writer. Each Publish swaps in a complete,
// immutable snapshot, so readers never observe a half-applied recompute
// and never take a lock.
package repository

import (
	"context"
	"sync/atomic"

	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/metrics"
)

// Store provides read access to the published board.
type Store interface {
	// Publish replaces the current snapshot.
	Publish(ctx context.Context, snap *board.Snapshot)

	// Current returns the latest snapshot, never nil.
	Current(ctx context.Context) *board.Snapshot

	// Rank returns a participant's entry in view.
	// Returns ErrNotFound if the participant is not on the board.
	Rank(ctx context.Context, view ranking.View, participantID string) (model.RankEntry, error)

	// TopN returns the first n entries of view in board order.
	TopN(ctx context.Context, view ranking.View, n int) ([]model.RankEntry, error)

	// Count returns the number of entries in view.
	Count(ctx context.Context, view ranking.View) int
}

type published struct {
	snap *board.Snapshot
	live map[string]int
	fin  map[string]int
}

func (p *published) index(v ranking.View) map[string]int {
	if v == ranking.ViewFinal {
		return p.fin
	}
	return p.live
}

// SnapshotStore implements Store with an atomic pointer.
type SnapshotStore struct {
	current atomic.Pointer[published]
}

// NewSnapshotStore returns a store holding an empty board.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(build(&board.Snapshot{Pages: 1, Page: 1}))
	return s
}

func build(snap *board.Snapshot) *published {
	return &published{snap: snap, live: positions(snap.Live), fin: positions(snap.Final)}
}

func positions(entries []model.RankEntry) map[string]int {
	out := make(map[string]int, len(entries))
	for i, e := range entries {
		out[e.ParticipantID] = i
	}
	return out
}

// Publish swaps in snap. A nil snapshot is ignored.
func (s *SnapshotStore) Publish(_ context.Context, snap *board.Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(build(snap))
	metrics.UpdateRankedEntries(string(ranking.ViewLive), len(snap.Live))
	metrics.UpdateRankedEntries(string(ranking.ViewFinal), len(snap.Final))
	metrics.UpdateBoardStale(snap.Stale)
}

// Current returns the latest snapshot.
func (s *SnapshotStore) Current(_ context.Context) *board.Snapshot {
	return s.current.Load().snap
}

// Rank looks a participant up in view.
func (s *SnapshotStore) Rank(_ context.Context, view ranking.View, participantID string) (model.RankEntry, error) {
	p := s.current.Load()
	i, ok := p.index(view)[participantID]
	if !ok {
		return model.RankEntry{}, ErrNotFound
	}
	return p.snap.Entries(view)[i], nil
}

// TopN returns up to n entries of view. The returned slice is a copy.
func (s *SnapshotStore) TopN(_ context.Context, view ranking.View, n int) ([]model.RankEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	entries := s.current.Load().snap.Entries(view)
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.RankEntry, n)
	copy(out, entries[:n])
	return out, nil
}

// Count returns the number of entries in view.
func (s *SnapshotStore) Count(_ context.Context, view ranking.View) int {
	return len(s.current.Load().snap.Entries(view))
}
