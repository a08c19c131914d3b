package ranking

import "github.com/okian/fairway/internal/domain/model"

// Winners ranks participants that completed totalHoles in the final view
// and keeps entries with rank <= limit. A tie straddling the limit is kept
// whole. limit <= 0 keeps every completed participant.
func Winners(snapshots []model.ScorecardSnapshot, criterion model.Criterion, limit, totalHoles int) []model.RankEntry {
	completed := make([]model.ScorecardSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.HolesCompleted >= totalHoles && s.Score(criterion) > 0 {
			completed = append(completed, s)
		}
	}

	ranked := Rank(completed, criterion, Final())
	if limit <= 0 {
		return ranked
	}
	for i, e := range ranked {
		if e.Rank > limit {
			return ranked[:i]
		}
	}
	return ranked
}
