package model

// Criterion selects the score field used for ranking.
type Criterion string

const (
	CriterionGross Criterion = "gross"
	CriterionNet   Criterion = "net"
)

// ScorecardSnapshot is a per-participant record taken at fetch time. It is
// superseded wholesale by the next fetch and never patched in place.
type ScorecardSnapshot struct {
	ParticipantID  string   `json:"participant_id"`
	Name           string   `json:"name,omitempty"`
	Country        string   `json:"country,omitempty"`
	HolesCompleted int      `json:"holes_completed"`
	Gross          int      `json:"gross"`
	Net            *float64 `json:"net,omitempty"`
	Holes          []int    `json:"holes,omitempty"`
}

// Score returns the value compared for criterion. Zero means no score yet.
func (s ScorecardSnapshot) Score(c Criterion) float64 {
	var v float64
	switch c {
	case CriterionNet:
		if s.Net == nil {
			return 0
		}
		v = *s.Net
	default:
		v = float64(s.Gross)
	}
	if v < 0 {
		return 0
	}
	return v
}

// RankEntry is one row of a ranked board.
type RankEntry struct {
	ParticipantID  string  `json:"participant_id"`
	Name           string  `json:"name,omitempty"`
	Country        string  `json:"country,omitempty"`
	Rank           int     `json:"rank"`
	Score          float64 `json:"score"`
	HolesCompleted int     `json:"holes_completed"`
	Tied           bool    `json:"tied"`
}
