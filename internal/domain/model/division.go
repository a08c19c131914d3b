package model

import "fmt"

// MaxHandicap is the upper end of the handicap domain.
const MaxHandicap = 54.0

// DivisionType is a classification hint attached to a division.
type DivisionType string

const (
	DivisionMen    DivisionType = "men"
	DivisionWomen  DivisionType = "women"
	DivisionSenior DivisionType = "senior"
	DivisionVIP    DivisionType = "vip"
	DivisionMixed  DivisionType = "mixed"
)

// DivisionDefinition describes a bracket participants are grouped into.
// Nil handicap bounds are unbounded; nil or zero MaxParticipants is unlimited.
type DivisionDefinition struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	HandicapMin     *float64     `json:"handicap_min,omitempty"`
	HandicapMax     *float64     `json:"handicap_max,omitempty"`
	MaxParticipants *int         `json:"max_participants,omitempty"`
	ParentID        *string      `json:"parent_id,omitempty"`
	Type            DivisionType `json:"division_type,omitempty"`
	// ParticipantCount is the backend-reported occupancy, when provided.
	ParticipantCount *int `json:"participant_count,omitempty"`
}

// Validate checks min <= max when both bounds are set.
func (d DivisionDefinition) Validate() error {
	if d.HandicapMin != nil && d.HandicapMax != nil && *d.HandicapMin > *d.HandicapMax {
		return fmt.Errorf("division %s: handicap_min %.1f > handicap_max %.1f", d.ID, *d.HandicapMin, *d.HandicapMax)
	}
	return nil
}

// Admits reports whether handicap lies within the division bounds.
func (d DivisionDefinition) Admits(handicap float64) bool {
	if d.HandicapMin != nil && handicap < *d.HandicapMin {
		return false
	}
	if d.HandicapMax != nil && handicap > *d.HandicapMax {
		return false
	}
	return true
}

// Width is (max ?? 54) - (min ?? 0).
func (d DivisionDefinition) Width() float64 {
	lo, hi := 0.0, MaxHandicap
	if d.HandicapMin != nil {
		lo = *d.HandicapMin
	}
	if d.HandicapMax != nil {
		hi = *d.HandicapMax
	}
	return hi - lo
}

// Limit returns the capacity and whether the division is capped.
func (d DivisionDefinition) Limit() (int, bool) {
	if d.MaxParticipants == nil || *d.MaxParticipants <= 0 {
		return 0, false
	}
	return *d.MaxParticipants, true
}

// IsChildOf reports whether the division is a sub-division of parentID.
func (d DivisionDefinition) IsChildOf(parentID string) bool {
	return d.ParentID != nil && *d.ParentID == parentID
}

// Reason codes attached to unmatched plan entries.
const (
	ReasonNoDivisions = "no divisions available"
	ReasonNoMatch     = "no matching division found"
)

// AssignmentPlanEntry is one advisory assignment produced by a classifier run.
type AssignmentPlanEntry struct {
	ParticipantID string  `json:"participant_id"`
	DivisionID    *string `json:"division_id"`
	Reason        string  `json:"reason,omitempty"`
	// Rule names the strategy that matched, empty when unmatched.
	Rule string `json:"rule,omitempty"`
}

// Matched reports whether a division was chosen.
func (e AssignmentPlanEntry) Matched() bool {
	return e.DivisionID != nil
}
