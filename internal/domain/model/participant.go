// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
)

// Sex is the optional declared sex of a participant.
type Sex string

const (
	SexUnset  Sex = ""
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex folds case and surrounding space, so "Female" and " female "
// are both SexFemale.
func ParseSex(raw string) Sex {
	return Sex(strings.ToLower(strings.TrimSpace(raw)))
}

// IsFemale reports whether s declares female, in any letter case.
func (s Sex) IsFemale() bool {
	return ParseSex(string(s)) == SexFemale
}

// UnmarshalJSON normalises the roster service's spelling.
func (s *Sex) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSex(raw)
	return nil
}

// Participant is a roster entry owned by the external roster service.
// The engine only reads it.
type Participant struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Handicap      *float64 `json:"handicap,omitempty"`
	Sex           Sex      `json:"sex,omitempty"`
	DivisionID    *string  `json:"division_id,omitempty"`
	SubDivisionID *string  `json:"sub_division_id,omitempty"`
	Country       string   `json:"country,omitempty"`
}

// HandicapOrZero returns the declared handicap, or 0 when none is declared.
func (p Participant) HandicapOrZero() float64 {
	if p.Handicap == nil {
		return 0
	}
	return *p.Handicap
}

// HasDivision reports whether a division is already assigned.
func (p Participant) HasDivision() bool {
	return p.DivisionID != nil && *p.DivisionID != ""
}

// HasSubDivision reports whether a sub-division is already assigned.
func (p Participant) HasSubDivision() bool {
	return p.SubDivisionID != nil && *p.SubDivisionID != ""
}
