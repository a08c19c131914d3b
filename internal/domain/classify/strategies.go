package classify

import (
	"strings"
	"unicode"

	"github.com/okian/fairway/internal/domain/model"
)

// Senior matches participants whose name marks them as seniors to the
// first senior division admitting their handicap.
type Senior struct{}

func (Senior) Name() string { return RuleSenior }

func (Senior) Select(p model.Participant, candidates []Candidate) (model.DivisionDefinition, bool) {
	if !IsSeniorName(p.Name) {
		return model.DivisionDefinition{}, false
	}
	return firstAdmitting(p.HandicapOrZero(), candidates, isSeniorDivision)
}

// Ladies matches female participants to the first ladies division
// admitting their handicap.
type Ladies struct{}

func (Ladies) Name() string { return RuleLadies }

func (Ladies) Select(p model.Participant, candidates []Candidate) (model.DivisionDefinition, bool) {
	if !p.Sex.IsFemale() {
		return model.DivisionDefinition{}, false
	}
	return firstAdmitting(p.HandicapOrZero(), candidates, isLadiesDivision)
}

// BestFit picks the admitting division with the narrowest handicap range.
// Equal widths go to the division defined first.
type BestFit struct{}

func (BestFit) Name() string { return RuleBestFit }

func (BestFit) Select(p model.Participant, candidates []Candidate) (model.DivisionDefinition, bool) {
	h := p.HandicapOrZero()
	var (
		best  Candidate
		found bool
	)
	for _, c := range candidates {
		if !c.Division.Admits(h) {
			continue
		}
		if !found || c.Division.Width() < best.Division.Width() ||
			(c.Division.Width() == best.Division.Width() && c.Index < best.Index) {
			best, found = c, true
		}
	}
	return best.Division, found
}

func firstAdmitting(h float64, candidates []Candidate, match func(model.DivisionDefinition) bool) (model.DivisionDefinition, bool) {
	for _, c := range candidates {
		if match(c.Division) && c.Division.Admits(h) {
			return c.Division, true
		}
	}
	return model.DivisionDefinition{}, false
}

// IsSeniorName reports whether name contains "senior" or the token "sr"/"sr.".
func IsSeniorName(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "senior") {
		return true
	}
	for _, tok := range tokens(lower) {
		if tok == "sr" {
			return true
		}
	}
	return false
}

func isSeniorDivision(d model.DivisionDefinition) bool {
	return d.Type == model.DivisionSenior || IsSeniorName(d.Name)
}

func isLadiesDivision(d model.DivisionDefinition) bool {
	if d.Type == model.DivisionWomen {
		return true
	}
	lower := strings.ToLower(d.Name)
	return strings.Contains(lower, "ladies") || strings.Contains(lower, "women") || strings.Contains(lower, "female")
}

// tokens splits on anything that is not a letter or digit, so "Sr." and
// "(sr)" both yield "sr".
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
