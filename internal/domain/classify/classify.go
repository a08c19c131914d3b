// Package classify builds advisory division assignment plans.
//
// A plan is computed from a roster snapshot and the division definitions
// as fetched. Participants that already hold a division are never part of
// a plan, so running Classify again after a submitted plan only touches
// participants that are still unassigned.
package classify

import (
	"github.com/okian/fairway/internal/domain/model"
)

// Rule names reported on plan entries and in summaries.
const (
	RuleSenior    = "senior"
	RuleLadies    = "ladies"
	RuleBestFit   = "best_fit"
	RuleUnmatched = "unmatched"
)

// Candidate is an available division together with its definition order.
type Candidate struct {
	Division model.DivisionDefinition
	Index    int
}

// Strategy selects a division for a participant or reports no match.
type Strategy interface {
	Name() string
	Select(p model.Participant, candidates []Candidate) (model.DivisionDefinition, bool)
}

type options struct {
	strategies []Strategy
}

// Option configures a classifier run.
type Option func(*options)

// WithStrategies replaces the default strategy chain.
func WithStrategies(s ...Strategy) Option {
	return func(o *options) {
		if len(s) > 0 {
			o.strategies = s
		}
	}
}

// DefaultStrategies is the senior -> ladies -> best fit chain.
func DefaultStrategies() []Strategy {
	return []Strategy{Senior{}, Ladies{}, BestFit{}}
}

// Classify assigns every participant without a division.
func Classify(participants []model.Participant, divisions []model.DivisionDefinition, opts ...Option) []model.AssignmentPlanEntry {
	pending := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		if !p.HasDivision() {
			pending = append(pending, p)
		}
	}
	occupancy := occupancyFromRoster(participants, func(p model.Participant) *string { return p.DivisionID })
	return run(pending, divisions, occupancy, opts)
}

// ClassifySubdivisions assigns participants of parentID that have no
// sub-division yet to one of the parent's child divisions.
func ClassifySubdivisions(participants []model.Participant, divisions []model.DivisionDefinition, parentID string, opts ...Option) []model.AssignmentPlanEntry {
	children := make([]model.DivisionDefinition, 0, len(divisions))
	for _, d := range divisions {
		if d.IsChildOf(parentID) {
			children = append(children, d)
		}
	}

	members := make([]model.Participant, 0, len(participants))
	pending := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		if p.DivisionID == nil || *p.DivisionID != parentID {
			continue
		}
		members = append(members, p)
		if !p.HasSubDivision() {
			pending = append(pending, p)
		}
	}
	occupancy := occupancyFromRoster(members, func(p model.Participant) *string { return p.SubDivisionID })
	return run(pending, children, occupancy, opts)
}

func run(pending []model.Participant, divisions []model.DivisionDefinition, occupancy map[string]int, opts []Option) []model.AssignmentPlanEntry {
	o := options{strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(&o)
	}

	plan := make([]model.AssignmentPlanEntry, 0, len(pending))
	if len(divisions) == 0 {
		for _, p := range pending {
			plan = append(plan, model.AssignmentPlanEntry{ParticipantID: p.ID, Reason: model.ReasonNoDivisions})
		}
		return plan
	}

	candidates := Available(divisions, occupancy)
	for _, p := range pending {
		plan = append(plan, assign(p, candidates, o.strategies))
	}
	return plan
}

func assign(p model.Participant, candidates []Candidate, strategies []Strategy) model.AssignmentPlanEntry {
	for _, s := range strategies {
		if d, ok := s.Select(p, candidates); ok {
			id := d.ID
			return model.AssignmentPlanEntry{ParticipantID: p.ID, DivisionID: &id, Rule: s.Name()}
		}
	}
	return model.AssignmentPlanEntry{ParticipantID: p.ID, Reason: model.ReasonNoMatch}
}

// Available keeps divisions with free capacity, evaluated once against the
// fetched state. Capacity is not decremented while a plan is built.
// Divisions with inverted bounds admit nobody and are dropped.
func Available(divisions []model.DivisionDefinition, occupancy map[string]int) []Candidate {
	out := make([]Candidate, 0, len(divisions))
	for i, d := range divisions {
		if d.Validate() != nil {
			continue
		}
		if limit, capped := d.Limit(); capped {
			used := occupancy[d.ID]
			if d.ParticipantCount != nil {
				used = *d.ParticipantCount
			}
			if used >= limit {
				continue
			}
		}
		out = append(out, Candidate{Division: d, Index: i})
	}
	return out
}

func occupancyFromRoster(participants []model.Participant, ref func(model.Participant) *string) map[string]int {
	counts := make(map[string]int)
	for _, p := range participants {
		if id := ref(p); id != nil && *id != "" {
			counts[*id]++
		}
	}
	return counts
}

// Summarize counts plan entries per matching rule; unmatched entries are
// counted under RuleUnmatched.
func Summarize(plan []model.AssignmentPlanEntry) map[string]int {
	out := make(map[string]int)
	for _, e := range plan {
		if e.Matched() {
			out[e.Rule]++
			continue
		}
		out[RuleUnmatched]++
	}
	return out
}
