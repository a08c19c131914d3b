package assign

import (
	"sort"

	"github.com/okian/fairway/internal/domain/classify"
	"github.com/okian/fairway/internal/domain/model"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeNoop    = "noop"
	OutcomeFailed  = "failed"
	// OutcomePlanned marks a dry run that submitted nothing.
	OutcomePlanned = "planned"
)

// Error sources in the combined list.
const (
	SourceClassifier = "classifier"
	SourceBackend    = "backend"
)

// ItemError is one entry of the operator-facing error list.
type ItemError struct {
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason"`
	Source        string `json:"source"`
}

// Report is the reconciled outcome of one classify-and-submit run.
type Report struct {
	RunID     string                      `json:"run_id"`
	ParentID  string                      `json:"parent_id,omitempty"`
	Outcome   string                      `json:"outcome"`
	Planned   int                         `json:"planned"`
	Submitted int                         `json:"submitted"`
	Assigned  int                         `json:"assigned"`
	Skipped   int                         `json:"skipped"`
	ByRule    map[string]int              `json:"by_rule"`
	Errors    []ItemError                 `json:"errors"`
	Plan      []model.AssignmentPlanEntry `json:"plan"`
}

// Success reports whether the run counts as successful. A partial run is
// a success with errors attached.
func (r Report) Success() bool {
	return r.Outcome != OutcomeFailed
}

// Requests turns the matched entries of a plan into bulk request items.
// Unmatched entries never reach the backend.
func Requests(plan []model.AssignmentPlanEntry) []model.BulkAssignment {
	out := make([]model.BulkAssignment, 0, len(plan))
	for _, e := range plan {
		if e.Matched() {
			out = append(out, model.BulkAssignment{ParticipantID: e.ParticipantID, DivisionID: e.DivisionID})
		}
	}
	return out
}

// Reconcile merges client-side non-matches with the backend's per-item
// errors into one list ordered by participant ID.
func Reconcile(plan []model.AssignmentPlanEntry, result model.BulkResult) Report {
	r := Report{
		Planned:   len(plan),
		Submitted: len(Requests(plan)),
		Assigned:  result.Assigned,
		Skipped:   result.Skipped,
		ByRule:    classify.Summarize(plan),
		Errors:    make([]ItemError, 0, len(result.Errors)),
		Plan:      plan,
	}

	for _, e := range plan {
		if !e.Matched() {
			r.Errors = append(r.Errors, ItemError{ParticipantID: e.ParticipantID, Reason: e.Reason, Source: SourceClassifier})
		}
	}
	for _, e := range result.Errors {
		r.Errors = append(r.Errors, ItemError{ParticipantID: e.ParticipantID, Reason: e.Error, Source: SourceBackend})
	}
	sort.SliceStable(r.Errors, func(i, j int) bool {
		return r.Errors[i].ParticipantID < r.Errors[j].ParticipantID
	})

	switch {
	case r.Submitted == 0 && len(r.Errors) == 0:
		r.Outcome = OutcomeNoop
	case len(r.Errors) == 0:
		r.Outcome = OutcomeSuccess
	default:
		r.Outcome = OutcomePartial
	}
	return r
}
