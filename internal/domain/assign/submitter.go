// Package assign classifies unassigned participants and submits the plan
// to the backend's bulk endpoint.
package assign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/fairway/internal/domain/classify"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Roster loads the classifier inputs.
type Roster interface {
	FetchParticipants(ctx context.Context) ([]model.Participant, error)
	FetchDivisions(ctx context.Context) ([]model.DivisionDefinition, error)
}

// Backend accepts bulk assignments.
type Backend interface {
	SubmitAssignments(ctx context.Context, items []model.BulkAssignment) (model.BulkResult, error)
}

// Submitter runs classification against fresh inputs.
type Submitter struct {
	roster  Roster
	backend Backend
	opts    []classify.Option
	logger  logger.Logger
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithClassifyOptions forwards options to the classifier.
func WithClassifyOptions(opts ...classify.Option) Option {
	return func(s *Submitter) { s.opts = append(s.opts, opts...) }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSubmitter creates a Submitter.
func NewSubmitter(roster Roster, backend Backend, opts ...Option) *Submitter {
	s := &Submitter{roster: roster, backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("assign")
	}
	return s
}

// Plan fetches the roster and divisions and classifies without
// submitting. An empty parentID classifies top-level divisions; otherwise
// members of parentID are placed among its sub-divisions.
func (s *Submitter) Plan(ctx context.Context, parentID string) (Report, error) {
	plan, err := s.plan(ctx, parentID)
	if err != nil {
		return Report{}, err
	}
	r := Reconcile(plan, model.BulkResult{})
	r.RunID, r.ParentID, r.Outcome = uuid.NewString(), parentID, OutcomePlanned
	return r, nil
}

// Apply classifies and submits the matched entries. A transport failure
// is returned as ErrSubmit together with a failed Report.
func (s *Submitter) Apply(ctx context.Context, parentID string) (Report, error) {
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	plan, err := s.plan(ctx, parentID)
	if err != nil {
		metrics.RecordBulkSubmit(OutcomeFailed, 0, 0)
		return Report{RunID: runID, ParentID: parentID, Outcome: OutcomeFailed}, err
	}
	metrics.RecordClassification(classify.Summarize(plan))

	var result model.BulkResult
	if items := Requests(plan); len(items) > 0 {
		result, err = s.backend.SubmitAssignments(ctx, items)
		if err != nil {
			r := Reconcile(plan, model.BulkResult{})
			r.RunID, r.ParentID, r.Outcome = runID, parentID, OutcomeFailed
			metrics.RecordBulkSubmit(OutcomeFailed, 0, 0)
			log.Error(ctx, "bulk assignment failed", logger.Int("items", len(items)), logger.Error(err))
			return r, fmt.Errorf("%w: %v", ErrSubmit, err)
		}
	}

	r := Reconcile(plan, result)
	r.RunID, r.ParentID = runID, parentID
	metrics.RecordBulkSubmit(r.Outcome, r.Assigned, len(r.Errors))
	if r.Success() && len(r.Errors) > 0 {
		log.Warn(ctx, "bulk assignment finished with item errors", logger.Int("errors", len(r.Errors)))
	}
	log.Info(ctx, "bulk assignment finished",
		logger.String("outcome", r.Outcome),
		logger.Int("planned", r.Planned),
		logger.Int("assigned", r.Assigned),
		logger.Int("errors", len(r.Errors)),
	)
	return r, nil
}

func (s *Submitter) plan(ctx context.Context, parentID string) ([]model.AssignmentPlanEntry, error) {
	var (
		people    []model.Participant
		divisions []model.DivisionDefinition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		people, err = s.roster.FetchParticipants(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		divisions, err = s.roster.FetchDivisions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if parentID == "" {
		return classify.Classify(people, topLevel(divisions), s.opts...), nil
	}
	return classify.ClassifySubdivisions(people, divisions, parentID, s.opts...), nil
}

// topLevel drops sub-divisions so participants are only placed in
// divisions without a parent.
func topLevel(divisions []model.DivisionDefinition) []model.DivisionDefinition {
	out := make([]model.DivisionDefinition, 0, len(divisions))
	for _, d := range divisions {
		if d.ParentID == nil || *d.ParentID == "" {
			out = append(out, d)
		}
	}
	return out
}
