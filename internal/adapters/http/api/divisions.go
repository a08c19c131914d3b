package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/fairway/internal/domain/assign"
)

// Assigner classifies participants and submits plans.
type Assigner interface {
	Plan(ctx context.Context, parentID string) (assign.Report, error)
	Apply(ctx context.Context, parentID string) (assign.Report, error)
}

// DivisionsHandler serves the operator classification endpoints.
type DivisionsHandler struct {
	assigner Assigner
}

// NewDivisionsHandler creates a new divisions handler.
func NewDivisionsHandler(a Assigner) *DivisionsHandler {
	return &DivisionsHandler{assigner: a}
}

// HandleClassify handles POST /divisions/classify?parent_id=. Nothing is
// submitted.
func (h *DivisionsHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	report, err := h.assigner.Plan(r.Context(), r.URL.Query().Get("parent_id"))
	if err != nil {
		writeError(w, upstreamKind(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleAssign handles POST /divisions/assign?parent_id=. A partial
// assignment is a 200 with the error list in the body.
func (h *DivisionsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign"
	report, err := h.assigner.Apply(r.Context(), r.URL.Query().Get("parent_id"))
	if err != nil {
		writeError(w, upstreamKind(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func upstreamKind(op string, err error) error {
	if errors.Is(err, assign.ErrFetch) || errors.Is(err, assign.ErrSubmit) {
		return WrapKind(op, ErrUnavailable, err)
	}
	return Wrap(op, err)
}
