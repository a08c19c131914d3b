package api

import (
	"context"
	"net/http"
)

// Refresher requests an out-of-band recompute.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	refresher Refresher
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(r Refresher) *RefreshHandler {
	return &RefreshHandler{refresher: r}
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandleRefresh handles POST /refresh. The response reports whether a new
// run was queued or folded into a pending one.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	status, err := h.refresher.Refresh(r.Context())
	if err != nil {
		writeError(w, WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: status})
}
