package model

// BulkAssignment is one item of a bulk division assignment request. A nil
// DivisionID clears the participant's division.
type BulkAssignment struct {
	ParticipantID string  `json:"participant_id"`
	DivisionID    *string `json:"division_id"`
}

// BulkItemError is a per-participant failure reported by the backend.
type BulkItemError struct {
	ParticipantID string `json:"participant_id"`
	Error         string `json:"error"`
}

// BulkResult is the backend's answer to a bulk assignment request.
type BulkResult struct {
	Assigned int             `json:"assigned"`
	Skipped  int             `json:"skipped"`
	Errors   []BulkItemError `json:"errors"`
}
