package model

import "time"

// NotificationKind is a change event name emitted by the scoring service.
type NotificationKind string

const (
	KindScoreUpdated      NotificationKind = "score_updated"
	KindLiveScoreUpdate   NotificationKind = "live_score_update"
	KindLeaderboardUpdate NotificationKind = "leaderboard_update"
)

// Recognized reports whether the kind signals that board data may be stale.
func (k NotificationKind) Recognized() bool {
	switch k {
	case KindScoreUpdated, KindLiveScoreUpdate, KindLeaderboardUpdate:
		return true
	default:
		return false
	}
}

// Notification is a "data may be stale" signal. The payload is ignored.
type Notification struct {
	ID         string           `json:"id,omitempty"`
	Kind       NotificationKind `json:"event"`
	ReceivedAt time.Time        `json:"-"`
}
