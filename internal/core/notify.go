package core

import "time"

// Notification is ephemeral display state derived from the event stream.
// It is never persisted and never feeds back into the entity collections.
type Notification struct {
	ID         string    `json:"id"`
	Source     Kind      `json:"source"`
	Severity   Severity  `json:"severity"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	CampaignID int       `json:"campaign_id,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActionLogEntry is one line of the rolling activity log.
type ActionLogEntry struct {
	ID      string    `json:"id"`
	Source  Kind      `json:"source"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}
