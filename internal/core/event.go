package core

import "time"

// Kind discriminates normalized event variants.
type Kind string

const (
	KindConnectionStatus Kind = "connection_status"
	KindAgentActivity    Kind = "agent_activity"
	KindProspectFound    Kind = "prospect_found"
	KindCampaignUpdate   Kind = "campaign_update"
	KindError            Kind = "error"
)

// Event is the normalized form of every inbound feed message.
// Campaign reports the campaign the event pertains to, when it has one,
// so subscriptions can be filtered per campaign.
type Event interface {
	EventKind() Kind
	OccurredAt() time.Time
	Campaign() (int, bool)
}

// ConnectionStatus reports transport connectivity changes. Attempt counts
// consecutive reconnect attempts while disconnected.
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Attempt   int       `json:"attempt"`
	At        time.Time `json:"timestamp"`
}

func (e ConnectionStatus) EventKind() Kind       { return KindConnectionStatus }
func (e ConnectionStatus) OccurredAt() time.Time { return e.At }
func (e ConnectionStatus) Campaign() (int, bool) { return 0, false }

// AgentActivity reports a state change of a prospecting agent. CampaignID is
// zero when the agent is not working a specific campaign.
type AgentActivity struct {
	AgentID     string     `json:"agent_id"`
	AgentName   string     `json:"agent_name,omitempty"`
	Status      AgentState `json:"status"`
	Progress    int        `json:"progress"`
	CurrentTask string     `json:"current_task,omitempty"`
	CampaignID  int        `json:"campaign_id,omitempty"`
	At          time.Time  `json:"timestamp"`
}

func (e AgentActivity) EventKind() Kind       { return KindAgentActivity }
func (e AgentActivity) OccurredAt() time.Time { return e.At }
func (e AgentActivity) Campaign() (int, bool) { return e.CampaignID, e.CampaignID != 0 }

// ProspectFound reports a newly discovered prospect for a campaign.
type ProspectFound struct {
	ProspectID   int       `json:"prospect_id"`
	CampaignID   int       `json:"campaign_id"`
	CompanyName  string    `json:"company_name"`
	ContactName  string    `json:"contact_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	QualityScore int       `json:"quality_score"`
	At           time.Time `json:"timestamp"`
}

func (e ProspectFound) EventKind() Kind       { return KindProspectFound }
func (e ProspectFound) OccurredAt() time.Time { return e.At }
func (e ProspectFound) Campaign() (int, bool) { return e.CampaignID, e.CampaignID != 0 }

// CampaignUpdate reports a campaign status change. ProspectsFound is nil when
// the update does not carry a count.
type CampaignUpdate struct {
	CampaignID     int           `json:"campaign_id"`
	Status         CampaignState `json:"status,omitempty"`
	ProspectsFound *int          `json:"prospects_found,omitempty"`
	At             time.Time     `json:"timestamp"`
}

func (e CampaignUpdate) EventKind() Kind       { return KindCampaignUpdate }
func (e CampaignUpdate) OccurredAt() time.Time { return e.At }
func (e CampaignUpdate) Campaign() (int, bool) { return e.CampaignID, e.CampaignID != 0 }

// ErrorEvent carries a backend-reported or locally raised error.
type ErrorEvent struct {
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
	At      time.Time `json:"timestamp"`
}

func (e ErrorEvent) EventKind() Kind       { return KindError }
func (e ErrorEvent) OccurredAt() time.Time { return e.At }
func (e ErrorEvent) Campaign() (int, bool) { return 0, false }
