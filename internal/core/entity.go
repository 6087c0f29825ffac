package core

import "time"

// CampaignMetrics holds denormalized counters derived from the event stream.
type CampaignMetrics struct {
	TotalProspects int `json:"total_prospects"`
	Contacted      int `json:"contacted"`
	Qualified      int `json:"qualified"`
	Converted      int `json:"converted"`
}

// Campaign is a prospecting campaign row. Campaigns are backend-authoritative:
// they enter the store via bulk load, never from a partial live update.
type Campaign struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Status         CampaignState   `json:"status"`
	TargetLocation string          `json:"target_location,omitempty"`
	TargetSectors  []string        `json:"target_sectors,omitempty"`
	ProspectGoal   int             `json:"prospect_goal,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Metrics        CampaignMetrics `json:"metrics"`
}

// Prospect is a discovered company/contact belonging to a campaign.
type Prospect struct {
	ID           int           `json:"id"`
	CampaignID   int           `json:"campaign_id"`
	CompanyName  string        `json:"company_name"`
	ContactName  string        `json:"contact_name,omitempty"`
	Email        string        `json:"email,omitempty"`
	QualityScore int           `json:"quality_score"`
	Status       ProspectState `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// AgentStatus is the last known state of a prospecting agent. Agents are
// self-announcing: the first activity event for an unknown id creates the row.
type AgentStatus struct {
	AgentID      string     `json:"agent_id"`
	Name         string     `json:"name,omitempty"`
	Status       AgentState `json:"status"`
	Progress     int        `json:"progress"`
	CurrentTask  string     `json:"current_task,omitempty"`
	CampaignID   int        `json:"campaign_id,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}
