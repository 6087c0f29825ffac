package core

// CampaignState is the lifecycle status of a campaign.
type CampaignState string

const (
	CampaignPending   CampaignState = "pending"
	CampaignRunning   CampaignState = "running"
	CampaignCompleted CampaignState = "completed"
	CampaignFailed    CampaignState = "failed"
	CampaignCancelled CampaignState = "cancelled"
)

// AgentState is the reported status of a prospecting agent.
type AgentState string

const (
	AgentIdle      AgentState = "idle"
	AgentWorking   AgentState = "working"
	AgentCompleted AgentState = "completed"
	AgentFailed    AgentState = "failed"
)

// ProspectState tracks how far a prospect has moved through the funnel.
type ProspectState string

const (
	ProspectIdentified ProspectState = "identified"
	ProspectContacted  ProspectState = "contacted"
	ProspectQualified  ProspectState = "qualified"
	ProspectConverted  ProspectState = "converted"
	ProspectRejected   ProspectState = "rejected"
)

// Severity grades a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)
