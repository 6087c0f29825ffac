package store

import "prospect-sync/internal/core"

// transitions is the expected campaign lifecycle. The backend is
// authoritative, so an unexpected move is logged and applied anyway; the
// table exists to flag drift between client and server state early.
var transitions = map[core.CampaignState][]core.CampaignState{
	core.CampaignPending:   {core.CampaignRunning, core.CampaignCancelled, core.CampaignFailed},
	core.CampaignRunning:   {core.CampaignCompleted, core.CampaignFailed, core.CampaignCancelled},
	core.CampaignCompleted: {},
	core.CampaignFailed:    {core.CampaignPending, core.CampaignRunning},
	core.CampaignCancelled: {core.CampaignPending, core.CampaignRunning},
}

// ValidTransition reports whether moving from one campaign state to another
// follows the expected lifecycle. Re-asserting the current state is valid
// (the backend resends status on reconnect).
func ValidTransition(from, to core.CampaignState) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
