package project

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-sync/internal/core"
)

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func intp(v int) *int { return &v }

func TestHighQualityThresholdIsExclusive(t *testing.T) {
	p := New(nil)

	atThreshold := p.Project(core.ProspectFound{ProspectID: 1, CampaignID: 7, CompanyName: "Acme", QualityScore: 80, At: base})
	assert.Empty(t, atThreshold, "score 80 must not notify")

	above := p.Project(core.ProspectFound{ProspectID: 2, CampaignID: 7, CompanyName: "Borealis", QualityScore: 81, At: base})
	require.Len(t, above, 1, "score 81 must notify")
	assert.Equal(t, core.SeveritySuccess, above[0].Severity)
	assert.Equal(t, 7, above[0].CampaignID)

	assert.Equal(t, 2, p.TotalProspects(), "counter runs regardless of score")
}

func TestAgentCompletionNotifications(t *testing.T) {
	p := New(nil)

	working := p.Project(core.AgentActivity{AgentID: "a1", Status: core.AgentWorking, At: base})
	assert.Empty(t, working)

	idle := p.Project(core.AgentActivity{AgentID: "a1", Status: core.AgentIdle, At: base})
	assert.Empty(t, idle)

	completed := p.Project(core.AgentActivity{AgentID: "a1", Status: core.AgentCompleted, At: base})
	require.Len(t, completed, 1)

	// Keyword match even when the status field lags.
	keyword := p.Project(core.AgentActivity{AgentID: "a1", Status: core.AgentWorking, CurrentTask: "Finished scanning region", At: base})
	require.Len(t, keyword, 1)
}

func TestCampaignCompletionIncludesCount(t *testing.T) {
	p := New(nil)

	running := p.Project(core.CampaignUpdate{CampaignID: 7, Status: core.CampaignRunning, At: base})
	assert.Empty(t, running)

	done := p.Project(core.CampaignUpdate{CampaignID: 7, Status: core.CampaignCompleted, ProspectsFound: intp(42), At: base})
	require.Len(t, done, 1)
	assert.Contains(t, done[0].Message, "42")
}

func TestErrorAlwaysNotifies(t *testing.T) {
	p := New(nil)
	out := p.Project(core.ErrorEvent{Message: "backend unavailable", At: base})
	require.Len(t, out, 1)
	assert.Equal(t, core.SeverityWarning, out[0].Severity)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	p := New(nil)
	p.Project(core.ErrorEvent{Message: "one", At: base})
	p.Project(core.ErrorEvent{Message: "two", At: base})
	assert.Equal(t, 2, p.UnreadCount())

	p.MarkRead()
	assert.Equal(t, 0, p.UnreadCount())
	p.MarkRead() // idempotent
	assert.Equal(t, 0, p.UnreadCount())

	history := p.Notifications()
	require.Len(t, history, 2, "MarkRead keeps history")
	for _, n := range history {
		assert.True(t, n.Read)
	}

	p.Project(core.ErrorEvent{Message: "three", At: base})
	assert.Equal(t, 1, p.UnreadCount(), "new notifications count from zero")
}

func TestRollingLogCap(t *testing.T) {
	p := New(nil)
	for i := 0; i < 60; i++ {
		p.Project(core.AgentActivity{
			AgentID:     "a1",
			Status:      core.AgentWorking,
			CurrentTask: fmt.Sprintf("step %d", i),
			At:          base.Add(time.Duration(i) * time.Second),
		})
	}

	recent := p.RecentActions()
	require.Len(t, recent, RetentionCap)
	// Oldest entries evicted first: the log starts at step 10.
	assert.Contains(t, recent[0].Summary, "step 10")
	assert.Contains(t, recent[len(recent)-1].Summary, "step 59")
}

func TestNotificationHistoryCap(t *testing.T) {
	p := New(nil)
	for i := 0; i < 60; i++ {
		p.Project(core.ErrorEvent{
			Message: fmt.Sprintf("failure %d", i),
			At:      base.Add(time.Duration(i) * time.Second),
		})
	}

	history := p.Notifications()
	require.Len(t, history, RetentionCap)
	// Oldest pruned first: retained history starts at failure 10.
	assert.Contains(t, history[0].Message, "failure 10")
	assert.Contains(t, history[len(history)-1].Message, "failure 59")
	// Pruning history never lowers the unread counter.
	assert.Equal(t, 60, p.UnreadCount())
}

func TestClearDropsHistoryKeepsCounters(t *testing.T) {
	p := New(nil)
	p.Project(core.ProspectFound{ProspectID: 1, CampaignID: 7, CompanyName: "Acme", QualityScore: 95, At: base})
	require.NotEmpty(t, p.Notifications())

	p.Clear()
	assert.Empty(t, p.Notifications())
	assert.Equal(t, 0, p.UnreadCount())
	assert.Equal(t, 1, p.TotalProspects())
	assert.NotEmpty(t, p.RecentActions())
}
