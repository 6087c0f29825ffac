// Package project derives ephemeral display state from the event stream:
// notifications, the unread counter, and a rolling activity log. It reads the
// same events as the store but never touches the entity collections.
package project

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"prospect-sync/internal/core"
)

const (
	// HighQualityThreshold is exclusive: a prospect notifies only when its
	// score is strictly above it.
	HighQualityThreshold = 80

	// RetentionCap bounds both the notification history and the activity
	// log. Eviction is FIFO; these are time-ordered logs, not caches.
	RetentionCap = 50
)

// completionKeywords mark agent task text that reads as a finished unit of
// work even when the status field lags behind.
var completionKeywords = []string{"completed", "finished", "done", "success"}

// Projector accumulates notifications and the activity log.
type Projector struct {
	mu             sync.Mutex
	notifications  []core.Notification // most recent last
	unread         int
	recent         []core.ActionLogEntry
	totalProspects int
	logger         *log.Logger
}

// New returns an empty projector.
func New(logger *log.Logger) *Projector {
	if logger == nil {
		logger = log.Default()
	}
	return &Projector{logger: logger}
}

// Project derives zero or more notifications from one event and records it in
// the activity log. Returned notifications are also retained internally.
func (p *Projector) Project(ev core.Event) []core.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []core.Notification
	switch e := ev.(type) {
	case core.ProspectFound:
		p.totalProspects++
		p.logAction(ev, fmt.Sprintf("prospect %s found (score %d)", e.CompanyName, e.QualityScore))
		if e.QualityScore > HighQualityThreshold {
			out = append(out, p.notify(ev, core.SeveritySuccess, "High-quality prospect",
				fmt.Sprintf("%s scored %d", e.CompanyName, e.QualityScore), e.CampaignID))
		}
	case core.AgentActivity:
		p.logAction(ev, fmt.Sprintf("agent %s: %s", e.AgentID, agentSummary(e)))
		if e.Status == core.AgentCompleted || containsCompletion(e.CurrentTask) {
			out = append(out, p.notify(ev, core.SeverityInfo, "Agent finished",
				fmt.Sprintf("%s completed %s", agentLabel(e), taskLabel(e)), e.CampaignID))
		}
	case core.CampaignUpdate:
		p.logAction(ev, fmt.Sprintf("campaign %d -> %s", e.CampaignID, e.Status))
		if e.Status == core.CampaignCompleted {
			msg := fmt.Sprintf("Campaign %d completed", e.CampaignID)
			if e.ProspectsFound != nil {
				msg = fmt.Sprintf("Campaign %d completed with %d prospects", e.CampaignID, *e.ProspectsFound)
			}
			out = append(out, p.notify(ev, core.SeveritySuccess, "Campaign completed", msg, e.CampaignID))
		}
	case core.ErrorEvent:
		p.logAction(ev, "error: "+e.Message)
		out = append(out, p.notify(ev, core.SeverityWarning, "Error", e.Message, 0))
	case core.ConnectionStatus:
		if e.Connected {
			p.logAction(ev, "feed connected")
		} else {
			p.logAction(ev, fmt.Sprintf("feed disconnected (attempt %d)", e.Attempt))
		}
	}
	return out
}

func (p *Projector) notify(ev core.Event, sev core.Severity, title, msg string, campaignID int) core.Notification {
	n := core.Notification{
		ID:         uuid.NewString(),
		Source:     ev.EventKind(),
		Severity:   sev,
		Title:      title,
		Message:    msg,
		CampaignID: campaignID,
		CreatedAt:  ev.OccurredAt(),
	}
	p.notifications = append(p.notifications, n)
	if len(p.notifications) > RetentionCap {
		p.notifications = p.notifications[len(p.notifications)-RetentionCap:]
	}
	p.unread++
	return n
}

func (p *Projector) logAction(ev core.Event, summary string) {
	p.recent = append(p.recent, core.ActionLogEntry{
		ID:      uuid.NewString(),
		Source:  ev.EventKind(),
		Summary: summary,
		At:      ev.OccurredAt(),
	})
	if len(p.recent) > RetentionCap {
		p.recent = p.recent[len(p.recent)-RetentionCap:]
	}
}

// Notifications returns the retained history, oldest first.
func (p *Projector) Notifications() []core.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Notification, len(p.notifications))
	copy(out, p.notifications)
	return out
}

// UnreadCount returns how many notifications arrived since the last MarkRead.
func (p *Projector) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// MarkRead zeroes the unread counter and flags the history as read. History
// is kept; calling it again is a no-op.
func (p *Projector) MarkRead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unread = 0
	for i := range p.notifications {
		p.notifications[i].Read = true
	}
}

// Clear drops the notification history and unread count. The activity log
// and prospect counter survive.
func (p *Projector) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = nil
	p.unread = 0
}

// RecentActions returns the rolling activity log, oldest first, capped at
// RetentionCap entries.
func (p *Projector) RecentActions() []core.ActionLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.ActionLogEntry, len(p.recent))
	copy(out, p.recent)
	return out
}

// TotalProspects returns the running count of prospect_found events seen.
func (p *Projector) TotalProspects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalProspects
}

func containsCompletion(task string) bool {
	lower := strings.ToLower(task)
	for _, kw := range completionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func agentSummary(e core.AgentActivity) string {
	if e.CurrentTask != "" {
		return fmt.Sprintf("%s (%d%%) %s", e.Status, e.Progress, e.CurrentTask)
	}
	return fmt.Sprintf("%s (%d%%)", e.Status, e.Progress)
}

func agentLabel(e core.AgentActivity) string {
	if e.AgentName != "" {
		return e.AgentName
	}
	return e.AgentID
}

func taskLabel(e core.AgentActivity) string {
	if e.CurrentTask != "" {
		return fmt.Sprintf("%q", e.CurrentTask)
	}
	return "its task"
}
