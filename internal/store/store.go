// Package store owns the in-memory entity collections (campaigns, prospects,
// agent statuses) and reconciles both live events and bulk-load results into
// them with the same upsert rules.
//
// The store is the single writer for its collections. Everything else reads
// copied snapshots, so a consumer can never observe a half-applied event.
package store

import (
	"log"
	"sort"
	"sync"
	"time"

	"prospect-sync/internal/core"
)

// Store holds the reconciled entity collections.
type Store struct {
	mu        sync.RWMutex
	campaigns map[int]*core.Campaign
	order     []int // campaign ids in bulk-load order
	prospects []*core.Prospect
	byID      map[int]*core.Prospect
	agents    map[string]*core.AgentStatus
	logger    *log.Logger
}

// New returns an empty store.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		campaigns: make(map[int]*core.Campaign),
		byID:      make(map[int]*core.Prospect),
		agents:    make(map[string]*core.AgentStatus),
		logger:    logger,
	}
}

// Apply reconciles one event into the collections. It never returns an
// error: conflicts are staleness signals handled by dropping and logging.
func (s *Store) Apply(ev core.Event) {
	switch e := ev.(type) {
	case core.CampaignUpdate:
		s.applyCampaignUpdate(e)
	case core.ProspectFound:
		s.applyProspectFound(e)
	case core.AgentActivity:
		s.applyAgentActivity(e)
	case core.ConnectionStatus, core.ErrorEvent:
		// No entity state; connection and error observers live elsewhere.
	}
}

// applyCampaignUpdate merges only the fields present on the event into an
// existing row. An update for an unknown campaign means the local collection
// is stale; it is dropped in favor of the next bulk reload.
func (s *Store) applyCampaignUpdate(e core.CampaignUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[e.CampaignID]
	if !ok {
		s.logger.Println("store: dropping update for unknown campaign", e.CampaignID)
		return
	}
	if e.Status != "" {
		if !ValidTransition(c.Status, e.Status) {
			s.logger.Printf("store: campaign %d unexpected transition %s -> %s", c.ID, c.Status, e.Status)
		}
		c.Status = e.Status
	}
	if e.ProspectsFound != nil {
		c.Metrics.TotalProspects = *e.ProspectsFound
	}
	c.UpdatedAt = later(c.UpdatedAt, e.At)
}

// applyProspectFound inserts a new prospect at the head of the collection.
// Redelivered events for a known id are dropped (at-most-once insert).
func (s *Store) applyProspectFound(e core.ProspectFound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ProspectID]; ok {
		return
	}
	p := &core.Prospect{
		ID:           e.ProspectID,
		CampaignID:   e.CampaignID,
		CompanyName:  e.CompanyName,
		ContactName:  e.ContactName,
		Email:        e.Email,
		QualityScore: e.QualityScore,
		Status:       core.ProspectIdentified,
		CreatedAt:    e.At,
		UpdatedAt:    e.At,
	}
	s.byID[p.ID] = p
	s.prospects = append([]*core.Prospect{p}, s.prospects...)
	if c, ok := s.campaigns[e.CampaignID]; ok {
		c.Metrics.TotalProspects++
	}
}

// applyAgentActivity fully replaces the agent row. Agents are self-announcing,
// so an unknown id creates the row. Events older than the stored lastActivity
// are dropped entirely; a late redelivery must not regress the status.
func (s *Store) applyAgentActivity(e core.AgentActivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.agents[e.AgentID]; ok && e.At.Before(a.LastActivity) {
		s.logger.Println("store: dropping stale activity for agent", e.AgentID)
		return
	}
	s.agents[e.AgentID] = &core.AgentStatus{
		AgentID:      e.AgentID,
		Name:         e.AgentName,
		Status:       e.Status,
		Progress:     e.Progress,
		CurrentTask:  e.CurrentTask,
		CampaignID:   e.CampaignID,
		LastActivity: e.At,
	}
}

// MergeCampaigns reconciles a bulk-load result. Unknown campaigns are
// created; known rows are replaced only when the fetched row is at least as
// fresh, so a slow fetch cannot erase live updates that landed meanwhile.
func (s *Store) MergeCampaigns(fetched []core.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fetched {
		f := f
		c, ok := s.campaigns[f.ID]
		if !ok {
			s.campaigns[f.ID] = &f
			s.order = append(s.order, f.ID)
			continue
		}
		if c.UpdatedAt.After(f.UpdatedAt) {
			// Live events touched this row after the fetch was issued; keep
			// the fresher status/metrics, refresh descriptive fields only.
			c.Name = f.Name
			c.TargetLocation = f.TargetLocation
			c.TargetSectors = f.TargetSectors
			c.ProspectGoal = f.ProspectGoal
			continue
		}
		f.UpdatedAt = later(f.UpdatedAt, c.UpdatedAt)
		*c = f
	}
	s.recountFunnel()
}

// MergeProspects reconciles bulk-loaded prospects. New ids are appended in
// fetch order behind live-discovered rows; existing rows are replaced only
// when the fetched copy is at least as fresh.
func (s *Store) MergeProspects(fetched []core.Prospect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fetched {
		f := f
		p, ok := s.byID[f.ID]
		if !ok {
			s.byID[f.ID] = &f
			s.prospects = append(s.prospects, &f)
			continue
		}
		if p.UpdatedAt.After(f.UpdatedAt) {
			continue
		}
		*p = f
	}
	s.recountFunnel()
}

// recountFunnel rederives each campaign's funnel counters from the prospect
// collection. Funnel movement only arrives via bulk loads (the live feed only
// ever introduces prospects as identified), so the merge paths recount.
// Callers hold s.mu.
func (s *Store) recountFunnel() {
	type tally struct{ contacted, qualified, converted int }
	counts := make(map[int]tally, len(s.campaigns))
	for _, p := range s.prospects {
		t := counts[p.CampaignID]
		switch p.Status {
		case core.ProspectContacted:
			t.contacted++
		case core.ProspectQualified:
			t.qualified++
		case core.ProspectConverted:
			t.converted++
		}
		counts[p.CampaignID] = t
	}
	for id, c := range s.campaigns {
		t := counts[id]
		c.Metrics.Contacted = t.contacted
		c.Metrics.Qualified = t.qualified
		c.Metrics.Converted = t.converted
	}
}

// MergeAgentStatuses reconciles bulk-loaded agent rows under the same
// freshness rule as live activity events.
func (s *Store) MergeAgentStatuses(fetched []core.AgentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fetched {
		f := f
		if a, ok := s.agents[f.AgentID]; ok && a.LastActivity.After(f.LastActivity) {
			continue
		}
		s.agents[f.AgentID] = &f
	}
}

// SetCampaignStatus sets a campaign's status directly, returning the previous
// value. Used for optimistic updates around start/stop intents; the caller
// reverts with the returned value when the backend call fails.
func (s *Store) SetCampaignStatus(id int, status core.CampaignState) (core.CampaignState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return "", false
	}
	prev := c.Status
	c.Status = status
	return prev, true
}

// Campaigns returns a copy of the campaign collection in bulk-load order.
func (s *Store) Campaigns() []core.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Campaign, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.campaigns[id])
	}
	return out
}

// Campaign returns a copy of one campaign row.
func (s *Store) Campaign(id int) (core.Campaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return core.Campaign{}, false
	}
	return *c, true
}

// Prospects returns a copy of the prospect collection, most recent first.
func (s *Store) Prospects() []core.Prospect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Prospect, 0, len(s.prospects))
	for _, p := range s.prospects {
		out = append(out, *p)
	}
	return out
}

// CampaignProspects returns the prospects belonging to one campaign.
func (s *Store) CampaignProspects(campaignID int) []core.Prospect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Prospect
	for _, p := range s.prospects {
		if p.CampaignID == campaignID {
			out = append(out, *p)
		}
	}
	return out
}

// AgentStatuses returns a copy of the agent collection, ordered by agent id.
func (s *Store) AgentStatuses() []core.AgentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AgentStatus, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
