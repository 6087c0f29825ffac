// Package client wires the pipeline together: feed -> normalizer -> registry
// -> {store, projector}. One goroutine owns dispatch, so every event is fully
// applied before the next is read; consumers only ever see whole states.
package client

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"prospect-sync/internal/api"
	"prospect-sync/internal/core"
	"prospect-sync/internal/normalize"
	"prospect-sync/internal/project"
	"prospect-sync/internal/registry"
	"prospect-sync/internal/store"
	"prospect-sync/internal/transport"
)

// Client is the synchronization layer facade. UI-facing consumers read
// snapshots and subscribe; writes only happen through the event pipeline and
// the backend intents.
type Client struct {
	feed    transport.Feed
	backend *api.Client
	norm    *normalize.Normalizer
	reg     *registry.Registry
	store   *store.Store
	proj    *project.Projector
	logger  *log.Logger

	mu   sync.RWMutex
	conn core.ConnectionStatus
}

// New assembles a client. The store and projector are subscribed before any
// external consumer can be, so entity state is always reconciled first.
func New(feed transport.Feed, backend *api.Client, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		feed:    feed,
		backend: backend,
		norm:    normalize.New(),
		reg:     registry.New(logger),
		store:   store.New(logger),
		proj:    project.New(logger),
		logger:  logger,
	}
	c.reg.Subscribe(registry.All(), c.store.Apply)
	c.reg.Subscribe(registry.All(), func(ev core.Event) { c.proj.Project(ev) })
	c.reg.Subscribe(registry.All(), c.trackConnection)
	return c
}

// Run consumes the feed until ctx is cancelled or the feed terminates.
// Normalization failures are logged and dropped; a stream of garbage must
// not end the loop.
func (c *Client) Run(ctx context.Context) error {
	feedErr := make(chan error, 1)
	go func() { feedErr <- c.feed.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			c.feed.Close()
			<-feedErr
			return ctx.Err()
		case raw, ok := <-c.feed.Messages():
			if !ok {
				return <-feedErr
			}
			ev, err := c.norm.Normalize(raw)
			if err != nil {
				c.logger.Println("client: dropping message:", err)
				continue
			}
			c.reg.Publish(ev)
		}
	}
}

func (c *Client) trackConnection(ev core.Event) {
	if cs, ok := ev.(core.ConnectionStatus); ok {
		c.mu.Lock()
		c.conn = cs
		c.mu.Unlock()
	}
}

// Subscribe registers an external handler; see registry.Topic for filters.
func (c *Client) Subscribe(t registry.Topic, h registry.Handler) func() {
	return c.reg.Subscribe(t, h)
}

// Refresh merges a fresh bulk load into the store. The merge respects row
// freshness, so a slow fetch racing live events cannot roll state back.
func (c *Client) Refresh(ctx context.Context) error {
	campaigns, cErr := c.backend.ListCampaigns(ctx)
	if cErr == nil {
		c.store.MergeCampaigns(campaigns)
	}
	prospects, pErr := c.backend.ListProspects(ctx, api.ProspectFilter{})
	if pErr == nil {
		c.store.MergeProspects(prospects)
	}
	agents, aErr := c.backend.GetAgentStatuses(ctx)
	if aErr == nil {
		c.store.MergeAgentStatuses(agents)
	}
	return errors.Join(cErr, pErr, aErr)
}

// StartCampaign optimistically marks the campaign running and asks the
// backend to start it. On failure the local status is reverted and the error
// surfaces as a warning notification.
func (c *Client) StartCampaign(ctx context.Context, id int) error {
	prev, known := c.store.SetCampaignStatus(id, core.CampaignRunning)
	if err := c.backend.StartCampaign(ctx, id); err != nil {
		if known {
			c.store.SetCampaignStatus(id, prev)
		}
		c.reg.Publish(core.ErrorEvent{
			Message: "failed to start campaign: " + err.Error(),
			Context: "start_campaign",
			At:      time.Now(),
		})
		return err
	}
	return nil
}

// StopCampaign mirrors StartCampaign for the cancel intent.
func (c *Client) StopCampaign(ctx context.Context, id int) error {
	prev, known := c.store.SetCampaignStatus(id, core.CampaignCancelled)
	if err := c.backend.StopCampaign(ctx, id); err != nil {
		if known {
			c.store.SetCampaignStatus(id, prev)
		}
		c.reg.Publish(core.ErrorEvent{
			Message: "failed to stop campaign: " + err.Error(),
			Context: "stop_campaign",
			At:      time.Now(),
		})
		return err
	}
	return nil
}

// ConnectionState returns the latest connectivity report.
func (c *Client) ConnectionState() core.ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Degraded reports whether snapshots should be treated as stale.
func (c *Client) Degraded() bool { return !c.ConnectionState().Connected }

// Campaigns returns a snapshot of the campaign collection.
func (c *Client) Campaigns() []core.Campaign { return c.store.Campaigns() }

// Campaign returns one campaign row.
func (c *Client) Campaign(id int) (core.Campaign, bool) { return c.store.Campaign(id) }

// Prospects returns a snapshot of the prospect collection, most recent first.
func (c *Client) Prospects() []core.Prospect { return c.store.Prospects() }

// CampaignProspects returns the prospects for one campaign.
func (c *Client) CampaignProspects(id int) []core.Prospect { return c.store.CampaignProspects(id) }

// AgentStatuses returns a snapshot of the agent fleet.
func (c *Client) AgentStatuses() []core.AgentStatus { return c.store.AgentStatuses() }

// Notifications returns the retained notification history.
func (c *Client) Notifications() []core.Notification { return c.proj.Notifications() }

// UnreadCount returns notifications since the last MarkRead.
func (c *Client) UnreadCount() int { return c.proj.UnreadCount() }

// MarkRead acknowledges all notifications.
func (c *Client) MarkRead() { c.proj.MarkRead() }

// ClearNotifications drops the notification history.
func (c *Client) ClearNotifications() { c.proj.Clear() }

// RecentActions returns the rolling activity log.
func (c *Client) RecentActions() []core.ActionLogEntry { return c.proj.RecentActions() }

// TotalProspects returns the running prospect counter.
func (c *Client) TotalProspects() int { return c.proj.TotalProspects() }

// Close tears down the registry and the feed.
func (c *Client) Close() error {
	c.reg.Close()
	return c.feed.Close()
}
