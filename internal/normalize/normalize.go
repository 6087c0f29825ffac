// Package normalize converts raw feed payloads into core events.
//
// The wire format is a JSON envelope with a "type" discriminator and the
// variant fields either nested under "data"/"payload" or flattened at the top
// level. Historical field aliases (agentId vs agent_id vs agent_name) are
// coalesced into the canonical names, preferring the more specific alias.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prospect-sync/internal/core"
)

// ErrMalformed marks payloads that could not be decoded at all.
var ErrMalformed = errors.New("malformed message")

// UnknownTypeError is returned for type discriminators outside the known set.
// Callers log and drop these; new server-side event types must not break the
// dispatch loop.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// Normalizer maps raw transport messages to core.Event values. It is
// stateless apart from the clock used to stamp events that arrive without a
// timestamp of their own.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer using the wall clock.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock returns a Normalizer with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

type envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Payload json.RawMessage `json:"payload"`
}

// Normalize converts one raw message into an Event. It never panics; bad
// input yields ErrMalformed or *UnknownTypeError.
func (n *Normalizer) Normalize(raw []byte) (core.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type discriminator", ErrMalformed)
	}

	body := env.Data
	if len(body) == 0 {
		body = env.Payload
	}
	if len(body) == 0 {
		// Flat layout: variant fields live beside "type".
		body = raw
	}
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case "connection_status":
		return n.connectionStatus(fields), nil
	case "agent_activity", "agent_status":
		return n.agentActivity(fields)
	case "prospect_found":
		return n.prospectFound(fields)
	case "campaign_update":
		return n.campaignUpdate(fields)
	case "error":
		return n.errorEvent(fields), nil
	default:
		return nil, &UnknownTypeError{Type: env.Type}
	}
}

func (n *Normalizer) connectionStatus(m map[string]any) core.Event {
	return core.ConnectionStatus{
		Connected: boolField(m, "connected"),
		Attempt:   intField(m, "attempt", "attempts"),
		At:        n.timestamp(m),
	}
}

func (n *Normalizer) agentActivity(m map[string]any) (core.Event, error) {
	id := strField(m, "agentId", "agent_id", "agent")
	if id == "" {
		return nil, fmt.Errorf("%w: agent activity without agent id", ErrMalformed)
	}
	return core.AgentActivity{
		AgentID:     id,
		AgentName:   strField(m, "agentName", "agent_name", "name"),
		Status:      core.AgentState(strField(m, "status", "state")),
		Progress:    clamp(intField(m, "progress"), 0, 100),
		CurrentTask: strField(m, "currentTask", "current_task", "task", "message"),
		CampaignID:  intField(m, "campaignId", "campaign_id"),
		At:          n.timestamp(m),
	}, nil
}

func (n *Normalizer) prospectFound(m map[string]any) (core.Event, error) {
	id := intField(m, "prospectId", "prospect_id", "id")
	if id == 0 {
		return nil, fmt.Errorf("%w: prospect without id", ErrMalformed)
	}
	return core.ProspectFound{
		ProspectID:   id,
		CampaignID:   intField(m, "campaignId", "campaign_id"),
		CompanyName:  strField(m, "companyName", "company_name", "company"),
		ContactName:  strField(m, "contactName", "contact_name", "contact"),
		Email:        strField(m, "email"),
		QualityScore: clamp(intField(m, "qualityScore", "quality_score", "score"), 0, 100),
		At:           n.timestamp(m),
	}, nil
}

func (n *Normalizer) campaignUpdate(m map[string]any) (core.Event, error) {
	id := intField(m, "campaignId", "campaign_id", "id")
	if id == 0 {
		return nil, fmt.Errorf("%w: campaign update without campaign id", ErrMalformed)
	}
	ev := core.CampaignUpdate{
		CampaignID: id,
		Status:     core.CampaignState(strField(m, "status", "state")),
		At:         n.timestamp(m),
	}
	if _, ok := lookup(m, "prospectsFound", "prospects_found"); ok {
		v := intField(m, "prospectsFound", "prospects_found")
		ev.ProspectsFound = &v
	}
	return ev, nil
}

func (n *Normalizer) errorEvent(m map[string]any) core.Event {
	return core.ErrorEvent{
		Message: strField(m, "message", "error"),
		Context: strField(m, "context", "source"),
		At:      n.timestamp(m),
	}
}

// timestamp reads the event's own timestamp, falling back to receipt time.
// Receipt order is the only ordering key for feeds that omit timestamps.
func (n *Normalizer) timestamp(m map[string]any) time.Time {
	v, ok := lookup(m, "timestamp", "ts", "time")
	if !ok {
		return n.now()
	}
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case float64:
		// Unix seconds, or milliseconds for values too large to be seconds.
		if t > 1e12 {
			return time.UnixMilli(int64(t))
		}
		return time.Unix(int64(t), 0)
	}
	return n.now()
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func strField(m map[string]any, keys ...string) string {
	v, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intField(m map[string]any, keys ...string) int {
	v, ok := lookup(m, keys...)
	if !ok {
		return 0
	}
	// Unmarshal into map[string]any always yields float64 for numbers.
	f, _ := v.(float64)
	return int(f)
}

func boolField(m map[string]any, keys ...string) bool {
	v, ok := lookup(m, keys...)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
