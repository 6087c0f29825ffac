package normalize

import (
	"errors"
	"testing"
	"time"

	"prospect-sync/internal/core"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testNormalizer() *Normalizer {
	return NewWithClock(func() time.Time { return fixedNow })
}

func TestNormalizeAgentActivity(t *testing.T) {
	n := testNormalizer()
	raw := []byte(`{"type":"agent_activity","data":{"agentId":"agent-1","agent_name":"Scout","status":"working","progress":40,"currentTask":"scanning directories","campaign_id":7,"timestamp":"2026-03-14T09:00:00Z"}}`)
	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	aa, ok := ev.(core.AgentActivity)
	if !ok {
		t.Fatalf("expected AgentActivity, got %T", ev)
	}
	if aa.AgentID != "agent-1" || aa.AgentName != "Scout" {
		t.Fatalf("bad identity fields: %+v", aa)
	}
	if aa.Status != core.AgentWorking || aa.Progress != 40 {
		t.Fatalf("bad status fields: %+v", aa)
	}
	if id, ok := aa.Campaign(); !ok || id != 7 {
		t.Fatalf("expected campaign 7, got %d (%v)", id, ok)
	}
	if !aa.At.Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("bad timestamp: %v", aa.At)
	}
}

func TestNormalizeAgentStatusAlias(t *testing.T) {
	n := testNormalizer()
	raw := []byte(`{"type":"agent_status","data":{"agent_id":"agent-2","state":"idle"}}`)
	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	aa := ev.(core.AgentActivity)
	if aa.AgentID != "agent-2" || aa.Status != core.AgentIdle {
		t.Fatalf("alias coalescing failed: %+v", aa)
	}
}

func TestNormalizePrefersSpecificAlias(t *testing.T) {
	n := testNormalizer()
	// Both the specific and the generic alias present: specific wins.
	raw := []byte(`{"type":"agent_activity","data":{"agentId":"specific","agent":"generic","status":"working"}}`)
	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := ev.(core.AgentActivity).AgentID; got != "specific" {
		t.Fatalf("expected specific alias to win, got %q", got)
	}
}

func TestNormalizeProspectFound(t *testing.T) {
	n := testNormalizer()
	raw := []byte(`{"type":"prospect_found","payload":{"prospect_id":5,"campaignId":7,"company_name":"Acme Robotics","quality_score":91,"timestamp":1770000000}}`)
	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	pf := ev.(core.ProspectFound)
	if pf.ProspectID != 5 || pf.CampaignID != 7 || pf.CompanyName != "Acme Robotics" {
		t.Fatalf("bad fields: %+v", pf)
	}
	if pf.QualityScore != 91 {
		t.Fatalf("bad score: %d", pf.QualityScore)
	}
	if pf.At.Unix() != 1770000000 {
		t.Fatalf("unix timestamp not parsed: %v", pf.At)
	}
}

func TestNormalizeCampaignUpdateOptionalCount(t *testing.T) {
	n := testNormalizer()

	ev, err := n.Normalize([]byte(`{"type":"campaign_update","data":{"campaign_id":7,"status":"running"}}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cu := ev.(core.CampaignUpdate); cu.ProspectsFound != nil {
		t.Fatalf("expected nil count, got %d", *cu.ProspectsFound)
	}

	ev, err = n.Normalize([]byte(`{"type":"campaign_update","data":{"campaign_id":7,"status":"completed","prospectsFound":42}}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cu := ev.(core.CampaignUpdate)
	if cu.ProspectsFound == nil || *cu.ProspectsFound != 42 {
		t.Fatalf("expected count 42, got %+v", cu.ProspectsFound)
	}
}

func TestNormalizeFlatLayout(t *testing.T) {
	n := testNormalizer()
	raw := []byte(`{"type":"error","message":"backend unavailable","context":"search"}`)
	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	ee := ev.(core.ErrorEvent)
	if ee.Message != "backend unavailable" || ee.Context != "search" {
		t.Fatalf("bad fields: %+v", ee)
	}
}

func TestNormalizeMissingTimestampUsesReceiptTime(t *testing.T) {
	n := testNormalizer()
	ev, err := n.Normalize([]byte(`{"type":"connection_status","data":{"connected":true}}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !ev.OccurredAt().Equal(fixedNow) {
		t.Fatalf("expected receipt time fallback, got %v", ev.OccurredAt())
	}
}

func TestNormalizeUnknownType(t *testing.T) {
	n := testNormalizer()
	_, err := n.Normalize([]byte(`{"type":"team_digest","data":{}}`))
	var ute *UnknownTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	if ute.Type != "team_digest" {
		t.Fatalf("bad type in error: %q", ute.Type)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	n := testNormalizer()
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"data":{}}`),
		[]byte(`{"type":"agent_activity","data":{"status":"working"}}`),
		[]byte(`{"type":"prospect_found","data":{"company_name":"Acme"}}`),
		[]byte(`{"type":"campaign_update","data":{"status":"running"}}`),
	}
	for _, raw := range cases {
		if _, err := n.Normalize(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %s, got %v", raw, err)
		}
	}
}
