// Package transport provides the inbound feed collaborators. Two producers
// exist for the same pipeline: a WebSocket client for browsers-adjacent
// deployments and a Redis Pub/Sub relay for server-side ones. Both emit raw
// payloads; normalization happens downstream.
package transport

import (
	"context"
	"encoding/json"
	"time"
)

// Feed is a source of raw feed messages. Run blocks until the context is
// cancelled or the feed fails terminally; Messages is closed when Run
// returns.
type Feed interface {
	Run(ctx context.Context) error
	Messages() <-chan []byte
	Close() error
}

// statusMessage synthesizes a connection_status wire message so connectivity
// changes flow through the same normalize/dispatch path as real events.
func statusMessage(connected bool, attempt int) []byte {
	msg := map[string]any{
		"type": "connection_status",
		"data": map[string]any{
			"connected": connected,
			"attempt":   attempt,
			"timestamp": time.Now().Format(time.RFC3339Nano),
		},
	}
	data, _ := json.Marshal(msg)
	return data
}
