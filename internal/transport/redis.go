package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFeed consumes feed messages relayed over a Redis Pub/Sub channel,
// for deployments where the backend fans events out through Redis instead of
// a direct WebSocket. Payloads are the same JSON envelopes.
type RedisFeed struct {
	channel string
	options *redis.Options
	out     chan []byte
	logger  *log.Logger

	mu     sync.Mutex
	client *redis.Client
	closed bool
}

// NewRedisFeed returns a feed subscribed to the given channel.
func NewRedisFeed(opts *redis.Options, channel string, logger *log.Logger) *RedisFeed {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisFeed{
		channel: channel,
		options: opts,
		out:     make(chan []byte, feedBufferLen),
		logger:  logger,
	}
}

// Messages returns the raw message channel.
func (f *RedisFeed) Messages() <-chan []byte { return f.out }

// Run subscribes and forwards payloads until ctx is cancelled. Receive
// errors reconnect the client after a short pause, surfacing the outage as
// connection_status messages.
func (f *RedisFeed) Run(ctx context.Context) error {
	defer close(f.out)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.client = redis.NewClient(f.options)
	client := f.client
	f.mu.Unlock()

	pubsub := client.Subscribe(ctx, f.channel)
	defer pubsub.Close()
	f.emit(statusMessage(true, 0))

	attempt := 0
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || f.isClosed() {
				return ctx.Err()
			}
			attempt++
			f.logger.Println("transport: redis receive error", err)
			f.emit(statusMessage(false, attempt))
			time.Sleep(time.Second)
			continue
		}
		if attempt > 0 {
			attempt = 0
			f.emit(statusMessage(true, 0))
		}
		f.emit([]byte(msg.Payload))
	}
}

func (f *RedisFeed) emit(msg []byte) {
	select {
	case f.out <- msg:
	default:
		f.logger.Println("transport: dropping message, consumer behind")
	}
}

func (f *RedisFeed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close terminates the subscription and the client.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

var _ Feed = (*RedisFeed)(nil)
