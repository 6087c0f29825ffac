package transport

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	writeWait     = 10 * time.Second
	maxBackoff    = 30 * time.Second
	initialDelay  = time.Second
	feedBufferLen = 256
)

// WebSocketFeed consumes the backend's event stream over a WebSocket,
// reconnecting with capped backoff. Each connectivity change is surfaced as a
// synthesized connection_status message with the running attempt count.
type WebSocketFeed struct {
	url    string
	out    chan []byte
	logger *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocketFeed returns a feed for the given ws:// or wss:// URL.
func NewWebSocketFeed(url string, logger *log.Logger) *WebSocketFeed {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketFeed{
		url:    url,
		out:    make(chan []byte, feedBufferLen),
		logger: logger,
	}
}

// Messages returns the raw message channel.
func (f *WebSocketFeed) Messages() <-chan []byte { return f.out }

// Run dials and reads until ctx is cancelled or Close is called. Dial and
// read failures trigger reconnects; the attempt counter resets on success.
func (f *WebSocketFeed) Run(ctx context.Context) error {
	defer close(f.out)
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			attempt++
			f.logger.Println("transport: dial failed", err)
			f.emit(statusMessage(false, attempt))
			if !f.sleep(ctx, backoff(attempt)) {
				return ctx.Err()
			}
			continue
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			conn.Close()
			return nil
		}
		f.conn = conn
		f.mu.Unlock()

		attempt = 0
		f.emit(statusMessage(true, attempt))
		err = f.read(ctx, conn)
		conn.Close()
		if errors.Is(err, context.Canceled) || f.isClosed() {
			return nil
		}
		attempt++
		f.logger.Println("transport: connection lost", err)
		f.emit(statusMessage(false, attempt))
		if !f.sleep(ctx, backoff(attempt)) {
			return ctx.Err()
		}
	}
}

// read pumps frames from one connection until it fails. A ping ticker keeps
// the connection alive; the read deadline is pushed on every pong.
func (f *WebSocketFeed) read(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	readErr := make(chan error, 1)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			f.emit(message)
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// emit forwards a message, dropping it when the consumer has fallen behind a
// full buffer. The reconciler's upsert makes a dropped progress frame
// harmless; blocking the read loop would not be.
func (f *WebSocketFeed) emit(msg []byte) {
	select {
	case f.out <- msg:
	default:
		f.logger.Println("transport: dropping message, consumer behind")
	}
}

func (f *WebSocketFeed) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (f *WebSocketFeed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close tears the feed down. Safe to call more than once.
func (f *WebSocketFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func backoff(attempt int) time.Duration {
	d := initialDelay << uint(attempt-1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

var _ Feed = (*WebSocketFeed)(nil)
