package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/johndosdos/chatroom/internal/hub"
)

var (
	ErrQueueFull = errors.New("websocket: outbound queue full")
	ErrClosed    = errors.New("websocket: client closed")
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Client is one websocket connection. It implements hub.Sender: frames are
// queued by Enqueue and written in order by WriteMessage.
type Client struct {
	conn   *websocket.Conn
	handle hub.Handle
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	messageLim *rate.Limiter
	typingLim  *rate.Limiter
}

func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *Client) SetMessageLimiter(requests int, window time.Duration) {
	c.messageLim = newLimiter(requests, window)
}

func (c *Client) SetTypingLimiter(requests int, window time.Duration) {
	c.typingLim = newLimiter(requests, window)
}

func newLimiter(requests int, window time.Duration) *rate.Limiter {
	if requests <= 0 || window <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

// Enqueue queues a frame without blocking. A slow client gets ErrQueueFull
// and misses the frame.
func (c *Client) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the writer. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// WriteMessage writes queued frames to the connection until the client is
// closed or ctx is done. Pings are sent every pingInterval to detect dead
// peers.
func (c *Client) WriteMessage(ctx context.Context, pingInterval time.Duration) {
	var tick <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.WarnContext(ctx, "failed to write frame",
					"error", err,
					"handle", c.handle.String())
				c.conn.CloseNow()
				return
			}

		case <-tick:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.DebugContext(ctx, "ping failed",
					"error", err,
					"handle", c.handle.String())
				c.conn.CloseNow()
				return
			}

		case <-c.done:
			c.conn.Close(websocket.StatusNormalClosure, "connection closed")
			return

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}
