// Package websocket carries chat sessions over websocket connections.
package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/wire"
)

const msgRateLimited = "Rate limit exceeded. Please slow down."

// Dispatcher owns session state. The chat service implements it.
type Dispatcher interface {
	Connect(sender hub.Sender) hub.Handle
	Dispatch(ctx context.Context, h hub.Handle, msg wire.Inbound)
	Reject(h hub.Handle, message string)
	Disconnect(h hub.Handle)
}

// Options tunes a connection. Zero values disable the matching limit.
type Options struct {
	ReadLimit    int64
	MessageLimit int
	TypingLimit  int
	RateWindow   time.Duration
	PingInterval time.Duration
	Logger       *slog.Logger
}

// Serve runs a session on conn until the peer goes away or ctx is done. It
// blocks; the session is disconnected before it returns.
func Serve(ctx context.Context, conn *websocket.Conn, d Dispatcher, opts Options) {
	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}

	c := NewClient(conn, opts.Logger)
	c.SetMessageLimiter(opts.MessageLimit, opts.RateWindow)
	c.SetTypingLimiter(opts.TypingLimit, opts.RateWindow)
	c.handle = d.Connect(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.WriteMessage(ctx, opts.PingInterval)
	c.ReadMessage(ctx, d)
}

// ReadMessage decodes incoming frames and hands them to d.
func (c *Client) ReadMessage(ctx context.Context, d Dispatcher) {
	defer func() {
		d.Disconnect(c.handle)
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				c.logger.WarnContext(ctx, "websocket read failed",
					"error", err,
					"handle", c.handle.String())
			}
			return
		}

		// Only text frames carry JSON.
		if msgType != websocket.MessageText {
			continue
		}

		msg, err := wire.Decode(p)
		if err != nil {
			c.logger.DebugContext(ctx, "failed to decode client message",
				"error", err,
				"handle", c.handle.String())
			d.Reject(c.handle, wire.ErrorText(err))
			continue
		}

		switch msg.(type) {
		case wire.SendMessage:
			if c.messageLim != nil && !c.messageLim.Allow() {
				d.Reject(c.handle, msgRateLimited)
				continue
			}
		case wire.TypingStart, wire.TypingStop:
			// Dropped silently: a missed indicator is harmless.
			if c.typingLim != nil && !c.typingLim.Allow() {
				continue
			}
		}

		d.Dispatch(ctx, c.handle, msg)
	}
}
