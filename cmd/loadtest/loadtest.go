// Command loadtest signs up a batch of users, puts them in one room and has
// each of them send messages over websocket while counting deliveries.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/wire"
)

type options struct {
	BaseURL  string        `env:"LOADTEST_URL" envDefault:"http://localhost:8080"`
	Clients  int           `env:"LOADTEST_CLIENTS" envDefault:"20"`
	Messages int           `env:"LOADTEST_MESSAGES" envDefault:"10"`
	Interval time.Duration `env:"LOADTEST_INTERVAL" envDefault:"200ms"`
	Room     string        `env:"LOADTEST_ROOM" envDefault:"loadtest"`
	Timeout  time.Duration `env:"LOADTEST_TIMEOUT" envDefault:"2m"`
}

type stats struct {
	sent      atomic.Int64
	delivered atomic.Int64
	errors    atomic.Int64
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	opts, err := env.ParseAs[options]()
	if err != nil {
		logger.Error("failed to parse options", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	room, err := ensureRoom(ctx, opts)
	if err != nil {
		logger.Error("failed to prepare room", "error", err)
		os.Exit(1)
	}

	var st stats
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := range opts.Clients {
		g.Go(func() error {
			return runClient(gctx, opts, room.ID, i, &st)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("load test aborted", "error", err)
	}

	sent := st.sent.Load()
	expected := sent * int64(opts.Clients)
	logger.Info("load test finished",
		"clients", opts.Clients,
		"sent", sent,
		"delivered", st.delivered.Load(),
		"expected", expected,
		"errors", st.errors.Load(),
		"elapsed", time.Since(start))
}

func runClient(ctx context.Context, opts options, roomID int64, n int, st *stats) error {
	user, err := signup(ctx, opts.BaseURL, fmt.Sprintf("load-%d-%s", n, uuid.NewString()[:8]))
	if err != nil {
		return err
	}

	wsURL := "ws" + strings.TrimPrefix(opts.BaseURL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, map[string]any{"type": wire.TypeJoin, "userId": user.ID, "username": user.Username}); err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, map[string]any{"type": wire.TypeJoinRoom, "roomId": roomID}); err != nil {
		return err
	}

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go func() {
		for {
			var ev struct {
				Type string `json:"type"`
			}
			if err := wsjson.Read(readCtx, conn, &ev); err != nil {
				return
			}
			switch ev.Type {
			case wire.TypeNewMessage:
				st.delivered.Add(1)
			case wire.TypeError:
				st.errors.Add(1)
			}
		}
	}()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for i := range opts.Messages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		content := fmt.Sprintf("message %d from %s", i, user.Username)
		if err := wsjson.Write(ctx, conn, map[string]any{"type": wire.TypeSendMessage, "content": content}); err != nil {
			return err
		}
		st.sent.Add(1)
	}

	// Give the last broadcasts time to arrive.
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
	return conn.Close(websocket.StatusNormalClosure, "done")
}

func signup(ctx context.Context, baseURL, username string) (model.PublicUser, error) {
	var user model.PublicUser
	err := postJSON(ctx, baseURL+"/api/users", map[string]string{"username": username, "password": uuid.NewString()}, &user)
	return user, err
}

func ensureRoom(ctx context.Context, opts options) (model.Room, error) {
	var room model.Room
	err := postJSON(ctx, opts.BaseURL+"/api/rooms", model.NewRoom{Name: opts.Room}, &room)
	if err == nil {
		return room, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.BaseURL+"/api/rooms", nil)
	if err != nil {
		return model.Room{}, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return model.Room{}, err
	}
	defer res.Body.Close()

	var rooms []model.Room
	if err := json.NewDecoder(res.Body).Decode(&rooms); err != nil {
		return model.Room{}, err
	}
	for _, r := range rooms {
		if r.Name == opts.Room {
			return r, nil
		}
	}
	return model.Room{}, fmt.Errorf("room %q not found", opts.Room)
}

func postJSON(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: status %d", url, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
