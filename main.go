// Package main our entry point.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/johndosdos/chatroom/internal/bot"
	"github.com/johndosdos/chatroom/internal/broker"
	"github.com/johndosdos/chatroom/internal/chat"
	"github.com/johndosdos/chatroom/internal/config"
	"github.com/johndosdos/chatroom/internal/handler"
	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	ratelimiter "github.com/johndosdos/chatroom/internal/rate_limiter"
	"github.com/johndosdos/chatroom/internal/store"
	ws "github.com/johndosdos/chatroom/internal/websocket"
	"github.com/johndosdos/chatroom/sql/schema"
)

type appStore interface {
	chat.Store
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, user model.NewUser) (model.User, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting application...")

	// Init DB. Without DB_URL everything lives in memory.
	var (
		st     appStore
		dbPool *pgxpool.Pool
	)
	if cfg.DBURL != "" {
		logger.Info("initializing database connection...")

		dbPool, err = pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			fatal(logger, "could not connect to the postgresql database", err)
		}
		defer dbPool.Close()

		dbForGoose := stdlib.OpenDBFromPool(dbPool)
		if err := schema.Migrate(dbForGoose, false); err != nil {
			fatal(logger, "failed to migrate database", err)
		}
		dbForGoose.Close()

		st = store.NewPostgres(dbPool)
	} else {
		logger.Warn("DB_URL is not set; using in-memory store")
		st = store.NewMemory()
	}

	if _, err := bot.EnsureIdentity(ctx, st); err != nil {
		fatal(logger, "failed to create bot account", err)
	}

	// Init NATS. The broker is optional.
	var (
		natsConn *nats.Conn
		sink     *broker.Publisher
	)
	if cfg.NATSURL != "" {
		logger.Info("initializing NATS connection...")

		natsConn, sink, err = connectBroker(ctx, cfg, logger)
		if err != nil {
			fatal(logger, "failed to initialize broker", err)
		}
	}

	registry := hub.NewRegistry()
	rooms := hub.NewBroadcaster(registry, logger)

	botOpts := []bot.Option{
		bot.WithReplyDelay(cfg.BotReplyDelay),
		bot.WithMaxTokens(cfg.BotMaxTokens),
		bot.WithLogger(logger),
	}
	if cfg.OpenAIKey != "" {
		botOpts = append(botOpts, bot.WithProvider(bot.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)))
	} else {
		logger.Warn("OPENAI_API_KEY is not set; bot replies fall back to canned text")
	}

	chatOpts := chat.Options{HistoryLimit: cfg.HistoryLimit, Logger: logger}
	if sink != nil {
		botOpts = append(botOpts, bot.WithSink(sink))
		chatOpts.Sink = sink
	}

	orchestrator := bot.NewOrchestrator(st, rooms, botOpts...)
	svc := chat.NewService(registry, rooms, st, orchestrator, chatOpts)

	limiter := ratelimiter.NewIPRateLimiter(cfg.HTTPRateLimit, time.Minute, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	}, logger)
	defer limiter.Stop()

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: handler.NewRouter(handler.Deps{
			Chat:    svc,
			Users:   st,
			Limiter: limiter,
			WSOptions: ws.Options{
				ReadLimit:    cfg.WSReadLimit,
				MessageLimit: cfg.WSMessageLimit,
				TypingLimit:  cfg.WSTypingLimit,
				RateWindow:   cfg.WSRateWindow,
				PingInterval: cfg.WSPingInterval,
				Logger:       logger,
			},
			Logger: logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}

	// Let in-flight bot replies land before the store goes away.
	if err := orchestrator.Wait(shutdownCtx); err != nil {
		logger.Warn("bot tasks still running at shutdown", "error", err)
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Warn("couldn't drain NATS conn", "error", err)
		}
	}

	logger.Info("server stopped")
}

func connectBroker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*nats.Conn, *broker.Publisher, error) {
	var natsOpts []nats.Option

	if cfg.NATSCred != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(cfg.NATSCred))
	} else if cfg.NATSUser != "" && cfg.NATSPassword != "" {
		natsOpts = append(natsOpts, nats.UserInfo(cfg.NATSUser, cfg.NATSPassword))
	}

	natsOpts = append(natsOpts, nats.Timeout(5*time.Second))

	conn, err := nats.Connect(cfg.NATSURL, natsOpts...)
	if err != nil {
		return nil, nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	if _, err := broker.EnsureStream(ctx, js); err != nil {
		conn.Close()
		return nil, nil, err
	}

	pub, err := broker.NewPublisher(js, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, pub, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
