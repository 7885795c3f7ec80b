// Package client wires the table-side core together and exposes it
// over HTTP to the presentation layer. The core never assumes any
// presentation hooks exist; this facade is the only seam.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tableside/internal/cart"
	"tableside/internal/catalog"
	"tableside/internal/common/config"
	"tableside/internal/common/httpx"
	"tableside/internal/common/logger"
	"tableside/internal/connections/database"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/connections/redisconn"
	"tableside/internal/order"
	"tableside/internal/orderlog"
	"tableside/internal/session"
	"tableside/internal/storage"
)

type App struct {
	cfg      config.App
	lg       *logger.Logger
	store    storage.Store
	cache    *catalog.Cache
	sessions *session.Manager
	cart     *cart.Cart
	pipeline *order.Pipeline
}

// Run builds the configured drivers, restores persisted state and
// serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.App, port int) error {
	lg := logger.New("client-service")

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer store.Close()

	// The broker carries both the order log (when selected) and the
	// live menu feed, so dial it whenever a host is configured.
	var rmq *rabbitmq.Client
	if cfg.OrderLog.Driver == "rabbitmq" || cfg.Rabbit.Host != "" {
		rmq, err = rabbitmq.Dial(cfg.Rabbit)
		if err != nil {
			return fmt.Errorf("rabbitmq dial: %w", err)
		}
		defer rmq.Close()
		if err := rmq.DeclareAll(); err != nil {
			return fmt.Errorf("rabbitmq declare: %w", err)
		}
	}

	remote, cleanup, err := buildOrderLog(ctx, cfg, rmq)
	if err != nil {
		return fmt.Errorf("build order log: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	cache := catalog.NewCache(logger.New("catalog"))
	if rmq != nil {
		feed := catalog.NewAMQPFeed(rmq, logger.New("menu-feed"))
		cancel, err := catalog.Attach(ctx, feed, cache)
		if err != nil {
			lg.Error("menu_feed_unavailable", err, nil)
		} else {
			defer cancel()
		}
	}

	sessions := session.NewManager(store, logger.New("session"))
	if _, err := sessions.GetOrCreate(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	ct, err := cart.Load(ctx, store, cache, logger.New("cart"))
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	pipeline, err := order.NewPipeline(ctx, store, remote, cfg.Restaurant.ID, logger.New("order-pipeline"))
	if err != nil {
		return fmt.Errorf("load pipeline: %w", err)
	}
	if restored := len(pipeline.History()); restored > 0 {
		lg.Info("session_restored_with_orders", map[string]any{"orders": restored})
	}

	app := &App{
		cfg:      cfg,
		lg:       lg,
		store:    store,
		cache:    cache,
		sessions: sessions,
		cart:     ct,
		pipeline: pipeline,
	}

	lg.Info("service_started", map[string]any{
		"service": "client-service", "port": port,
		"storage": cfg.Storage.Driver, "orderlog": cfg.OrderLog.Driver,
	})
	srv := httpx.New(":"+strconv.Itoa(port), app.routes())
	return srv.Run(ctx)
}

func buildStore(ctx context.Context, cfg config.App) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "redis":
		client, err := redisconn.Dial(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return storage.NewStore(storage.StoreTypeRedis,
			storage.WithRedisClient(client),
			storage.WithRedisTTL(time.Duration(cfg.Storage.TTLHours)*time.Hour),
			storage.WithKeyPrefix(cfg.Restaurant.ID+":"),
		)
	default:
		return storage.NewStore(storage.StoreTypeMemory)
	}
}

func buildOrderLog(ctx context.Context, cfg config.App, rmq *rabbitmq.Client) (orderlog.Log, func(), error) {
	switch cfg.OrderLog.Driver {
	case "rabbitmq":
		return orderlog.NewAMQPLog(rmq, logger.New("order-log")), nil, nil
	case "postgres":
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return orderlog.NewPostgresLog(db), db.Close, nil
	default:
		return orderlog.NewMemoryLog(), nil, nil
	}
}
