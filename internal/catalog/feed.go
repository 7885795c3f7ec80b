package catalog

import (
	"context"
	"encoding/json"

	"tableside/internal/common/logger"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/domain"
)

// Feed is the live catalog subscription. Each push is a complete
// snapshot. Subscribe returns a cancel handle; after cancel no further
// pushes are delivered.
type Feed interface {
	Subscribe(ctx context.Context, onPush func(domain.CatalogSnapshot)) (cancel func(), err error)
}

// AMQPFeed consumes catalog snapshots from the menu fanout exchange.
type AMQPFeed struct {
	client *rabbitmq.Client
	lg     *logger.Logger
}

func NewAMQPFeed(client *rabbitmq.Client, lg *logger.Logger) *AMQPFeed {
	return &AMQPFeed{client: client, lg: lg}
}

func (f *AMQPFeed) Subscribe(ctx context.Context, onPush func(domain.CatalogSnapshot)) (func(), error) {
	deliveries, err := f.client.Consume(rabbitmq.MenuExchange)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, open := <-deliveries:
				if !open {
					f.lg.Warn("menu_feed_closed", nil)
					return
				}
				var snap domain.CatalogSnapshot
				if err := json.Unmarshal(d.Body, &snap); err != nil {
					f.lg.Error("menu_snapshot_decode", err, nil)
					continue
				}
				onPush(snap)
			}
		}
	}()
	return cancel, nil
}

// Attach wires a feed to a cache: every push replaces the cache, and a
// feed that cannot be subscribed marks the cache failed.
func Attach(ctx context.Context, feed Feed, cache *Cache) (func(), error) {
	cancel, err := feed.Subscribe(ctx, cache.Replace)
	if err != nil {
		cache.MarkFailed(err)
		return nil, err
	}
	return cancel, nil
}
