package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
)

var _ inventory.StockNotifier = (*StockPublisher)(nil)

// StockPublisher publica cada StockChanged como JSON en un canal pub/sub.
type StockPublisher struct {
	client  Client
	channel string
	log     zerolog.Logger
}

// NewStockPublisher construye el publicador sobre channel.
func NewStockPublisher(client Client, channel string, log zerolog.Logger) *StockPublisher {
	return &StockPublisher{
		client:  client,
		channel: channel,
		log:     log.With().Str("component", "redis_publisher").Str("channel", channel).Logger(),
	}
}

// NotifyStockChanged implementa inventory.StockNotifier.
func (p *StockPublisher) NotifyStockChanged(ctx context.Context, events []inventory.StockChanged) error {
	var errs []error
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal evento %s: %w", ev.MovementID, err))
			continue
		}
		receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
		if err != nil {
			errs = append(errs, fmt.Errorf("publish evento %s: %w", ev.MovementID, err))
			continue
		}
		p.log.Debug().
			Str("movement_id", ev.MovementID).
			Str("product_id", ev.ProductID).
			Int64("receivers", receivers).
			Msg("stock publicado")
	}
	return errors.Join(errs...)
}
