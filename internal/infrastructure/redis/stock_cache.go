package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

const keyPrefix = "inventario:stock:"

var (
	_ repository.StockQueryRepository = (*StockCache)(nil)
	_ inventory.StockNotifier         = (*StockCache)(nil)
)

func onHandKey(productID string) string { return keyPrefix + "onhand:" + productID }
func locationKey(productID string) string { return keyPrefix + "location:" + productID }
func warehouseKey(warehouseID string) string { return keyPrefix + "warehouse:" + warehouseID }

// StockCache decora un StockQueryRepository con caché en Redis para las consultas por producto y bodega.
// Se invalida con los eventos de stock; el TTL acota lo que los eventos no cubren (renombres, activación de lotes).
// ProductLevels y LotBalances no se cachean: alimentan reportes y conciliación.
type StockCache struct {
	next   repository.StockQueryRepository
	client Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewStockCache construye el decorador.
func NewStockCache(next repository.StockQueryRepository, client Client, ttl time.Duration, log zerolog.Logger) *StockCache {
	return &StockCache{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "stock_cache").Logger(),
	}
}

func (c *StockCache) StockOnHand(ctx context.Context, productID string) (decimal.Decimal, error) {
	return cached(ctx, c, onHandKey(productID), func() (decimal.Decimal, error) {
		return c.next.StockOnHand(ctx, productID)
	})
}

func (c *StockCache) StockByLocation(ctx context.Context, productID string) ([]entity.StockLocation, error) {
	return cached(ctx, c, locationKey(productID), func() ([]entity.StockLocation, error) {
		return c.next.StockByLocation(ctx, productID)
	})
}

func (c *StockCache) ProductsWithStock(ctx context.Context, warehouseID string) ([]entity.ProductStock, error) {
	return cached(ctx, c, warehouseKey(warehouseID), func() ([]entity.ProductStock, error) {
		return c.next.ProductsWithStock(ctx, warehouseID)
	})
}

func (c *StockCache) ProductLevels(ctx context.Context) ([]entity.ProductStock, error) {
	return c.next.ProductLevels(ctx)
}

func (c *StockCache) LotBalances(ctx context.Context, productID string) ([]entity.LotStock, error) {
	return c.next.LotBalances(ctx, productID)
}

// NotifyStockChanged invalida las claves del producto y de las bodegas afectadas.
func (c *StockCache) NotifyStockChanged(ctx context.Context, events []inventory.StockChanged) error {
	seen := map[string]struct{}{}
	var keys []string
	add := func(k string) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, ev := range events {
		add(onHandKey(ev.ProductID))
		add(locationKey(ev.ProductID))
		add(warehouseKey(ev.WarehouseID))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func cached[T any](ctx context.Context, c *StockCache, key string, load func() (T, error)) (T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.log.Warn().Str("key", key).Msg("entrada de caché corrupta")
	} else if !errors.Is(err, goredis.Nil) {
		c.log.Warn().Err(err).Str("key", key).Msg("lectura de caché falló")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("escritura de caché falló")
	}
	return v, nil
}
