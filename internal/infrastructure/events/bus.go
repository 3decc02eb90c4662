package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
)

var _ inventory.StockNotifier = (*Bus)(nil)

// Handler procesa un lote de notificaciones de stock.
type Handler func(ctx context.Context, events []inventory.StockChanged) error

// Bus reparte las notificaciones del motor entre los suscriptores en proceso (publicador Redis,
// invalidación de caché, pruebas). Un suscriptor que falla o entra en pánico no afecta a los demás.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
	log      zerolog.Logger
}

// NewBus construye un bus vacío.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{handlers: map[string]Handler{}, log: log.With().Str("component", "stock_bus").Logger()}
}

// Subscribe registra h con un nombre; volver a usar el nombre reemplaza al anterior.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[name]; !ok {
		b.order = append(b.order, name)
	}
	b.handlers[name] = h
}

// NotifyStockChanged entrega los eventos a cada suscriptor en orden de registro.
func (b *Bus) NotifyStockChanged(ctx context.Context, events []inventory.StockChanged) error {
	b.mu.RLock()
	names := append([]string(nil), b.order...)
	handlers := make([]Handler, len(names))
	for i, n := range names {
		handlers[i] = b.handlers[n]
	}
	b.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := b.deliver(ctx, names[i], h, events); err != nil {
			b.log.Error().Err(err).Str("subscriber", names[i]).Msg("suscriptor de stock falló")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, name string, h Handler, events []inventory.StockChanged) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("suscriptor %s: pánico: %v", name, r)
		}
	}()
	if err := h(ctx, events); err != nil {
		return fmt.Errorf("suscriptor %s: %w", name, err)
	}
	return nil
}
