package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/pkg/config"
)

// Tipos de evento que consume el ledger.
const (
	EventPurchaseOrderReceived = "purchase_order.received"
	EventSaleCompleted         = "sale.completed"

	systemUser = "kafka"
)

// MessageReader es lo que el listener necesita de *kafkago.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// MovementRecorder registra los movimientos derivados de los eventos.
type MovementRecorder interface {
	Receive(ctx context.Context, in inventory.ReceiveInput) (*entity.InventoryMovement, error)
	Consume(ctx context.Context, in inventory.ConsumeInput) (*entity.InventoryMovement, error)
}

var _ MessageReader = (*kafkago.Reader)(nil)

// NewReader crea un lector con consumer group; los offsets se confirman al leer.
func NewReader(cfg config.KafkaConfig) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// Event sobre de los eventos de compras y ventas.
type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// EventPayload documento origen (orden de compra o venta) con sus renglones.
type EventPayload struct {
	ID    string      `json:"id"`
	Lines []EventLine `json:"lines"`
}

// EventLine un renglón. UnitCost solo aplica a recepciones.
type EventLine struct {
	Line      int             `json:"line"`
	ProductID string          `json:"product_id"`
	LotID     string          `json:"lot_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// Listener traduce eventos de Kafka en recepciones y consumos.
type Listener struct {
	reader   MessageReader
	recorder MovementRecorder
	log      zerolog.Logger
	backoff  time.Duration
}

// NewListener construye el listener.
func NewListener(reader MessageReader, recorder MovementRecorder, log zerolog.Logger) *Listener {
	return &Listener{
		reader:   reader,
		recorder: recorder,
		log:      log.With().Str("component", "kafka_listener").Logger(),
		backoff:  time.Second,
	}
}

// Start lee mensajes hasta que ctx se cancele.
func (l *Listener) Start(ctx context.Context) {
	l.log.Info().Msg("listener de kafka iniciado")
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("listener de kafka detenido")
				return
			}
			l.log.Error().Err(err).Msg("lectura de mensaje falló")
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		if err := l.HandleMessage(ctx, msg.Value); err != nil {
			l.log.Error().Err(err).Int64("offset", msg.Offset).Msg("mensaje descartado")
		}
	}
}

// Close cierra el lector.
func (l *Listener) Close() error {
	return l.reader.Close()
}

// HandleMessage procesa un mensaje. Cada renglón es un movimiento idempotente independiente:
// un renglón fallido se registra y los demás continúan. Tipos desconocidos se ignoran.
func (l *Listener) HandleMessage(ctx context.Context, value []byte) error {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("decodificar evento: %w", err)
	}
	if ev.Payload.ID == "" {
		return fmt.Errorf("evento %s sin id de documento", ev.EventID)
	}

	var record func(EventLine) error
	switch ev.EventType {
	case EventPurchaseOrderReceived:
		record = func(line EventLine) error {
			_, err := l.recorder.Receive(ctx, inventory.ReceiveInput{
				ProductID:      line.ProductID,
				LotID:          line.LotID,
				Quantity:       line.Quantity,
				UnitCost:       line.UnitCost,
				Reference:      ev.Payload.ID,
				IdempotencyKey: fmt.Sprintf("po:%s:%d", ev.Payload.ID, line.Line),
				UserID:         systemUser,
			})
			return err
		}
	case EventSaleCompleted:
		record = func(line EventLine) error {
			_, err := l.recorder.Consume(ctx, inventory.ConsumeInput{
				ProductID:      line.ProductID,
				LotID:          line.LotID,
				Quantity:       line.Quantity,
				Reference:      ev.Payload.ID,
				IdempotencyKey: fmt.Sprintf("sale:%s:%d", ev.Payload.ID, line.Line),
				UserID:         systemUser,
			})
			return err
		}
	default:
		l.log.Debug().Str("event_type", ev.EventType).Msg("evento ignorado")
		return nil
	}

	l.log.Info().Str("event_type", ev.EventType).Str("document_id", ev.Payload.ID).
		Int("lines", len(ev.Payload.Lines)).Msg("procesando evento")

	var errs []error
	for _, line := range ev.Payload.Lines {
		if err := record(line); err != nil {
			l.log.Error().Err(err).
				Str("document_id", ev.Payload.ID).
				Int("line", line.Line).
				Str("product_id", line.ProductID).
				Msg("renglón no registrado")
			errs = append(errs, fmt.Errorf("renglón %d: %w", line.Line, err))
		}
	}
	return errors.Join(errs...)
}
