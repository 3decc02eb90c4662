package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

type fakeRecorder struct {
	mu       sync.Mutex
	receives []inventory.ReceiveInput
	consumes []inventory.ConsumeInput
	failLine string
}

func (f *fakeRecorder) Receive(_ context.Context, in inventory.ReceiveInput) (*entity.InventoryMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receives = append(f.receives, in)
	return &entity.InventoryMovement{ID: in.IdempotencyKey}, nil
}

func (f *fakeRecorder) Consume(_ context.Context, in inventory.ConsumeInput) (*entity.InventoryMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.IdempotencyKey == f.failLine {
		return nil, domain.ErrInsufficientStock
	}
	f.consumes = append(f.consumes, in)
	return &entity.InventoryMovement{ID: in.IdempotencyKey}, nil
}

type fakeReader struct {
	msgs   chan kafkago.Message
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

const purchaseOrder = `{
	"event_id": "e1",
	"event_type": "purchase_order.received",
	"payload": {"id": "OC-77", "lines": [
		{"line": 1, "product_id": "p1", "lot_id": "l1", "quantity": "10", "unit_cost": "12500.50"},
		{"line": 2, "product_id": "p2", "lot_id": "l1", "quantity": "3", "unit_cost": "800"}
	]}
}`

func TestHandleMessage_PurchaseOrderReceivesEachLine(t *testing.T) {
	rec := &fakeRecorder{}
	l := NewListener(&fakeReader{}, rec, zerolog.Nop())

	require.NoError(t, l.HandleMessage(context.Background(), []byte(purchaseOrder)))
	require.Len(t, rec.receives, 2)

	first := rec.receives[0]
	assert.Equal(t, "po:OC-77:1", first.IdempotencyKey)
	assert.Equal(t, "OC-77", first.Reference)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, first.UnitCost.Equal(decimal.RequireFromString("12500.50")))
	assert.Equal(t, "po:OC-77:2", rec.receives[1].IdempotencyKey)
}

func TestHandleMessage_SaleContinuesAfterFailedLine(t *testing.T) {
	rec := &fakeRecorder{failLine: "sale:V-9:1"}
	l := NewListener(&fakeReader{}, rec, zerolog.Nop())
	msg := `{"event_type":"sale.completed","payload":{"id":"V-9","lines":[
		{"line":1,"product_id":"p1","lot_id":"l1","quantity":"50"},
		{"line":2,"product_id":"p2","lot_id":"l1","quantity":"1"}]}}`

	err := l.HandleMessage(context.Background(), []byte(msg))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.Len(t, rec.consumes, 1, "el segundo renglón se registra aunque el primero falle")
	assert.Equal(t, "sale:V-9:2", rec.consumes[0].IdempotencyKey)
}

func TestHandleMessage_IgnoresUnknownAndRejectsGarbage(t *testing.T) {
	rec := &fakeRecorder{}
	l := NewListener(&fakeReader{}, rec, zerolog.Nop())

	assert.NoError(t, l.HandleMessage(context.Background(), []byte(`{"event_type":"customer.created","payload":{"id":"c1"}}`)))
	assert.Error(t, l.HandleMessage(context.Background(), []byte(`{no json`)))
	assert.Error(t, l.HandleMessage(context.Background(), []byte(`{"event_type":"sale.completed","payload":{}}`)))
	assert.Empty(t, rec.receives)
	assert.Empty(t, rec.consumes)
}

func TestStart_ProcessesUntilCancelled(t *testing.T) {
	rec := &fakeRecorder{}
	reader := &fakeReader{msgs: make(chan kafkago.Message, 1)}
	l := NewListener(reader, rec, zerolog.Nop())
	reader.msgs <- kafkago.Message{Value: []byte(purchaseOrder)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.receives) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start no terminó tras cancelar el contexto")
	}
	require.NoError(t, l.Close())
	assert.True(t, reader.closed)
}
