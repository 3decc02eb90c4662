package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/inventory"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

// MovementEngine es el único que modifica saldos. Cada operación corre en una sola transacción
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback; las notificaciones salen después del Commit.
type MovementEngine struct {
	txRunner repository.TxRunner
	notifier StockNotifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewMovementEngine construye el motor. notifier puede ser nil.
func NewMovementEngine(txRunner repository.TxRunner, notifier StockNotifier, log zerolog.Logger) *MovementEngine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MovementEngine{
		txRunner: txRunner,
		notifier: notifier,
		log:      log.With().Str("component", "movement_engine").Logger(),
		now:      time.Now,
	}
}

// ReceiveInput entrada de Receive. UnitCost alimenta el costo promedio ponderado.
type ReceiveInput struct {
	ProductID      string
	LotID          string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	Reference      string
	IdempotencyKey string
	UserID         string
}

// ConsumeInput entrada de Consume.
type ConsumeInput struct {
	ProductID      string
	LotID          string
	Quantity       decimal.Decimal
	Reference      string
	IdempotencyKey string
	UserID         string
}

// TransferInput entrada de Transfer. Si Reference está vacío se genera uno.
type TransferInput struct {
	ProductID        string
	OriginLotID      string
	DestinationLotID string
	Quantity         decimal.Decimal
	Reference        string
	IdempotencyKey   string
	UserID           string
}

// AdjustInput entrada de Adjust. Delta con signo, distinto de cero.
// UnitCost solo aplica a ajustes positivos y, si viene, recalcula el costo promedio.
type AdjustInput struct {
	ProductID      string
	LotID          string
	Delta          decimal.Decimal
	UnitCost       *decimal.Decimal
	Reference      string
	IdempotencyKey string
	UserID         string
}

// TransferResult las dos patas de un traslado.
type TransferResult struct {
	Out *entity.InventoryMovement
	In  *entity.InventoryMovement
}

// Receive suma quantity al lote y registra un movimiento receipt.
func (e *MovementEngine) Receive(ctx context.Context, in ReceiveInput) (*entity.InventoryMovement, error) {
	if in.ProductID == "" || in.LotID == "" {
		return nil, fmt.Errorf("producto y lote requeridos: %w", domain.ErrInvalidInput)
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	if in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}

	var (
		mov     *entity.InventoryMovement
		changes []StockChanged
	)
	err := e.txRunner.Run(ctx, func(repos repository.Repositories) error {
		prior, err := replay(ctx, repos, in.IdempotencyKey, entity.MovementTypeReceipt)
		if err != nil || prior != nil {
			mov = first(prior)
			return err
		}
		product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		lot, err := activeLot(ctx, repos, in.LotID)
		if err != nil {
			return err
		}
		if err := e.revalue(ctx, repos, product, in.Quantity, in.UnitCost); err != nil {
			return err
		}
		m, change, err := e.apply(ctx, repos, movementSpec{
			movType: entity.MovementTypeReceipt, product: product, lot: lot,
			delta: in.Quantity, unitCost: in.UnitCost,
			reference: in.Reference, key: in.IdempotencyKey, userID: in.UserID,
		})
		if err != nil {
			return err
		}
		mov, changes = m, []StockChanged{change}
		return nil
	})
	if err != nil {
		if prior := e.afterConflict(ctx, err, in.IdempotencyKey, entity.MovementTypeReceipt); prior != nil {
			return prior[0], nil
		}
		return nil, txError(err)
	}
	e.publish(ctx, changes)
	return mov, nil
}

// Consume descuenta quantity del lote al costo promedio vigente.
// Falla con ErrInsufficientStock si el saldo quedaría negativo.
func (e *MovementEngine) Consume(ctx context.Context, in ConsumeInput) (*entity.InventoryMovement, error) {
	if in.ProductID == "" || in.LotID == "" {
		return nil, fmt.Errorf("producto y lote requeridos: %w", domain.ErrInvalidInput)
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}

	var (
		mov     *entity.InventoryMovement
		changes []StockChanged
	)
	err := e.txRunner.Run(ctx, func(repos repository.Repositories) error {
		prior, err := replay(ctx, repos, in.IdempotencyKey, entity.MovementTypeConsumption)
		if err != nil || prior != nil {
			mov = first(prior)
			return err
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		lot, err := repos.Lots.GetByID(ctx, in.LotID)
		if err != nil {
			return err
		}
		m, change, err := e.apply(ctx, repos, movementSpec{
			movType: entity.MovementTypeConsumption, product: product, lot: lot,
			delta: in.Quantity.Neg(), unitCost: product.Cost,
			reference: in.Reference, key: in.IdempotencyKey, userID: in.UserID,
		})
		if err != nil {
			return err
		}
		mov, changes = m, []StockChanged{change}
		return nil
	})
	if err != nil {
		if prior := e.afterConflict(ctx, err, in.IdempotencyKey, entity.MovementTypeConsumption); prior != nil {
			return prior[0], nil
		}
		return nil, txError(err)
	}
	e.publish(ctx, changes)
	return mov, nil
}

// Transfer mueve quantity de un lote a otro en una sola transacción. Ambos lotes se validan
// antes de escribir y se bloquean en orden de ID para evitar interbloqueos.
func (e *MovementEngine) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.ProductID == "" || in.OriginLotID == "" || in.DestinationLotID == "" {
		return nil, fmt.Errorf("producto y lotes requeridos: %w", domain.ErrInvalidInput)
	}
	if in.OriginLotID == in.DestinationLotID {
		return nil, fmt.Errorf("origen y destino son el mismo lote: %w", domain.ErrInvalidInput)
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	reference := in.Reference
	if reference == "" {
		reference = "TRF-" + uuid.NewString()[:8]
	}

	var (
		result  *TransferResult
		changes []StockChanged
	)
	err := e.txRunner.Run(ctx, func(repos repository.Repositories) error {
		prior, err := replay(ctx, repos, in.IdempotencyKey, entity.MovementTypeTransferOut)
		if err != nil || prior != nil {
			result = legs(prior)
			return err
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		origin, err := repos.Lots.GetByID(ctx, in.OriginLotID)
		if err != nil {
			return err
		}
		dest, err := activeLot(ctx, repos, in.DestinationLotID)
		if err != nil {
			return err
		}

		lockFirst, lockSecond := origin.ID, dest.ID
		if lockSecond < lockFirst {
			lockFirst, lockSecond = lockSecond, lockFirst
		}
		for _, lotID := range []string{lockFirst, lockSecond} {
			if _, err := repos.Stock.GetForUpdate(ctx, lotID, product.ID); err != nil {
				return err
			}
		}

		transferID := uuid.NewString()
		out, outChange, err := e.apply(ctx, repos, movementSpec{
			movType: entity.MovementTypeTransferOut, product: product, lot: origin,
			delta: in.Quantity.Neg(), unitCost: product.Cost, transferID: transferID,
			reference: reference, key: in.IdempotencyKey, userID: in.UserID,
		})
		if err != nil {
			return err
		}
		inMov, inChange, err := e.apply(ctx, repos, movementSpec{
			movType: entity.MovementTypeTransferIn, product: product, lot: dest,
			delta: in.Quantity, unitCost: product.Cost, transferID: transferID,
			reference: reference, key: in.IdempotencyKey, userID: in.UserID,
		})
		if err != nil {
			return err
		}
		result = &TransferResult{Out: out, In: inMov}
		changes = []StockChanged{outChange, inChange}
		return nil
	})
	if err != nil {
		if prior := e.afterConflict(ctx, err, in.IdempotencyKey, entity.MovementTypeTransferOut); prior != nil {
			return legs(prior), nil
		}
		return nil, txError(err)
	}
	e.publish(ctx, changes)
	return result, nil
}

// Adjust aplica una corrección manual con delta con signo, protegida por el piso de cero.
func (e *MovementEngine) Adjust(ctx context.Context, in AdjustInput) (*entity.InventoryMovement, error) {
	if in.ProductID == "" || in.LotID == "" {
		return nil, fmt.Errorf("producto y lote requeridos: %w", domain.ErrInvalidInput)
	}
	if in.Delta.IsZero() {
		return nil, fmt.Errorf("el ajuste no puede ser cero: %w", domain.ErrInvalidQuantity)
	}
	if err := requireScale(in.Delta); err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}

	var (
		mov     *entity.InventoryMovement
		changes []StockChanged
	)
	err := e.txRunner.Run(ctx, func(repos repository.Repositories) error {
		prior, err := replay(ctx, repos, in.IdempotencyKey, entity.MovementTypeAdjustment)
		if err != nil || prior != nil {
			mov = first(prior)
			return err
		}
		product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		var lot *entity.Lot
		if in.Delta.IsPositive() {
			lot, err = activeLot(ctx, repos, in.LotID)
		} else {
			lot, err = repos.Lots.GetByID(ctx, in.LotID)
		}
		if err != nil {
			return err
		}
		unitCost := product.Cost
		if in.Delta.IsPositive() && in.UnitCost != nil {
			unitCost = *in.UnitCost
			if err := e.revalue(ctx, repos, product, in.Delta, unitCost); err != nil {
				return err
			}
		}
		m, change, err := e.apply(ctx, repos, movementSpec{
			movType: entity.MovementTypeAdjustment, product: product, lot: lot,
			delta: in.Delta, unitCost: unitCost,
			reference: in.Reference, key: in.IdempotencyKey, userID: in.UserID,
		})
		if err != nil {
			return err
		}
		mov, changes = m, []StockChanged{change}
		return nil
	})
	if err != nil {
		if prior := e.afterConflict(ctx, err, in.IdempotencyKey, entity.MovementTypeAdjustment); prior != nil {
			return prior[0], nil
		}
		return nil, txError(err)
	}
	e.publish(ctx, changes)
	return mov, nil
}

type movementSpec struct {
	movType    string
	product    *entity.Product
	lot        *entity.Lot
	delta      decimal.Decimal
	unitCost   decimal.Decimal
	transferID string
	reference  string
	key        string
	userID     string
}

// apply bloquea el saldo, valida el piso de cero, actualiza el saldo y agrega el movimiento.
func (e *MovementEngine) apply(ctx context.Context, repos repository.Repositories, spec movementSpec) (*entity.InventoryMovement, StockChanged, error) {
	stock, err := repos.Stock.GetForUpdate(ctx, spec.lot.ID, spec.product.ID)
	if err != nil {
		return nil, StockChanged{}, err
	}
	balance := stock.Quantity.Add(spec.delta)
	if balance.IsNegative() {
		return nil, StockChanged{}, fmt.Errorf("lote %s: disponible %s, solicitado %s: %w",
			spec.lot.Code, stock.Quantity, spec.delta.Neg(), domain.ErrInsufficientStock)
	}
	if err := repos.Stock.SetQuantity(ctx, spec.lot.ID, spec.product.ID, balance); err != nil {
		return nil, StockChanged{}, err
	}

	now := e.now()
	mov := &entity.InventoryMovement{
		ID:             uuid.NewString(),
		TransferID:     spec.transferID,
		Type:           spec.movType,
		ProductID:      spec.product.ID,
		LotID:          spec.lot.ID,
		WarehouseID:    spec.lot.WarehouseID,
		Quantity:       spec.delta,
		UnitCost:       spec.unitCost,
		TotalCost:      inventory.Valuation(spec.delta, spec.unitCost),
		Reference:      spec.reference,
		IdempotencyKey: spec.key,
		CreatedBy:      spec.userID,
		CreatedAt:      now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, StockChanged{}, err
	}
	return mov, StockChanged{
		MovementID:   mov.ID,
		MovementType: mov.Type,
		ProductID:    mov.ProductID,
		LotID:        mov.LotID,
		WarehouseID:  mov.WarehouseID,
		Delta:        mov.Quantity,
		Balance:      balance,
		Reference:    mov.Reference,
		OccurredAt:   now,
	}, nil
}

// revalue recalcula el costo promedio con el stock global previo a la entrada.
func (e *MovementEngine) revalue(ctx context.Context, repos repository.Repositories, product *entity.Product, qty, unitCost decimal.Decimal) error {
	onHand, err := repos.Stock.ProductTotal(ctx, product.ID)
	if err != nil {
		return err
	}
	newCost := inventory.CostCalculator(onHand, product.Cost, qty, unitCost)
	if newCost.Equal(product.Cost) {
		return nil
	}
	if err := repos.Products.UpdateCost(ctx, product.ID, newCost); err != nil {
		return err
	}
	product.Cost = newCost
	return nil
}

func (e *MovementEngine) publish(ctx context.Context, changes []StockChanged) {
	for _, c := range changes {
		e.log.Debug().
			Str("movement_id", c.MovementID).
			Str("type", c.MovementType).
			Str("product_id", c.ProductID).
			Str("lot_id", c.LotID).
			Stringer("delta", c.Delta).
			Msg("movimiento registrado")
	}
	if len(changes) == 0 {
		return
	}
	if err := e.notifier.NotifyStockChanged(context.WithoutCancel(ctx), changes); err != nil {
		e.log.Warn().Err(err).Int("events", len(changes)).Msg("no se pudo notificar el cambio de stock")
	}
}

// afterConflict resuelve la carrera de dos peticiones con la misma clave: la segunda choca con el
// índice único y devuelve lo que registró la primera. Solo repite movimientos del mismo tipo.
func (e *MovementEngine) afterConflict(ctx context.Context, err error, key, movType string) []*entity.InventoryMovement {
	if key == "" || !errors.Is(err, domain.ErrDuplicateKey) {
		return nil
	}
	var prior []*entity.InventoryMovement
	lookupErr := e.txRunner.Run(ctx, func(repos repository.Repositories) error {
		var err error
		prior, err = repos.Movements.ListByIdempotencyKey(ctx, key)
		return err
	})
	if lookupErr != nil || !hasType(prior, movType) {
		return nil
	}
	return prior
}

// replay devuelve los movimientos ya registrados con la clave, o nil si no hay clave o no existen.
func replay(ctx context.Context, repos repository.Repositories, key, movType string) ([]*entity.InventoryMovement, error) {
	if key == "" {
		return nil, nil
	}
	prior, err := repos.Movements.ListByIdempotencyKey(ctx, key)
	if err != nil || len(prior) == 0 {
		return nil, err
	}
	if !hasType(prior, movType) {
		return nil, fmt.Errorf("clave %s usada por otro tipo de movimiento: %w", key, domain.ErrDuplicateKey)
	}
	return prior, nil
}

func hasType(list []*entity.InventoryMovement, movType string) bool {
	for _, m := range list {
		if m.Type == movType {
			return true
		}
	}
	return false
}

// activeLot toma el lote con bloqueo compartido: una desactivación concurrente espera al commit.
func activeLot(ctx context.Context, repos repository.Repositories, lotID string) (*entity.Lot, error) {
	lot, err := repos.Lots.GetForShare(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if !lot.Active {
		return nil, fmt.Errorf("lote %s inactivo: %w", lot.Code, domain.ErrInvalidInput)
	}
	return lot, nil
}

// QuantityScale decimales que admite el libro (NUMERIC(18,4)).
const QuantityScale = 4

func requirePositive(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("cantidad %s: %w", q, domain.ErrInvalidQuantity)
	}
	return requireScale(q)
}

func requireScale(q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityScale)) {
		return fmt.Errorf("cantidad %s con más de %d decimales: %w", q, QuantityScale, domain.ErrInvalidQuantity)
	}
	return nil
}

func first(list []*entity.InventoryMovement) *entity.InventoryMovement {
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

func legs(list []*entity.InventoryMovement) *TransferResult {
	res := &TransferResult{}
	for _, m := range list {
		switch m.Type {
		case entity.MovementTypeTransferOut:
			res.Out = m
		case entity.MovementTypeTransferIn:
			res.In = m
		}
	}
	return res
}

// txError conserva los errores de dominio y convierte el resto en ErrTransactionFailed.
func txError(err error) error {
	if domain.IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
}
