package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
)

// InventoryHandler maneja movimientos y consultas de stock (protegido).
type InventoryHandler struct {
	engine *inventory.MovementEngine
	query  *inventory.StockQueryService
	slips  inventory.TransferSlipRenderer
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.MovementEngine, query *inventory.StockQueryService, slips inventory.TransferSlipRenderer) *InventoryHandler {
	return &InventoryHandler{engine: engine, query: query, slips: slips}
}

// ── Movimientos ───────────────────────────────────────────────────────────────

// Receive godoc
// @Summary      Registrar recepción
// @Description  Ingresa stock a un lote y recalcula el costo promedio ponderado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "Producto, lote, cantidad y costo unitario"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.engine.Receive(c.UserContext(), inventory.ReceiveInput{
		ProductID:      in.ProductID,
		LotID:          in.LotID,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Consume godoc
// @Summary      Registrar consumo
// @Description  Descuenta stock de un lote (venta o uso en taller). 409 si no alcanza.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "Producto, lote y cantidad"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.engine.Consume(c.UserContext(), inventory.ConsumeInput{
		ProductID:      in.ProductID,
		LotID:          in.LotID,
		Quantity:       in.Quantity,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Transfer godoc
// @Summary      Trasladar entre lotes
// @Description  Salida y entrada atómicas con la misma referencia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Producto, lote origen, lote destino y cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Transfer(c.UserContext(), inventory.TransferInput{
		ProductID:        in.ProductID,
		OriginLotID:      in.OriginLotID,
		DestinationLotID: in.DestinationLotID,
		Quantity:         in.Quantity,
		Reference:        in.Reference,
		IdempotencyKey:   in.IdempotencyKey,
		UserID:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(res))
}

// Adjust godoc
// @Summary      Ajuste manual
// @Description  Delta con signo, distinto de cero. No deja saldos negativos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "Producto, lote y delta"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.engine.Adjust(c.UserContext(), inventory.AdjustInput{
		ProductID:      in.ProductID,
		LotID:          in.LotID,
		Delta:          in.Delta,
		UnitCost:       in.UnitCost,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Movements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        lot_id        query  string  false  "Lote"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        reference     query  string  false  "Referencia"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(50)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	filter := entity.MovementFilter{
		ProductID:   c.Query("product_id"),
		LotID:       c.Query("lot_id"),
		WarehouseID: c.Query("warehouse_id"),
		Reference:   c.Query("reference"),
		Limit:       min(c.QueryInt("limit", 50), 500),
		Offset:      max(c.QueryInt("offset", 0), 0),
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	list, err := h.query.Movements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// TransferLegs godoc
// @Summary      Patas de un traslado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        reference  path  string  true  "Referencia del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{reference} [get]
func (h *InventoryHandler) TransferLegs(c *fiber.Ctx) error {
	res, err := h.query.TransferLegs(c.UserContext(), c.Params("reference"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(res))
}

// TransferSlip godoc
// @Summary      Comprobante de traslado en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        reference  path  string  true  "Referencia del traslado"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{reference}/slip [get]
func (h *InventoryHandler) TransferSlip(c *fiber.Ctx) error {
	slip, err := h.query.TransferSlip(c.UserContext(), c.Params("reference"))
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.slips.RenderTransferSlip(*slip)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="traslado-%s.pdf"`, slip.Reference))
	return c.Send(pdf)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// StockOnHand godoc
// @Summary      Stock disponible de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockOnHandResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) StockOnHand(c *fiber.Ctx) error {
	id := c.Params("id")
	qty, err := h.query.StockOnHand(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockOnHandResponse{ProductID: id, Quantity: qty})
}

// StockByLocation godoc
// @Summary      Stock por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.StockLocationResponse
// @Router       /api/inventory/products/{id}/locations [get]
func (h *InventoryHandler) StockByLocation(c *fiber.Ctx) error {
	rows, err := h.query.StockByLocation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockLocationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockLocationResponse{
			WarehouseID:   r.WarehouseID,
			WarehouseName: r.WarehouseName,
			SectionID:     r.SectionID,
			SectionName:   r.SectionName,
			LotID:         r.LotID,
			LotCode:       r.LotCode,
			Quantity:      r.Quantity,
		})
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar saldos contra movimientos
// @Description  Lista vacía cuando el ledger es consistente.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.LotDiscrepancyResponse
// @Router       /api/inventory/products/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	list, err := h.query.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LotDiscrepancyResponse, 0, len(list))
	for _, d := range list {
		out = append(out, dto.LotDiscrepancyResponse{LotID: d.LotID, Balance: d.Balance, MovementTotal: d.MovementTotal})
	}
	return c.JSON(out)
}

// ProductsWithStock godoc
// @Summary      Productos con stock en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {array}  dto.ProductStockResponse
// @Router       /api/inventory/warehouses/{id}/products [get]
func (h *InventoryHandler) ProductsWithStock(c *fiber.Ctx) error {
	list, err := h.query.ProductsWithStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductStockResponses(list))
}

// LowStock godoc
// @Summary      Productos en o bajo el mínimo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.query.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductStockResponses(list))
}

// OverStock godoc
// @Summary      Productos sobre el máximo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductStockResponse
// @Router       /api/inventory/over-stock [get]
func (h *InventoryHandler) OverStock(c *fiber.Ctx) error {
	list, err := h.query.OverStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductStockResponses(list))
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  SKUs en o bajo el mínimo con la cantidad sugerida de pedido,
//
//	ordenados por consumo de los últimos 90 días.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/replenishment [get]
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.query.ReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			ProductID:          s.Product.ID,
			SKU:                s.Product.SKU,
			ProductName:        s.Product.Name,
			CurrentStock:       s.CurrentStock,
			MinStock:           s.Product.MinStock,
			TargetStock:        s.TargetStock,
			SuggestedOrderQty:  s.SuggestedOrderQty,
			UnitCost:           s.Product.Cost,
			EstimatedOrderCost: s.EstimatedOrderCost,
			ConsumedLast90Days: s.ConsumedLast90Days,
			Priority:           s.Priority,
		})
	}
	return c.JSON(out)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s debe ser RFC3339", key)
	}
	return &t, nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		TransferID:  m.TransferID,
		Type:        m.Type,
		ProductID:   m.ProductID,
		LotID:       m.LotID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
		TotalCost:   m.TotalCost,
		Reference:   m.Reference,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

func toTransferResponse(r *inventory.TransferResult) dto.TransferResponse {
	return dto.TransferResponse{
		Reference: r.Out.Reference,
		Out:       toMovementResponse(r.Out),
		In:        toMovementResponse(r.In),
	}
}

func toProductStockResponses(list []entity.ProductStock) []dto.ProductStockResponse {
	out := make([]dto.ProductStockResponse, 0, len(list))
	for _, ps := range list {
		out = append(out, dto.ProductStockResponse{
			ProductID: ps.Product.ID,
			SKU:       ps.Product.SKU,
			Name:      ps.Product.Name,
			Quantity:  ps.Quantity,
			MinStock:  ps.Product.MinStock,
			MaxStock:  ps.Product.MaxStock,
		})
	}
	return out
}
