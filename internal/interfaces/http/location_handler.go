package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/location"
)

// LocationHandler maneja bodegas, secciones y lotes (protegido).
type LocationHandler struct {
	uc *location.LocationUseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *location.LocationUseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// ── Bodegas ───────────────────────────────────────────────────────────────────

// CreateWarehouse godoc
// @Summary      Crear bodega
// @Tags         warehouses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWarehouseRequest  true  "Datos de la bodega"
// @Success      201   {object}  dto.WarehouseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouses [post]
func (h *LocationHandler) CreateWarehouse(c *fiber.Ctx) error {
	var in dto.CreateWarehouseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateWarehouse(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetWarehouse godoc
// @Summary      Obtener bodega por ID
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.WarehouseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [get]
func (h *LocationHandler) GetWarehouse(c *fiber.Ctx) error {
	out, err := h.uc.GetWarehouse(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListWarehouses godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.WarehouseListResponse
// @Router       /api/warehouses [get]
func (h *LocationHandler) ListWarehouses(c *fiber.Ctx) error {
	p := page(c)
	out, err := h.uc.ListWarehouses(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateWarehouse godoc
// @Summary      Actualizar bodega
// @Tags         warehouses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la bodega"
// @Param        body  body  dto.UpdateWarehouseRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.WarehouseResponse
// @Router       /api/warehouses/{id} [put]
func (h *LocationHandler) UpdateWarehouse(c *fiber.Ctx) error {
	var in dto.UpdateWarehouseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateWarehouse(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteWarehouse godoc
// @Summary      Eliminar bodega
// @Description  Rechazada con 409 si contiene secciones o stock.
// @Tags         warehouses
// @Security     Bearer
// @Param        id   path  string  true  "ID de la bodega"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [delete]
func (h *LocationHandler) DeleteWarehouse(c *fiber.Ctx) error {
	if err := h.uc.DeleteWarehouse(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSections godoc
// @Summary      Secciones de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {array}  dto.SectionResponse
// @Router       /api/warehouses/{id}/sections [get]
func (h *LocationHandler) ListSections(c *fiber.Ctx) error {
	out, err := h.uc.ListSections(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// CreateSection godoc
// @Summary      Crear sección
// @Tags         sections
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSectionRequest  true  "Datos de la sección"
// @Success      201   {object}  dto.SectionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sections [post]
func (h *LocationHandler) CreateSection(c *fiber.Ctx) error {
	var in dto.CreateSectionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateSection(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetSection godoc
// @Summary      Obtener sección
// @Tags         sections
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sección"
// @Success      200  {object}  dto.SectionResponse
// @Router       /api/sections/{id} [get]
func (h *LocationHandler) GetSection(c *fiber.Ctx) error {
	out, err := h.uc.GetSection(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateSection godoc
// @Summary      Actualizar sección
// @Tags         sections
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sección"
// @Param        body  body  dto.UpdateSectionRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.SectionResponse
// @Router       /api/sections/{id} [put]
func (h *LocationHandler) UpdateSection(c *fiber.Ctx) error {
	var in dto.UpdateSectionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateSection(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteSection godoc
// @Summary      Eliminar sección
// @Tags         sections
// @Security     Bearer
// @Param        id   path  string  true  "ID de la sección"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sections/{id} [delete]
func (h *LocationHandler) DeleteSection(c *fiber.Ctx) error {
	if err := h.uc.DeleteSection(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListLots godoc
// @Summary      Lotes de una sección
// @Tags         sections
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sección"
// @Success      200  {array}  dto.LotResponse
// @Router       /api/sections/{id}/lots [get]
func (h *LocationHandler) ListLots(c *fiber.Ctx) error {
	out, err := h.uc.ListLots(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

// CreateLot godoc
// @Summary      Crear lote
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLotRequest  true  "Sección y código"
// @Success      201   {object}  dto.LotResponse
// @Router       /api/lots [post]
func (h *LocationHandler) CreateLot(c *fiber.Ctx) error {
	var in dto.CreateLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateLot(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetLot godoc
// @Summary      Obtener lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Router       /api/lots/{id} [get]
func (h *LocationHandler) GetLot(c *fiber.Ctx) error {
	out, err := h.uc.GetLot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateLot godoc
// @Summary      Renombrar lote
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.UpdateLotRequest  true  "Nuevo código"
// @Success      200   {object}  dto.LotResponse
// @Router       /api/lots/{id} [put]
func (h *LocationHandler) UpdateLot(c *fiber.Ctx) error {
	var in dto.UpdateLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateLot(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeactivateLot godoc
// @Summary      Desactivar lote
// @Description  Solo lotes vacíos. El historial se conserva.
// @Tags         lots
// @Security     Bearer
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/deactivate [post]
func (h *LocationHandler) DeactivateLot(c *fiber.Ctx) error {
	out, err := h.uc.SetLotActive(c.UserContext(), c.Params("id"), false)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ActivateLot godoc
// @Summary      Reactivar lote
// @Tags         lots
// @Security     Bearer
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Router       /api/lots/{id}/activate [post]
func (h *LocationHandler) ActivateLot(c *fiber.Ctx) error {
	out, err := h.uc.SetLotActive(c.UserContext(), c.Params("id"), true)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteLot godoc
// @Summary      Eliminar lote
// @Description  Rechazada con 409 si el lote tiene stock o historial de movimientos.
// @Tags         lots
// @Security     Bearer
// @Param        id   path  string  true  "ID del lote"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [delete]
func (h *LocationHandler) DeleteLot(c *fiber.Ctx) error {
	if err := h.uc.DeleteLot(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
