package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/entity"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
)

// LocationUseCase administra la jerarquía Bodega → Sección → Lote.
// Las eliminaciones verifican dependientes y stock dentro de la misma transacción que borra.
type LocationUseCase struct {
	txRunner repository.TxRunner
	repos    repository.Repositories
	log      zerolog.Logger
}

// NewLocationUseCase construye el caso de uso. repos son los repositorios fuera de transacción (lecturas).
func NewLocationUseCase(txRunner repository.TxRunner, repos repository.Repositories, log zerolog.Logger) *LocationUseCase {
	return &LocationUseCase{
		txRunner: txRunner,
		repos:    repos,
		log:      log.With().Str("component", "locations").Logger(),
	}
}

// ── bodegas ──────────────────────────────────────────────────────────────────

// CreateWarehouse crea una bodega. Falla con ErrDuplicateKey si el código ya existe.
func (uc *LocationUseCase) CreateWarehouse(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("código y nombre requeridos: %w", domain.ErrInvalidInput)
	}
	kind := in.Kind
	if kind == "" {
		kind = entity.WarehouseKindBranch
	}
	if !entity.ValidWarehouseKind(kind) {
		return nil, fmt.Errorf("tipo de bodega %q: %w", kind, domain.ErrInvalidInput)
	}
	now := time.Now()
	w := &entity.Warehouse{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Kind:      kind,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if err := ensureAbsent(repos.Warehouses.GetByCode(ctx, code)); err != nil {
			return fmt.Errorf("bodega %s: %w", code, err)
		}
		return repos.Warehouses.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("warehouse_id", w.ID).Str("code", w.Code).Msg("bodega creada")
	return toWarehouseResponse(w), nil
}

// GetWarehouse obtiene una bodega por ID.
func (uc *LocationUseCase) GetWarehouse(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// ListWarehouses lista bodegas ordenadas por nombre.
func (uc *LocationUseCase) ListWarehouses(ctx context.Context, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repos.Warehouses.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// UpdateWarehouse actualiza nombre, tipo o dirección. El código no cambia.
func (uc *LocationUseCase) UpdateWarehouse(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	var out *entity.Warehouse
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		w, err := repos.Warehouses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return fmt.Errorf("nombre vacío: %w", domain.ErrInvalidInput)
			}
			w.Name = strings.TrimSpace(*in.Name)
		}
		if in.Kind != nil {
			if !entity.ValidWarehouseKind(*in.Kind) {
				return fmt.Errorf("tipo de bodega %q: %w", *in.Kind, domain.ErrInvalidInput)
			}
			w.Kind = *in.Kind
		}
		if in.Address != nil {
			w.Address = *in.Address
		}
		w.UpdatedAt = time.Now()
		out = w
		return repos.Warehouses.Update(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(out), nil
}

// DeleteWarehouse elimina una bodega vacía. Falla con ErrHasDependentStock si algún lote
// tiene stock o si aún tiene secciones; no hay borrado en cascada.
func (uc *LocationUseCase) DeleteWarehouse(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Warehouses.GetByID(ctx, id); err != nil {
			return err
		}
		total, err := repos.Stock.WarehouseTotal(ctx, id)
		if err != nil {
			return err
		}
		if !total.IsZero() {
			return fmt.Errorf("bodega %s tiene %s unidades: %w", id, total, domain.ErrHasDependentStock)
		}
		n, err := repos.Sections.CountByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("bodega %s tiene %d secciones: %w", id, n, domain.ErrHasDependentStock)
		}
		return repos.Warehouses.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("warehouse_id", id).Msg("bodega eliminada")
	return nil
}

// ── secciones ────────────────────────────────────────────────────────────────

// CreateSection crea una sección. Falla con ErrDuplicateKey si el código ya existe en la bodega.
func (uc *LocationUseCase) CreateSection(ctx context.Context, in dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	code := strings.TrimSpace(in.Code)
	if in.WarehouseID == "" || code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("bodega, código y nombre requeridos: %w", domain.ErrInvalidInput)
	}
	now := time.Now()
	s := &entity.Section{
		ID:           uuid.NewString(),
		WarehouseID:  in.WarehouseID,
		Code:         code,
		Name:         strings.TrimSpace(in.Name),
		AllowedBrand: in.AllowedBrand,
		AllowedType:  in.AllowedType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Warehouses.GetByID(ctx, in.WarehouseID); err != nil {
			return err
		}
		if err := ensureAbsent(repos.Sections.GetByCode(ctx, in.WarehouseID, code)); err != nil {
			return fmt.Errorf("sección %s: %w", code, err)
		}
		return repos.Sections.Create(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return toSectionResponse(s), nil
}

// GetSection obtiene una sección por ID.
func (uc *LocationUseCase) GetSection(ctx context.Context, id string) (*dto.SectionResponse, error) {
	s, err := uc.repos.Sections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSectionResponse(s), nil
}

// ListSections lista las secciones de una bodega.
func (uc *LocationUseCase) ListSections(ctx context.Context, warehouseID string) ([]dto.SectionResponse, error) {
	if _, err := uc.repos.Warehouses.GetByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Sections.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SectionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSectionResponse(s))
	}
	return out, nil
}

// UpdateSection actualiza nombre y metadatos informativos.
func (uc *LocationUseCase) UpdateSection(ctx context.Context, id string, in dto.UpdateSectionRequest) (*dto.SectionResponse, error) {
	var out *entity.Section
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		s, err := repos.Sections.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return fmt.Errorf("nombre vacío: %w", domain.ErrInvalidInput)
			}
			s.Name = strings.TrimSpace(*in.Name)
		}
		if in.AllowedBrand != nil {
			s.AllowedBrand = *in.AllowedBrand
		}
		if in.AllowedType != nil {
			s.AllowedType = *in.AllowedType
		}
		s.UpdatedAt = time.Now()
		out = s
		return repos.Sections.Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return toSectionResponse(out), nil
}

// DeleteSection elimina una sección sin lotes ni stock.
func (uc *LocationUseCase) DeleteSection(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Sections.GetByID(ctx, id); err != nil {
			return err
		}
		total, err := repos.Stock.SectionTotal(ctx, id)
		if err != nil {
			return err
		}
		if !total.IsZero() {
			return fmt.Errorf("sección %s tiene %s unidades: %w", id, total, domain.ErrHasDependentStock)
		}
		n, err := repos.Lots.CountBySection(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("sección %s tiene %d lotes: %w", id, n, domain.ErrHasDependentStock)
		}
		return repos.Sections.Delete(ctx, id)
	})
}

// ── lotes ────────────────────────────────────────────────────────────────────

// CreateLot crea un lote activo. Falla con ErrDuplicateKey si el código ya existe en la sección.
func (uc *LocationUseCase) CreateLot(ctx context.Context, in dto.CreateLotRequest) (*dto.LotResponse, error) {
	code := strings.TrimSpace(in.Code)
	if in.SectionID == "" || code == "" {
		return nil, fmt.Errorf("sección y código requeridos: %w", domain.ErrInvalidInput)
	}
	var out *entity.Lot
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		sec, err := repos.Sections.GetByID(ctx, in.SectionID)
		if err != nil {
			return err
		}
		if err := ensureAbsent(repos.Lots.GetByCode(ctx, in.SectionID, code)); err != nil {
			return fmt.Errorf("lote %s: %w", code, err)
		}
		now := time.Now()
		out = &entity.Lot{
			ID:          uuid.NewString(),
			SectionID:   sec.ID,
			WarehouseID: sec.WarehouseID,
			Code:        code,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repos.Lots.Create(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	return toLotResponse(out), nil
}

// GetLot obtiene un lote por ID.
func (uc *LocationUseCase) GetLot(ctx context.Context, id string) (*dto.LotResponse, error) {
	l, err := uc.repos.Lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLotResponse(l), nil
}

// ListLots lista los lotes de una sección.
func (uc *LocationUseCase) ListLots(ctx context.Context, sectionID string) ([]dto.LotResponse, error) {
	if _, err := uc.repos.Sections.GetByID(ctx, sectionID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Lots.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LotResponse, 0, len(list))
	for _, l := range list {
		out = append(out, *toLotResponse(l))
	}
	return out, nil
}

// UpdateLot cambia el código del lote dentro de su sección.
func (uc *LocationUseCase) UpdateLot(ctx context.Context, id string, in dto.UpdateLotRequest) (*dto.LotResponse, error) {
	var out *entity.Lot
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		l, err := repos.Lots.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Code != nil {
			code := strings.TrimSpace(*in.Code)
			if code == "" {
				return fmt.Errorf("código vacío: %w", domain.ErrInvalidInput)
			}
			if code != l.Code {
				if err := ensureAbsent(repos.Lots.GetByCode(ctx, l.SectionID, code)); err != nil {
					return fmt.Errorf("lote %s: %w", code, err)
				}
			}
			l.Code = code
		}
		l.UpdatedAt = time.Now()
		out = l
		return repos.Lots.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return toLotResponse(out), nil
}

// SetLotActive activa o desactiva un lote. Solo se desactiva un lote vacío.
func (uc *LocationUseCase) SetLotActive(ctx context.Context, id string, active bool) (*dto.LotResponse, error) {
	var out *entity.Lot
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		l, err := repos.Lots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !active {
			total, err := repos.Stock.LotTotal(ctx, id)
			if err != nil {
				return err
			}
			if !total.IsZero() {
				return fmt.Errorf("lote %s tiene %s unidades: %w", l.Code, total, domain.ErrHasDependentStock)
			}
		}
		l.Active = active
		l.UpdatedAt = time.Now()
		out = l
		return repos.Lots.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return toLotResponse(out), nil
}

// DeleteLot elimina un lote sin stock ni historial. Un lote con movimientos se desactiva en su lugar.
func (uc *LocationUseCase) DeleteLot(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		l, err := repos.Lots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		total, err := repos.Stock.LotTotal(ctx, id)
		if err != nil {
			return err
		}
		if !total.IsZero() {
			return fmt.Errorf("lote %s tiene %s unidades: %w", l.Code, total, domain.ErrHasDependentStock)
		}
		n, err := repos.Movements.CountByLot(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("lote %s tiene %d movimientos: %w", l.Code, n, domain.ErrHasDependentStock)
		}
		if err := repos.Stock.DeleteEmptyByLot(ctx, id); err != nil {
			return err
		}
		return repos.Lots.Delete(ctx, id)
	})
}

// ensureAbsent convierte el resultado de un GetByCode en nil si no existe o ErrDuplicateKey si existe.
func ensureAbsent[T any](found *T, err error) error {
	if err == nil && found != nil {
		return domain.ErrDuplicateKey
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Kind:      w.Kind,
		Address:   w.Address,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func toSectionResponse(s *entity.Section) *dto.SectionResponse {
	return &dto.SectionResponse{
		ID:           s.ID,
		WarehouseID:  s.WarehouseID,
		Code:         s.Code,
		Name:         s.Name,
		AllowedBrand: s.AllowedBrand,
		AllowedType:  s.AllowedType,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toLotResponse(l *entity.Lot) *dto.LotResponse {
	return &dto.LotResponse{
		ID:          l.ID,
		SectionID:   l.SectionID,
		WarehouseID: l.WarehouseID,
		Code:        l.Code,
		Active:      l.Active,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
