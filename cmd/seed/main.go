// seed carga ubicaciones de ejemplo y un catálogo de repuestos con su existencia inicial.
//
// Uso: go run ./cmd/seed [-catalog catalogo.csv] [-charset latin1]
// Sin -catalog usa un catálogo de demostración. Es idempotente: se puede correr varias veces.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
	"github.com/jhoicas/taller-inventario/internal/domain"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-inventario/pkg/config"
	"github.com/jhoicas/taller-inventario/pkg/jwt"
	"github.com/jhoicas/taller-inventario/pkg/logger"
)

func main() {
	catalogPath := flag.String("catalog", "", "CSV del catálogo (sku;nombre;unidad;precio;minimo;maximo;existencia;costo)")
	charset := flag.String("charset", "utf-8", "charset del CSV: utf-8, latin1, windows-1252")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	lines := demoCatalog()
	if *catalogPath != "" {
		f, err := os.Open(*catalogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir catálogo")
		}
		defer f.Close()
		r, err := decodeCharset(f, *charset)
		if err != nil {
			log.Fatal().Err(err).Msg("charset")
		}
		if lines, err = parseCatalog(r); err != nil {
			log.Fatal().Err(err).Msg("leer catálogo")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, log.Zerolog()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	repos := postgres.NewRepositories(pool)
	txRunner := postgres.NewTxRunner(pool)
	s := &seeder{
		repos:     repos,
		locations: location.NewLocationUseCase(txRunner, repos, log.Zerolog()),
		products:  usecase.NewProductUseCase(repos.Products),
		engine:    inventory.NewMovementEngine(txRunner, inventory.NopNotifier{}, log.Zerolog()),
	}

	mainLot, err := s.locationTree(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ubicaciones")
	}
	for _, l := range lines {
		if err := s.product(ctx, l, mainLot); err != nil {
			log.Error().Err(err).Str("sku", l.Product.SKU).Msg("producto no cargado")
			continue
		}
		log.Info().Str("sku", l.Product.SKU).Str("initial", l.Initial.String()).Msg("producto cargado")
	}

	if cfg.JWT.Secret != "" && cfg.App.Env != "production" {
		for _, role := range []string{"admin", "bodeguero", "vendedor"} {
			tok, err := jwt.Generate(cfg.JWT.Secret, "seed-"+role, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
			if err != nil {
				log.Fatal().Err(err).Msg("generar token")
			}
			fmt.Printf("%-10s Bearer %s\n", role, tok)
		}
	}
}

type seeder struct {
	repos     repository.Repositories
	locations *location.LocationUseCase
	products  *usecase.ProductUseCase
	engine    *inventory.MovementEngine
}

// locationTree crea Principal, Sucursal Norte y En tránsito con sus secciones y lotes.
// Devuelve el lote de recepción de la bodega principal.
func (s *seeder) locationTree(ctx context.Context) (string, error) {
	tree := []struct {
		code, name, kind string
		section          string
		lots             []string
	}{
		{"PRIN", "Bodega principal", "principal", "REP", []string{"A1", "A2"}},
		{"NORTE", "Sucursal Norte", "branch", "MOS", []string{"B1"}},
		{"TRANS", "En tránsito", "in_transit", "CAM", []string{"T1"}},
	}
	var receiving string
	for _, w := range tree {
		wh, err := s.repos.Warehouses.GetByCode(ctx, w.code)
		if errors.Is(err, domain.ErrNotFound) {
			var out *dto.WarehouseResponse
			out, err = s.locations.CreateWarehouse(ctx, dto.CreateWarehouseRequest{Code: w.code, Name: w.name, Kind: w.kind})
			if err == nil {
				wh, err = s.repos.Warehouses.GetByID(ctx, out.ID)
			}
		}
		if err != nil {
			return "", fmt.Errorf("bodega %s: %w", w.code, err)
		}

		sec, err := s.repos.Sections.GetByCode(ctx, wh.ID, w.section)
		if errors.Is(err, domain.ErrNotFound) {
			var out *dto.SectionResponse
			out, err = s.locations.CreateSection(ctx, dto.CreateSectionRequest{WarehouseID: wh.ID, Code: w.section, Name: "Repuestos " + w.section})
			if err == nil {
				sec, err = s.repos.Sections.GetByID(ctx, out.ID)
			}
		}
		if err != nil {
			return "", fmt.Errorf("sección %s/%s: %w", w.code, w.section, err)
		}

		for _, code := range w.lots {
			lot, err := s.repos.Lots.GetByCode(ctx, sec.ID, code)
			if errors.Is(err, domain.ErrNotFound) {
				var out *dto.LotResponse
				if out, err = s.locations.CreateLot(ctx, dto.CreateLotRequest{SectionID: sec.ID, Code: code}); err == nil {
					lot, err = s.repos.Lots.GetByID(ctx, out.ID)
				}
			}
			if err != nil {
				return "", fmt.Errorf("lote %s: %w", code, err)
			}
			if receiving == "" {
				receiving = lot.ID
			}
		}
	}
	return receiving, nil
}

// product crea el producto si no existe y registra la existencia inicial una sola vez.
func (s *seeder) product(ctx context.Context, l catalogLine, lotID string) error {
	p, err := s.repos.Products.GetBySKU(ctx, l.Product.SKU)
	if errors.Is(err, domain.ErrNotFound) {
		var out *dto.ProductResponse
		if out, err = s.products.Create(ctx, l.Product); err == nil {
			p, err = s.repos.Products.GetByID(ctx, out.ID)
		}
	}
	if err != nil {
		return err
	}
	if !l.Initial.GreaterThan(decimal.Zero) {
		return nil
	}
	_, err = s.engine.Receive(ctx, inventory.ReceiveInput{
		ProductID:      p.ID,
		LotID:          lotID,
		Quantity:       l.Initial,
		UnitCost:       l.UnitCost,
		Reference:      "SALDO-INICIAL",
		IdempotencyKey: "seed:" + p.SKU,
		UserID:         "seed",
	})
	return err
}
