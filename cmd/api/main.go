package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
	"github.com/jhoicas/taller-inventario/internal/application/location"
	"github.com/jhoicas/taller-inventario/internal/application/usecase"
	"github.com/jhoicas/taller-inventario/internal/domain/repository"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/events"
	"github.com/jhoicas/taller-inventario/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/taller-inventario/internal/infrastructure/pdf"
	infraredis "github.com/jhoicas/taller-inventario/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/taller-inventario/internal/interfaces/http"
	"github.com/jhoicas/taller-inventario/pkg/config"
	"github.com/jhoicas/taller-inventario/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer store.close()

	// Notificaciones post-commit: bus en proceso → caché y pub/sub en Redis.
	bus := events.NewBus(log.Zerolog())
	var stockQuery repository.StockQueryRepository = store.stockQuery
	if cfg.Redis.Enabled {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()

		cache := infraredis.NewStockCache(stockQuery, rdb, cfg.Redis.CacheTTL, log.Zerolog())
		stockQuery = cache
		bus.Subscribe("stock_cache", cache.NotifyStockChanged)
		bus.Subscribe("redis_publisher", infraredis.NewStockPublisher(rdb, cfg.Redis.Channel, log.Zerolog()).NotifyStockChanged)
	}

	engine := inventory.NewMovementEngine(store.tx, bus, log.Zerolog())
	stockQuerySvc := inventory.NewStockQueryService(stockQuery, store.repos)
	productUC := usecase.NewProductUseCase(store.repos.Products)
	locationUC := location.NewLocationUseCase(store.tx, store.repos, log.Zerolog())

	// Intake de compras y ventas desde Kafka.
	if cfg.Kafka.Enabled {
		listener := kafka.NewListener(kafka.NewReader(cfg.Kafka), engine, log.Zerolog())
		defer listener.Close()
		go listener.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Taller Inventario API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:       productUC,
		LocationUC:      locationUC,
		Engine:          engine,
		StockQuery:      stockQuerySvc,
		SlipRenderer:    infrapdf.NewTransferSlipRenderer(cfg.App.Name),
		JWTSecret:       cfg.JWT.Secret,
		RateLimitMax:    cfg.HTTP.RateLimitMax,
		RateLimitWindow: cfg.HTTP.RateLimitWindow,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
