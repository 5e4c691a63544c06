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

	"github.com/tu-usuario/planta-ops/internal/application/barcode"
	"github.com/tu-usuario/planta-ops/internal/application/inventory"
	infraaudit "github.com/tu-usuario/planta-ops/internal/infrastructure/audit"
	"github.com/tu-usuario/planta-ops/internal/infrastructure/notify"
	"github.com/tu-usuario/planta-ops/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/planta-ops/internal/interfaces/http"
	"github.com/tu-usuario/planta-ops/pkg/config"
	"github.com/tu-usuario/planta-ops/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	lineRepo := postgres.NewDemandLineRepository(pool)
	guideRepo := postgres.NewGuideRepository(pool)
	stepRepo := postgres.NewStepRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	auditor := infraaudit.NewRecorder(pool, log)
	notifier := notify.NewNotifier(pool, permissionRepo, log)
	alerts := inventory.NewAlertTrigger(notifier, log)
	allocator := barcode.NewAllocator()

	orchestrator := inventory.NewOrchestrator(
		txRunner, itemRepo, stepRepo, guideRepo,
		allocator, permissionRepo, auditor, alerts, log,
	)
	query := inventory.NewQueryService(itemRepo, ledgerRepo, lineRepo, guideRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Planta Ops API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orchestrator: orchestrator,
		Query:        query,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
