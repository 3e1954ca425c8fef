package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/infrastructure/cii"
	"github.com/jkellner/faktura-api/internal/infrastructure/girocode"
	infrapdf "github.com/jkellner/faktura-api/internal/infrastructure/pdf"
	"github.com/jkellner/faktura-api/internal/infrastructure/postgres"
	httpRouter "github.com/jkellner/faktura-api/internal/interfaces/http"
	"github.com/jkellner/faktura-api/pkg/config"
	"github.com/jkellner/faktura-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)

	exportUC := export.NewUseCase(
		invoiceRepo, companyRepo, customerRepo,
		cii.NewBuilder(),
		infrapdf.NewRenderer(cfg.Export.DefaultTheme),
		infrapdf.NewComposer(),
		girocode.NewGenerator(),
		export.Options{
			FooterText:    cfg.Export.FooterText,
			ExemptionNote: cfg.Export.ExemptionNote,
			QRSize:        cfg.Export.QRSize,
		},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{ExportUC: exportUC})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, closing server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
