package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jkellner/faktura-api/internal/application/dto"
	"github.com/jkellner/faktura-api/internal/application/export"
)

// RouterDeps are the router's dependencies.
type RouterDeps struct {
	ExportUC *export.UseCase
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Service: "faktura-api"})
	})

	api := app.Group("/api")

	invoices := api.Group("/invoices")
	exportHandler := NewExportHandler(deps.ExportUC)
	invoices.Get("/:id/export", exportHandler.Export)
	invoices.Get("/:id/qr", exportHandler.QR)
}
