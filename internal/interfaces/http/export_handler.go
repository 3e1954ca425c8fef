package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jkellner/faktura-api/internal/application/dto"
	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

// ExportHandler serves invoice export requests.
type ExportHandler struct {
	uc *export.UseCase
}

func NewExportHandler(uc *export.UseCase) *ExportHandler {
	return &ExportHandler{uc: uc}
}

// Export produces the invoice artifact in the requested mode.
// GET /api/invoices/:id/export?mode=visual|hybrid|xml|both
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invoice id required"})
	}

	mode := c.Query("mode", entity.ExportHybrid)
	switch mode {
	case entity.ExportVisual, entity.ExportHybrid, entity.ExportStructured, entity.ExportBoth:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "unknown export mode: " + mode})
	}

	artifacts, err := h.uc.Export(c.Context(), id, mode)
	if err != nil {
		return errorResponse(c, err)
	}

	// One artifact per mode: "both" arrives pre-packed as a ZIP.
	art := artifacts[0]
	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+art.Filename+`"`)
	return c.Send(art.Bytes)
}

// QR renders just the payment GiroCode as PNG.
// GET /api/invoices/:id/qr?size=256
func (h *ExportHandler) QR(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invoice id required"})
	}

	size := 0
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "size must be a positive integer"})
		}
		size = parsed
	}

	png, err := h.uc.QRPNG(c.Context(), id, size)
	if err != nil {
		return errorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// errorResponse maps domain errors onto HTTP statuses. Incomplete or invalid
// invoice data is the client's problem (422), a missing aggregate is 404,
// everything else is a server fault.
func errorResponse(c *fiber.Ctx, err error) error {
	var encErr *domain.EncodingError
	var embedErr *domain.EmbeddingError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &encErr):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "QR_ENCODING", Message: err.Error()})
	case errors.As(err, &embedErr):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "EMBEDDING", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
