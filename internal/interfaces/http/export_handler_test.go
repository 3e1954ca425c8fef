package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkellner/faktura-api/internal/application/dto"
	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/internal/infrastructure/cii"
	"github.com/jkellner/faktura-api/internal/infrastructure/girocode"
	"github.com/jkellner/faktura-api/internal/infrastructure/pdf"
	apihttp "github.com/jkellner/faktura-api/internal/interfaces/http"
	"github.com/jkellner/faktura-api/pkg/money"
)

type memStore struct {
	agg      *entity.InvoiceAggregate
	company  *entity.Company
	customer *entity.Customer
}

func (m *memStore) AggregateByID(_ context.Context, id string) (*entity.InvoiceAggregate, error) {
	if m.agg == nil || m.agg.Invoice.ID != id {
		return nil, &domain.MissingDataError{Entity: "invoice", ID: id}
	}
	return m.agg, nil
}

func (m *memStore) ByID(_ context.Context, id string) (*entity.Company, error) {
	if m.company == nil || m.company.ID != id {
		return nil, &domain.MissingDataError{Entity: "company", ID: id}
	}
	return m.company, nil
}

type memCustomers struct{ m *memStore }

func (mc memCustomers) ByID(_ context.Context, id string) (*entity.Customer, error) {
	if mc.m.customer == nil || mc.m.customer.ID != id {
		return nil, &domain.MissingDataError{Entity: "customer", ID: id}
	}
	return mc.m.customer, nil
}

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	store := &memStore{
		agg: &entity.InvoiceAggregate{
			Invoice: &entity.Invoice{
				ID:         "inv-1",
				CompanyID:  "c-1",
				CustomerID: "k-1",
				Number:     "R-2024-001",
				IssueDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				DueDate:    time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
			},
			Items: []entity.LineItem{
				{Position: 1, Description: "Beratung", Quantity: money.MustFromString("8"), UnitPrice: money.MustFromString("10.00"), VATRate: money.MustFromString("19")},
			},
		},
		company: &entity.Company{
			ID:    "c-1",
			Name:  "Webwerk Nord",
			Owner: "Jane Doe",
			Bank:  entity.BankAccount{IBAN: "DE02120300000000202051", BIC: "BYLADEM1001"},
		},
		customer: &entity.Customer{ID: "k-1", Name: "Muster AG"},
	}

	uc := export.NewUseCase(
		store, store, memCustomers{store},
		cii.NewBuilder(),
		pdf.NewRenderer(entity.ThemeClassic),
		pdf.NewComposer(),
		girocode.NewGenerator(),
		export.Options{QRSize: girocode.DefaultSize},
		zerolog.Nop(),
	)

	app := fiber.New()
	apihttp.Router(app, apihttp.RouterDeps{ExportUC: uc})
	return app
}

func TestExportEndpoint_HybridPDF(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/inv-1/export?mode=hybrid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `rechnung_R-2024-001.pdf`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(body[:5]))
}

func TestExportEndpoint_StructuredXML(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/inv-1/export?mode=xml", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CrossIndustryInvoice")
}

func TestExportEndpoint_UnknownMode(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/inv-1/export?mode=fax", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestExportEndpoint_UnknownInvoice(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/nope/export", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestQREndpoint_PNG(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/inv-1/qr?size=128", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, len(body) > 8)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(body[:8]))
}

func TestQREndpoint_BadSize(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/api/invoices/inv-1/qr?size=banana", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}
