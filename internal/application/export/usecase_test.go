package export_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/pkg/money"
)

type fakeStore struct {
	aggregates map[string]*entity.InvoiceAggregate
	companies  map[string]*entity.Company
	customers  map[string]*entity.Customer
}

func (s *fakeStore) AggregateByID(_ context.Context, id string) (*entity.InvoiceAggregate, error) {
	agg, ok := s.aggregates[id]
	if !ok {
		return nil, &domain.MissingDataError{Entity: "invoice", ID: id}
	}
	return agg, nil
}

func (s *fakeStore) ByID(_ context.Context, id string) (*entity.Company, error) {
	if c, ok := s.companies[id]; ok {
		return c, nil
	}
	return nil, &domain.MissingDataError{Entity: "company", ID: id}
}

type customerStore struct{ s *fakeStore }

func (cs customerStore) ByID(_ context.Context, id string) (*entity.Customer, error) {
	if c, ok := cs.s.customers[id]; ok {
		return c, nil
	}
	return nil, &domain.MissingDataError{Entity: "customer", ID: id}
}

// spy surfaces record the documents they were handed so the test can verify
// that every surface saw the same snapshot.
type spySurfaces struct {
	builderDocs  []*export.Document
	rendererDocs []*export.Document
	rendererQRs  [][]byte
	composed     []string
	qrRequests   []export.QRRequest
}

func (s *spySurfaces) Build(doc *export.Document) ([]byte, error) {
	s.builderDocs = append(s.builderDocs, doc)
	return []byte("<CrossIndustryInvoice/>"), nil
}

func (s *spySurfaces) Render(doc *export.Document, qrPNG []byte) ([]byte, error) {
	s.rendererDocs = append(s.rendererDocs, doc)
	s.rendererQRs = append(s.rendererQRs, qrPNG)
	return []byte("%PDF-fake"), nil
}

func (s *spySurfaces) Compose(mode string, doc *export.Document, pdfBytes, xmlBytes []byte) ([]export.Artifact, error) {
	s.composed = append(s.composed, mode)
	return []export.Artifact{{Filename: doc.Invoice.Number, Bytes: pdfBytes}}, nil
}

func (s *spySurfaces) Generate(req export.QRRequest) ([]byte, error) {
	s.qrRequests = append(s.qrRequests, req)
	return []byte("png"), nil
}

func fixtureStore() *fakeStore {
	items := []entity.LineItem{
		{Position: 1, Description: "Beratung", Quantity: money.MustFromString("8"), UnitPrice: money.MustFromString("10.00"), VATRate: money.MustFromString("19")},
	}
	return &fakeStore{
		aggregates: map[string]*entity.InvoiceAggregate{
			"inv-1": {
				Invoice: &entity.Invoice{
					ID:         "inv-1",
					CompanyID:  "c-1",
					CustomerID: "k-1",
					Number:     "R-2024-001",
					IssueDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
					DueDate:    time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
				},
				Items: items,
			},
		},
		companies: map[string]*entity.Company{
			"c-1": {
				ID:    "c-1",
				Name:  "Webwerk Nord",
				Owner: "Jane Doe",
				Bank: entity.BankAccount{
					IBAN: "DE02120300000000202051",
					BIC:  "BYLADEM1001",
				},
			},
		},
		customers: map[string]*entity.Customer{
			"k-1": {ID: "k-1", Name: "Muster AG"},
		},
	}
}

func newUseCase(store *fakeStore, spy *spySurfaces, opts export.Options) *export.UseCase {
	return export.NewUseCase(
		store, store, customerStore{store},
		spy, spy, spy, spy,
		opts, zerolog.Nop(),
	)
}

func TestExport_SingleSnapshotSharedByAllSurfaces(t *testing.T) {
	store := fixtureStore()
	spy := &spySurfaces{}
	uc := newUseCase(store, spy, export.Options{QRSize: 256})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportHybrid)
	require.NoError(t, err)

	require.Len(t, spy.builderDocs, 1)
	require.Len(t, spy.rendererDocs, 1)
	// Same pointer: totals were computed once, not once per surface.
	assert.Same(t, spy.builderDocs[0], spy.rendererDocs[0])

	doc := spy.builderDocs[0]
	assert.Equal(t, "95.20", doc.Totals.TotalGross.StringFixed(2))

	require.Len(t, spy.qrRequests, 1)
	assert.True(t, spy.qrRequests[0].Amount.Equal(doc.Totals.PaymentAmount()))
	assert.Equal(t, "R-2024-001", spy.qrRequests[0].Remittance)
	assert.Equal(t, "Jane Doe", spy.qrRequests[0].Name)
}

func TestExport_DefaultModeIsHybrid(t *testing.T) {
	spy := &spySurfaces{}
	uc := newUseCase(fixtureStore(), spy, export.Options{})

	_, err := uc.Export(context.Background(), "inv-1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ExportHybrid}, spy.composed)
}

func TestExport_StructuredModeSkipsRenderAndQR(t *testing.T) {
	spy := &spySurfaces{}
	uc := newUseCase(fixtureStore(), spy, export.Options{})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportStructured)
	require.NoError(t, err)
	assert.Len(t, spy.builderDocs, 1)
	assert.Empty(t, spy.rendererDocs)
	assert.Empty(t, spy.qrRequests)
}

func TestExport_VisualModeSkipsBuilder(t *testing.T) {
	spy := &spySurfaces{}
	uc := newUseCase(fixtureStore(), spy, export.Options{})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportVisual)
	require.NoError(t, err)
	assert.Empty(t, spy.builderDocs)
	assert.Len(t, spy.rendererDocs, 1)
}

func TestExport_UnknownMode(t *testing.T) {
	uc := newUseCase(fixtureStore(), &spySurfaces{}, export.Options{})

	_, err := uc.Export(context.Background(), "inv-1", "fax")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExport_MissingInvoice(t *testing.T) {
	uc := newUseCase(fixtureStore(), &spySurfaces{}, export.Options{})

	_, err := uc.Export(context.Background(), "nope", entity.ExportHybrid)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var missing *domain.MissingDataError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "invoice", missing.Entity)
}

func TestExport_SmallBusinessForcesZeroVAT(t *testing.T) {
	store := fixtureStore()
	store.companies["c-1"].SmallBusiness = true
	spy := &spySurfaces{}
	uc := newUseCase(store, spy, export.Options{
		ExemptionNote: "Gemäß § 19 UStG wird keine Umsatzsteuer berechnet.",
	})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportHybrid)
	require.NoError(t, err)

	doc := spy.builderDocs[0]
	assert.True(t, doc.VATExempt)
	assert.Contains(t, doc.ExemptionNote, "§ 19 UStG")
	assert.Equal(t, "0.00", doc.Totals.TotalVAT.StringFixed(2))
	assert.Equal(t, "80.00", doc.Totals.TotalGross.StringFixed(2))
	for _, it := range doc.Items {
		assert.True(t, it.VATRate.IsZero())
	}
	// The stored aggregate keeps its original rates.
	assert.Equal(t, "19", store.aggregates["inv-1"].Items[0].VATRate.String())
}

func TestExport_OverpaymentSkipsQR(t *testing.T) {
	store := fixtureStore()
	agg := store.aggregates["inv-1"]
	agg.DownPayments = []entity.DownPayment{
		{Amount: money.MustFromString("60.00")},
		{Amount: money.MustFromString("60.00")},
	}
	spy := &spySurfaces{}
	uc := newUseCase(store, spy, export.Options{})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportHybrid)
	require.NoError(t, err)

	assert.Empty(t, spy.qrRequests)
	require.Len(t, spy.rendererQRs, 1)
	assert.Nil(t, spy.rendererQRs[0])

	doc := spy.rendererDocs[0]
	assert.Equal(t, "-24.80", doc.Totals.AmountDue.StringFixed(2))
}

func TestExport_FooterFallback(t *testing.T) {
	store := fixtureStore()
	spy := &spySurfaces{}
	uc := newUseCase(store, spy, export.Options{FooterText: "Vielen Dank für Ihren Auftrag."})

	_, err := uc.Export(context.Background(), "inv-1", entity.ExportVisual)
	require.NoError(t, err)
	assert.Equal(t, "Vielen Dank für Ihren Auftrag.", spy.rendererDocs[0].FooterText)

	store.aggregates["inv-1"].Invoice.FooterText = "Individueller Text."
	_, err = uc.Export(context.Background(), "inv-1", entity.ExportVisual)
	require.NoError(t, err)
	assert.Equal(t, "Individueller Text.", spy.rendererDocs[1].FooterText)
}

func TestQRPNG_UsesPaymentAmountAndConfiguredSize(t *testing.T) {
	store := fixtureStore()
	spy := &spySurfaces{}
	uc := newUseCase(store, spy, export.Options{QRSize: 512})

	png, err := uc.QRPNG(context.Background(), "inv-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)

	require.Len(t, spy.qrRequests, 1)
	assert.Equal(t, 512, spy.qrRequests[0].Size)
	assert.Equal(t, "95.20", spy.qrRequests[0].Amount.StringFixed(2))

	_, err = uc.QRPNG(context.Background(), "inv-1", 128)
	require.NoError(t, err)
	assert.Equal(t, 128, spy.qrRequests[1].Size)
}
