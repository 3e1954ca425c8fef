package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/billing"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

// Options carry the configured defaults the pipeline falls back to when the
// invoice itself does not specify a value.
type Options struct {
	FooterText    string // standard closing phrase
	ExemptionNote string // legal note printed for VAT-exempt issuers
	QRSize        int    // rendered GiroCode edge length in pixels
}

// UseCase drives one invoice export: load the aggregate once, compute the
// totals once, then hand the same snapshot to every output surface. The PDF
// text, the embedded XML and the QR payload can therefore never disagree.
type UseCase struct {
	invoices  InvoiceRepository
	companies CompanyRepository
	customers CustomerRepository

	builder  DocumentBuilder
	renderer Renderer
	composer Composer
	qr       QRGenerator

	opts Options
	log  zerolog.Logger
}

func NewUseCase(
	invoices InvoiceRepository,
	companies CompanyRepository,
	customers CustomerRepository,
	builder DocumentBuilder,
	renderer Renderer,
	composer Composer,
	qr QRGenerator,
	opts Options,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		invoices:  invoices,
		companies: companies,
		customers: customers,
		builder:   builder,
		renderer:  renderer,
		composer:  composer,
		qr:        qr,
		opts:      opts,
		log:       log.With().Str("component", "export").Logger(),
	}
}

// Export produces the artifact(s) for one invoice in the given mode. An empty
// mode defaults to the hybrid container.
func (uc *UseCase) Export(ctx context.Context, invoiceID, mode string) ([]Artifact, error) {
	if mode == "" {
		mode = entity.ExportHybrid
	}
	switch mode {
	case entity.ExportVisual, entity.ExportHybrid, entity.ExportStructured, entity.ExportBoth:
	default:
		return nil, fmt.Errorf("%w: unknown export mode %q", domain.ErrInvalidInput, mode)
	}

	start := time.Now()
	doc, err := uc.assemble(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var xmlBytes []byte
	if mode != entity.ExportVisual {
		xmlBytes, err = uc.builder.Build(doc)
		if err != nil {
			return nil, fmt.Errorf("build e-invoice: %w", err)
		}
	}

	var pdfBytes []byte
	if mode != entity.ExportStructured {
		qrPNG, err := uc.giroCode(doc)
		if err != nil {
			return nil, err
		}
		pdfBytes, err = uc.renderer.Render(doc, qrPNG)
		if err != nil {
			return nil, fmt.Errorf("render invoice: %w", err)
		}
	}

	artifacts, err := uc.composer.Compose(mode, doc, pdfBytes, xmlBytes)
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("number", doc.Invoice.Number).
		Str("mode", mode).
		Str("amount_due", doc.Totals.AmountDue.StringFixed(2)).
		Time("snapshot_at", doc.Invoice.UpdatedAt).
		Dur("duration", time.Since(start)).
		Msg("invoice exported")

	return artifacts, nil
}

// QRPNG produces just the GiroCode for an invoice, e.g. to show on screen
// before the document is sent. A non-positive payment amount is an error
// here, unlike in the PDF where the code is simply omitted.
func (uc *UseCase) QRPNG(ctx context.Context, invoiceID string, size int) ([]byte, error) {
	doc, err := uc.assemble(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = uc.opts.QRSize
	}
	return uc.qr.Generate(QRRequest{
		BIC:        doc.Company.Bank.BIC,
		Name:       doc.Company.BeneficiaryName(),
		IBAN:       doc.Company.Bank.IBAN,
		Amount:     doc.Totals.PaymentAmount(),
		Remittance: doc.Remittance(),
		Size:       size,
	})
}

// assemble loads the aggregate and computes the totals, exactly once.
func (uc *UseCase) assemble(ctx context.Context, invoiceID string) (*Document, error) {
	agg, err := uc.invoices.AggregateByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if agg == nil || agg.Invoice == nil {
		return nil, &domain.MissingDataError{Entity: "invoice", ID: invoiceID}
	}

	company, err := uc.companies.ByID(ctx, agg.Invoice.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, &domain.MissingDataError{Entity: "company", ID: agg.Invoice.CompanyID}
	}

	customer, err := uc.customers.ByID(ctx, agg.Invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &domain.MissingDataError{Entity: "customer", ID: agg.Invoice.CustomerID}
	}

	items := agg.Items
	vatExempt := company.SmallBusiness
	if vatExempt {
		items = billing.ForceZeroRate(items)
	}

	totals, err := billing.Calculate(items, agg.Discount, agg.DownPayments)
	if err != nil {
		return nil, err
	}

	footer := agg.Invoice.FooterText
	if footer == "" {
		footer = uc.opts.FooterText
	}

	return &Document{
		Invoice:       agg.Invoice,
		Company:       company,
		Customer:      customer,
		Items:         items,
		Totals:        totals,
		FooterText:    footer,
		VATExempt:     vatExempt,
		ExemptionNote: uc.opts.ExemptionNote,
	}, nil
}

// giroCode encodes the payment QR, or returns nil when there is nothing left
// to pay. The PDF then renders the bank details without a code.
func (uc *UseCase) giroCode(doc *Document) ([]byte, error) {
	amount := doc.Totals.PaymentAmount()
	if !amount.IsPositive() {
		uc.log.Debug().
			Str("number", doc.Invoice.Number).
			Str("amount", amount.StringFixed(2)).
			Msg("skipping payment QR for non-positive amount")
		return nil, nil
	}
	png, err := uc.qr.Generate(QRRequest{
		BIC:        doc.Company.Bank.BIC,
		Name:       doc.Company.BeneficiaryName(),
		IBAN:       doc.Company.Bank.IBAN,
		Amount:     amount,
		Remittance: doc.Remittance(),
		Size:       uc.opts.QRSize,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payment QR: %w", err)
	}
	return png, nil
}
