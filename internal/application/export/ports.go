package export

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/domain/entity"
)

// InvoiceRepository loads the full invoice aggregate in one consistent read.
type InvoiceRepository interface {
	AggregateByID(ctx context.Context, id string) (*entity.InvoiceAggregate, error)
}

// CompanyRepository loads issuer master data.
type CompanyRepository interface {
	ByID(ctx context.Context, id string) (*entity.Company, error)
}

// CustomerRepository loads recipient master data.
type CustomerRepository interface {
	ByID(ctx context.Context, id string) (*entity.Customer, error)
}

// DocumentBuilder serializes a document into the structured e-invoice XML.
type DocumentBuilder interface {
	Build(doc *Document) ([]byte, error)
}

// Renderer produces the visual PDF. qrPNG may be nil, in which case the
// payment block is rendered without a code.
type Renderer interface {
	Render(doc *Document, qrPNG []byte) ([]byte, error)
}

// Composer packages rendered bytes into the artifacts of one export mode.
type Composer interface {
	Compose(mode string, doc *Document, pdfBytes, xmlBytes []byte) ([]Artifact, error)
}

// QRRequest carries the payment data for one GiroCode.
type QRRequest struct {
	BIC        string
	Name       string
	IBAN       string
	Amount     decimal.Decimal
	Remittance string
	Size       int
}

// QRGenerator encodes a payment QR code as PNG.
type QRGenerator interface {
	Generate(req QRRequest) ([]byte, error)
}
