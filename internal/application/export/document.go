package export

import (
	"github.com/jkellner/faktura-api/internal/domain/billing"
	"github.com/jkellner/faktura-api/internal/domain/entity"
)

// Document is the immutable snapshot every export surface consumes. It is
// assembled exactly once per export invocation: the totals inside it were
// computed once from the items inside it, so the PDF text, the embedded XML
// and the QR payload cannot diverge.
type Document struct {
	Invoice  *entity.Invoice
	Company  *entity.Company
	Customer *entity.Customer

	// Items in ascending position order. For small-business issuers the VAT
	// rate is already forced to zero here.
	Items []entity.LineItem

	Totals billing.Totals

	// FooterText resolved: the invoice's own text, or the configured default.
	FooterText string

	// VATExempt mirrors Company.SmallBusiness; the serializer emits category
	// E with the legal note, the PDF prints the note.
	VATExempt bool

	// ExemptionNote is the legal-basis annotation for VAT-exempt issuers
	// (§ 19 UStG).
	ExemptionNote string
}

// Remittance is the payment reference: the invoice's explicit reference or
// its number.
func (d *Document) Remittance() string {
	if d.Invoice.Remittance != "" {
		return d.Invoice.Remittance
	}
	return d.Invoice.Number
}

// Artifact is one generated export output.
type Artifact struct {
	Filename    string
	ContentType string
	Bytes       []byte
}
