package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layout themes for the visual invoice document. The theme is a pure
// presentation choice; totals and exports are identical across themes.
const (
	ThemeClassic = "classic"
	ThemeCompact = "compact"
	ThemeBanded  = "banded"
)

// Export modes for an invoice artifact.
const (
	ExportVisual     = "visual" // rendered PDF only, nothing embedded
	ExportHybrid     = "hybrid" // PDF with the e-invoice XML embedded (Factur-X)
	ExportStructured = "xml"    // e-invoice XML only
	ExportBoth       = "both"   // XML and plain PDF as two artifacts
)

// Invoice is the header of an invoice aggregate. Totals are NOT stored here:
// they are derived fresh from the line items at export time (see
// billing.Calculate), so a stale stored total can never leak into an export.
type Invoice struct {
	ID         string
	CompanyID  string
	CustomerID string
	Number     string // e.g. "R-2024-001"
	IssueDate  time.Time
	DueDate    time.Time
	Theme      string // ThemeClassic etc.; empty = configured default
	Remittance string // payment reference shown in the GiroCode; defaults to the number
	FooterText string // optional; empty falls back to the configured standard phrase
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineItem is one billed position. Position defines both the PDF row order
// and the XML line order; the two must stay cross-checkable line for line.
type LineItem struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal // percent, 0..100
}

// Discount types.
const (
	DiscountPercent  = "percent"
	DiscountAbsolute = "absolute"
)

// Discount is applied once at invoice level, never per line.
type Discount struct {
	Type  string          // DiscountPercent or DiscountAbsolute
	Value decimal.Decimal // percent (0..100) or absolute amount
}

// DownPayment records a prior partial payment against the invoice. Sums
// exceeding the gross are legal input: the amount due goes negative and the
// presentation layer surfaces the overpayment, it is never clamped away.
type DownPayment struct {
	ID          string
	InvoiceID   string
	Amount      decimal.Decimal
	Description string
	PaidAt      *time.Time
}

// InvoiceAggregate is the consistent snapshot an export works on. It is read
// once at the start of the pipeline; a concurrent edit of the invoice cannot
// change what an in-flight export emits.
type InvoiceAggregate struct {
	Invoice      *Invoice
	Items        []LineItem // ascending position order
	Discount     *Discount  // nil = no discount
	DownPayments []DownPayment
}
