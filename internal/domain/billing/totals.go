// Package billing derives the authoritative monetary totals of an invoice.
//
// Calculate is the single source of truth for every export surface: the PDF
// text, the embedded e-invoice XML and the GiroCode payload all consume one
// Totals value computed here. Nothing downstream recomputes.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/pkg/money"
)

// Totals is the derived monetary state of an invoice. It is never persisted;
// it is recomputed from the line items on every export.
type Totals struct {
	TotalNet          decimal.Decimal
	DiscountAmount    decimal.Decimal
	NetAfterDiscount  decimal.Decimal
	TotalVAT          decimal.Decimal
	TotalGross        decimal.Decimal
	TotalDownPayments decimal.Decimal
	AmountDue         decimal.Decimal // gross - down payments; negative = overpayment
	VATRate           decimal.Decimal // governing rate used for the VAT summary

	// DiscountCapped reports that an absolute discount exceeded the net and
	// was capped at it. A warning condition, not an error.
	DiscountCapped bool
}

// PaymentAmount is the amount the GiroCode asks the payer for: the open
// amount due when partial payments exist, otherwise the gross total.
func (t Totals) PaymentAmount() decimal.Decimal {
	if t.TotalDownPayments.IsPositive() {
		return t.AmountDue
	}
	return t.TotalGross
}

// LineNet is the line-level net of one item, rounded at the line boundary so
// the XML line amounts and the PDF rows show the same figure.
func LineNet(item entity.LineItem) decimal.Decimal {
	return money.Round2(item.Quantity.Mul(item.UnitPrice))
}

// Calculate derives the invoice totals from an ordered line-item sequence, an
// optional invoice-level discount and the recorded down payments.
//
// Rules:
//   - line nets are rounded at line level, accumulated exactly, and every
//     boundary figure is rounded to 2 fraction digits half-up;
//   - a percentage discount is computed against the accumulated net, an
//     absolute discount is capped at the net (DiscountCapped is set); a
//     negative discount or a percentage above 100 is rejected;
//   - VAT is computed on the net after discount, using the first line item's
//     rate as the governing rate (known limitation: mixed-rate invoices are
//     summarized under that single rate);
//   - down payments are summed as given (pre-rounded) and subtracted from the
//     gross; the amount due may go negative and is never clamped.
//
// Pure function: no side effects, identical inputs yield identical totals.
func Calculate(items []entity.LineItem, discount *entity.Discount, downPayments []entity.DownPayment) (Totals, error) {
	var t Totals

	totalNet := money.Zero
	for _, item := range items {
		if item.Quantity.IsNegative() {
			return t, &domain.InvalidAmountError{
				Field: fmt.Sprintf("line %d quantity", item.Position),
				Value: item.Quantity.String(),
			}
		}
		if item.UnitPrice.IsNegative() {
			return t, &domain.InvalidAmountError{
				Field: fmt.Sprintf("line %d unit price", item.Position),
				Value: item.UnitPrice.String(),
			}
		}
		if item.VATRate.IsNegative() || item.VATRate.GreaterThan(decimal.NewFromInt(100)) {
			return t, &domain.InvalidAmountError{
				Field: fmt.Sprintf("line %d vat rate", item.Position),
				Value: item.VATRate.String(),
			}
		}
		totalNet = totalNet.Add(LineNet(item))
	}

	rate := money.Zero
	if len(items) > 0 {
		rate = items[0].VATRate
	}

	discountAmount := money.Zero
	capped := false
	if discount != nil {
		if discount.Value.IsNegative() {
			return t, &domain.InvalidAmountError{
				Field: "discount value",
				Value: discount.Value.String(),
			}
		}
		switch discount.Type {
		case entity.DiscountPercent:
			if discount.Value.GreaterThan(decimal.NewFromInt(100)) {
				return t, &domain.InvalidAmountError{
					Field: "discount percent",
					Value: discount.Value.String(),
				}
			}
			discountAmount = money.Percent(totalNet, discount.Value)
		case entity.DiscountAbsolute:
			discountAmount = discount.Value
		default:
			return t, fmt.Errorf("%w: unknown discount type %q", domain.ErrInvalidInput, discount.Type)
		}
		if discountAmount.GreaterThan(totalNet) {
			discountAmount = totalNet
			capped = true
		}
	}

	netAfterDiscount := money.Round2(totalNet.Sub(discountAmount))
	vat := money.Round2(money.Percent(netAfterDiscount, rate))
	gross := netAfterDiscount.Add(vat)

	downSum := money.Zero
	for _, dp := range downPayments {
		downSum = downSum.Add(dp.Amount)
	}
	downSum = money.Round2(downSum)

	t = Totals{
		TotalNet:          money.Round2(totalNet),
		DiscountAmount:    money.Round2(discountAmount),
		NetAfterDiscount:  netAfterDiscount,
		TotalVAT:          vat,
		TotalGross:        money.Round2(gross),
		TotalDownPayments: downSum,
		AmountDue:         money.Round2(gross.Sub(downSum)),
		VATRate:           rate,
		DiscountCapped:    capped,
	}
	return t, nil
}

// ForceZeroRate returns a copy of the items with the VAT rate forced to zero.
// Used for small-business issuers (§ 19 UStG): the export reports rate 0 with
// the legal-basis note instead of omitting the VAT fields.
func ForceZeroRate(items []entity.LineItem) []entity.LineItem {
	out := make([]entity.LineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].VATRate = money.Zero
	}
	return out
}
