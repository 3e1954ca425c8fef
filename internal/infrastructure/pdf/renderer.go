// Package pdf renders the human-facing invoice document and composes the
// hybrid (visual + embedded XML) container.
//
// A4 page, assembled from theme-provided header/content rows plus shared
// totals, payment and footer blocks:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER (theme): issuer + invoice number + date             │
//	│  RECIPIENT                                                  │
//	│  TABLE (theme): Pos | Beschreibung | Menge | ... | Netto    │
//	│  TOTALS: Netto / Rabatt / USt / Brutto / Anzahlungen / Offen│
//	│  PAYMENT: GiroCode QR + bank details                        │
//	│  FOOTER: legal note (§ 19 UStG if exempt) + footer text     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/pkg/money"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWarn    = &props.Color{Red: 170, Green: 60, Blue: 0}
)

// Renderer builds the visual PDF with Maroto v2.
type Renderer struct {
	defaultTheme string
}

// NewRenderer creates the renderer. defaultTheme applies when the invoice
// carries no theme of its own.
func NewRenderer(defaultTheme string) *Renderer {
	return &Renderer{defaultTheme: defaultTheme}
}

// Render produces the PDF bytes. The totals inside doc were computed once by
// the export use case; this renderer only formats them. qrPNG may be nil
// (e.g. overpaid invoice with no open amount); the payment block then shows
// the bank details without a code.
func (r *Renderer) Render(doc *export.Document, qrPNG []byte) ([]byte, error) {
	themeName := doc.Invoice.Theme
	if themeName == "" {
		themeName = r.defaultTheme
	}
	theme := ThemeByName(themeName)

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Rechnung "+doc.Invoice.Number, true).
		WithAuthor(doc.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	for _, hr := range theme.HeaderRows(doc) {
		m.AddRows(hr)
	}
	m.AddRows(row.New(3))
	for _, cr := range theme.ContentRows(doc) {
		m.AddRows(cr)
	}

	m.AddRows(totalsRows(doc)...)
	m.AddRows(row.New(4))
	m.AddRows(paymentRows(doc, qrPNG)...)
	m.AddRows(row.New(4))
	m.AddRows(footerRows(doc)...)

	result, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return result.GetBytes(), nil
}

// totalsRows is theme-independent: every layout shows the same figures from
// the same Totals value.
func totalsRows(doc *export.Document) []core.Row {
	t := doc.Totals

	type entry struct {
		label string
		value string
		grand bool
		warn  bool
	}
	entries := []entry{{label: "Summe netto:", value: eur(t.TotalNet)}}
	if t.DiscountAmount.IsPositive() {
		entries = append(entries,
			entry{label: "Rabatt:", value: "-" + eur(t.DiscountAmount)},
			entry{label: "Netto nach Rabatt:", value: eur(t.NetAfterDiscount)},
		)
	}
	entries = append(entries,
		entry{label: fmt.Sprintf("USt. (%s %%):", t.VATRate.StringFixed(0)), value: eur(t.TotalVAT)},
		entry{label: "Gesamtbetrag:", value: eur(t.TotalGross), grand: true},
	)
	if t.TotalDownPayments.IsPositive() {
		entries = append(entries,
			entry{label: "Abzüglich Anzahlungen:", value: "-" + eur(t.TotalDownPayments)},
			entry{label: "Offener Betrag:", value: eur(t.AmountDue), grand: true, warn: t.AmountDue.IsNegative()},
		)
	}

	rows := make([]core.Row, 0, len(entries)+2)
	for _, e := range entries {
		style := props.Text{Size: 9, Align: align.Right, Right: 1}
		labelStyle := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2}
		if e.grand {
			style = props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1}
			labelStyle.Size = 10
			labelStyle.Color = colorPrimary
		}
		if e.warn {
			style.Color = colorWarn
			labelStyle.Color = colorWarn
		}
		rows = append(rows, row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(e.label, labelStyle)),
			col.New(3).Add(text.New(e.value, style)),
		))
	}

	// Overpayment is surfaced, never hidden: the negative open amount gets an
	// explicit note.
	if t.AmountDue.IsNegative() {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Hinweis: Die Rechnung ist überzahlt. Der offene Betrag ist negativ und wird erstattet.",
				props.Text{Size: 8, Align: align.Right, Color: colorWarn, Top: 1}),
		)))
	}
	return rows
}

func paymentRows(doc *export.Document, qrPNG []byte) []core.Row {
	bank := doc.Company.Bank
	details := []core.Component{
		text.New("Zahlungsinformationen", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New("Kontoinhaber: "+doc.Company.BeneficiaryName(), props.Text{Size: 8, Top: 7}),
		text.New("IBAN: "+bank.IBAN, props.Text{Size: 8, Top: 12}),
	}
	top := 17.0
	if bank.BIC != "" {
		details = append(details, text.New("BIC: "+bank.BIC, props.Text{Size: 8, Top: top}))
		top += 5
	}
	details = append(details,
		text.New("Verwendungszweck: "+doc.Remittance(), props.Text{Size: 8, Top: top}),
		text.New("Zahlbar bis "+doc.Invoice.DueDate.Format("02.01.2006"), props.Text{Size: 8, Top: top + 5, Color: colorGray}),
	)

	if qrPNG == nil {
		return []core.Row{row.New(34).Add(col.New(12).Add(details...))}
	}

	return []core.Row{row.New(38).Add(
		col.New(8).Add(details...),
		col.New(4).Add(
			image.NewFromBytes(qrPNG, extension.Png, props.Rect{Percent: 90, Center: true}),
		),
	), row.New(5).Add(
		col.New(8),
		col.New(4).Add(text.New("GiroCode – mit Banking-App scannen",
			props.Text{Size: 7, Align: align.Center, Color: colorGray})),
	)}
}

func footerRows(doc *export.Document) []core.Row {
	rows := []core.Row{line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3})}

	if doc.VATExempt {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(doc.ExemptionNote, props.Text{Size: 8, Top: 1}),
		)))
	}
	if doc.FooterText != "" {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New(doc.FooterText, props.Text{Size: 7.5, Color: colorGray, Top: 1}),
		)))
	}
	return rows
}

func eur(d decimal.Decimal) string {
	return money.FormatEUR(d)
}
