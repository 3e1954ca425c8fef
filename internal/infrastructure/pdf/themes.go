package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain/billing"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/pkg/money"
)

// LayoutTheme is the presentation strategy of the visual invoice. Themes only
// arrange header and item rows; totals, payment block and footer are shared,
// so a theme can never change a figure.
type LayoutTheme interface {
	Name() string
	HeaderRows(doc *export.Document) []core.Row
	ContentRows(doc *export.Document) []core.Row
}

// ThemeByName resolves a stored theme name; unknown names fall back to the
// classic layout.
func ThemeByName(name string) LayoutTheme {
	switch name {
	case entity.ThemeCompact:
		return compactTheme{}
	case entity.ThemeBanded:
		return bandedTheme{}
	default:
		return classicTheme{}
	}
}

// classic: two-column letterhead, ruled item table

type classicTheme struct{}

func (classicTheme) Name() string { return entity.ThemeClassic }

func (classicTheme) HeaderRows(doc *export.Document) []core.Row {
	c := doc.Company
	return []core.Row{
		row.New(20).Add(
			col.New(7).Add(
				text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1}),
				text.New(addressLine(c.Street, c.ZIP, c.City), props.Text{Size: 8, Top: 9, Color: colorGray}),
				text.New(taxLine(c), props.Text{Size: 8, Top: 14, Color: colorGray}),
			),
			col.New(5).Add(
				text.New("RECHNUNG", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
				text.New(doc.Invoice.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
				text.New("Datum: "+doc.Invoice.IssueDate.Format("02.01.2006"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
			),
		),
		line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}),
		recipientRow(doc.Customer),
	}
}

func (classicTheme) ContentRows(doc *export.Document) []core.Row {
	rows := []core.Row{itemsHeaderRow(colorPrimary)}
	rows = append(rows, itemRows(doc.Items)...)
	rows = append(rows, line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	return rows
}

// compact: single dense header line, narrow table

type compactTheme struct{}

func (compactTheme) Name() string { return entity.ThemeCompact }

func (compactTheme) HeaderRows(doc *export.Document) []core.Row {
	c := doc.Company
	return []core.Row{
		row.New(10).Add(
			col.New(8).Add(
				text.New(fmt.Sprintf("%s · %s", c.Name, addressLine(c.Street, c.ZIP, c.City)),
					props.Text{Size: 8, Color: colorGray, Top: 1}),
			),
			col.New(4).Add(
				text.New("Rechnung "+doc.Invoice.Number, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1}),
			),
		),
		row.New(6).Add(
			col.New(8).Add(
				text.New(doc.Customer.Name+", "+addressLine(doc.Customer.Street, doc.Customer.ZIP, doc.Customer.City),
					props.Text{Size: 8, Top: 1}),
			),
			col.New(4).Add(
				text.New(doc.Invoice.IssueDate.Format("02.01.2006"), props.Text{Size: 8, Align: align.Right, Top: 1, Color: colorGray}),
			),
		),
		line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}),
	}
}

func (compactTheme) ContentRows(doc *export.Document) []core.Row {
	rows := []core.Row{itemsHeaderRow(colorGray)}
	rows = append(rows, itemRows(doc.Items)...)
	rows = append(rows, line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	return rows
}

// banded: full-width title band, spaced table

type bandedTheme struct{}

func (bandedTheme) Name() string { return entity.ThemeBanded }

func (bandedTheme) HeaderRows(doc *export.Document) []core.Row {
	c := doc.Company
	return []core.Row{
		row.New(14).Add(
			col.New(12).Add(
				text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 16, Align: align.Center, Color: colorPrimary, Top: 2}),
				text.New(addressLine(c.Street, c.ZIP, c.City)+"   ·   "+taxLine(c),
					props.Text{Size: 7.5, Align: align.Center, Top: 10, Color: colorGray}),
			),
		),
		line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 1.0}),
		row.New(10).Add(
			col.New(6).Add(
				text.New("Rechnung "+doc.Invoice.Number, props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
			),
			col.New(6).Add(
				text.New("Datum: "+doc.Invoice.IssueDate.Format("02.01.2006")+
					"   Fällig: "+doc.Invoice.DueDate.Format("02.01.2006"),
					props.Text{Size: 8, Align: align.Right, Top: 3, Color: colorGray}),
			),
		),
		recipientRow(doc.Customer),
	}
}

func (bandedTheme) ContentRows(doc *export.Document) []core.Row {
	rows := []core.Row{itemsHeaderRow(colorPrimary)}
	for i, r := range itemRows(doc.Items) {
		rows = append(rows, r)
		if i < len(doc.Items)-1 {
			rows = append(rows, line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.1}))
		}
	}
	rows = append(rows, line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 1.0}))
	return rows
}

// shared building blocks

func recipientRow(customer *entity.Customer) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("Rechnungsempfänger", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
			text.New(customer.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 7}),
			text.New(addressLine(customer.Street, customer.ZIP, customer.City), props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
	)
}

func itemsHeaderRow(color *props.Color) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: color, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Pos.", 1, align.Center),
		h("Beschreibung", 5, align.Left),
		h("Menge", 1, align.Right),
		h("Einzelpreis", 2, align.Right),
		h("USt.", 1, align.Center),
		h("Netto", 2, align.Right),
	)
}

// itemRows renders one row per line item, in ascending position order, the
// same order the XML lines use, so both representations stay auditable line
// for line.
func itemRows(items []entity.LineItem) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", item.Position),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(item.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(money.FormatQuantity(item.Quantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money.FormatEUR(item.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(item.VATRate.StringFixed(0)+" %",
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(money.FormatEUR(billing.LineNet(item)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func addressLine(street, zip, city string) string {
	return fmt.Sprintf("%s, %s %s", street, zip, city)
}

func taxLine(c *entity.Company) string {
	if c.VATID != "" {
		return "USt-IdNr.: " + c.VATID
	}
	return "Steuernr.: " + c.TaxNumber
}
