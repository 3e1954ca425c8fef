package cii

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// SummaryAmounts are the mandatory monetary fields of the header summary,
// read back out of a CII document. Used to verify that an embedded document
// still carries the totals the calculator produced (no drift from double
// rounding, no divergent recomputation).
type SummaryAmounts struct {
	LineTotal       decimal.Decimal
	TaxBasisTotal   decimal.Decimal
	TaxTotal        decimal.Decimal
	GrandTotal      decimal.Decimal
	TotalPrepaid    decimal.Decimal
	DuePayable      decimal.Decimal
	TaxRate         decimal.Decimal
	TaxCategory     string
	ExemptionReason string
	LineCount       int
}

// ReadTotals parses the header monetary summation and tax breakdown from a
// CII document.
func ReadTotals(xmlBytes []byte) (*SummaryAmounts, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("cii: parse document: %w", err)
	}

	root := tree.Root()
	if root == nil || root.Tag != "CrossIndustryInvoice" {
		return nil, fmt.Errorf("cii: unexpected root element")
	}

	sum := root.FindElement("//ram:SpecifiedTradeSettlementHeaderMonetarySummation")
	if sum == nil {
		return nil, fmt.Errorf("cii: monetary summation block missing")
	}

	out := &SummaryAmounts{
		LineCount: len(root.FindElements("//ram:IncludedSupplyChainTradeLineItem")),
	}

	var err error
	if out.LineTotal, err = childAmount(sum, "ram:LineTotalAmount"); err != nil {
		return nil, err
	}
	if out.TaxBasisTotal, err = childAmount(sum, "ram:TaxBasisTotalAmount"); err != nil {
		return nil, err
	}
	if out.TaxTotal, err = childAmount(sum, "ram:TaxTotalAmount"); err != nil {
		return nil, err
	}
	if out.GrandTotal, err = childAmount(sum, "ram:GrandTotalAmount"); err != nil {
		return nil, err
	}
	if out.TotalPrepaid, err = childAmount(sum, "ram:TotalPrepaidAmount"); err != nil {
		return nil, err
	}
	if out.DuePayable, err = childAmount(sum, "ram:DuePayableAmount"); err != nil {
		return nil, err
	}

	tax := root.FindElement("//ram:ApplicableHeaderTradeSettlement/ram:ApplicableTradeTax")
	if tax == nil {
		return nil, fmt.Errorf("cii: header tax breakdown missing")
	}
	if out.TaxRate, err = childAmount(tax, "ram:RateApplicablePercent"); err != nil {
		return nil, err
	}
	if cat := tax.FindElement("ram:CategoryCode"); cat != nil {
		out.TaxCategory = cat.Text()
	}
	if reason := tax.FindElement("ram:ExemptionReason"); reason != nil {
		out.ExemptionReason = reason.Text()
	}

	return out, nil
}

func childAmount(parent *etree.Element, path string) (decimal.Decimal, error) {
	el := parent.FindElement(path)
	if el == nil {
		return decimal.Zero, fmt.Errorf("cii: element %s missing", path)
	}
	d, err := decimal.NewFromString(el.Text())
	if err != nil {
		return decimal.Zero, fmt.Errorf("cii: element %s: %w", path, err)
	}
	return d, nil
}
