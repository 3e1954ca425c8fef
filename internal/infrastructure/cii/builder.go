// Package cii builds the machine-readable e-invoice document: UN/CEFACT
// Cross Industry Invoice XML following the EN 16931 guideline, the vocabulary
// required for Factur-X/ZUGFeRD hybrid PDFs and accepted by XRechnung
// receivers.
//
// All monetary values are emitted with exactly 2 fraction digits and the
// invariant decimal point, regardless of presentation locale. Receiving
// systems validate these figures mechanically against each other.
package cii

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/application/export"
	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/internal/domain/billing"
	"github.com/jkellner/faktura-api/internal/domain/entity"
	"github.com/jkellner/faktura-api/pkg/money"
)

// UN/CEFACT CII D16B namespaces (Factur-X / ZUGFeRD 2.x profile EN 16931).
const (
	NsRsm = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NsRam = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NsUdt = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"

	// GuidelineID declares the EN 16931 comfort profile in the document context.
	GuidelineID = "urn:cen.eu:en16931:2017"

	// TypeCodeInvoice is UNTDID 1001 code for a commercial invoice.
	TypeCodeInvoice = "380"

	// CurrencyEUR is the single supported document currency.
	CurrencyEUR = "EUR"

	// Tax category codes (UNTDID 5305).
	CategoryStandard = "S"
	CategoryExempt   = "E"

	// UnitPiece is UN/ECE rec 20 "C62" (one piece/unit).
	UnitPiece = "C62"

	// dateFormat102 is the CII qualified date format CCYYMMDD.
	dateFormat102 = "20060102"
)

// Builder serializes an export.Document into CII XML bytes.
type Builder struct{}

// NewBuilder creates the serializer.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build validates the mandatory mapping targets and returns the UTF-8 XML
// document, or a typed error naming the violated field. No side effects.
func (b *Builder) Build(doc *export.Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "rsm:CrossIndustryInvoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:rsm"}, Value: NsRsm},
			{Name: xml.Name{Local: "xmlns:ram"}, Value: NsRam},
			{Name: xml.Name{Local: "xmlns:udt"}, Value: NsUdt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	b.writeDocumentContext(enc)
	b.writeExchangedDocument(enc, doc)
	if err := b.writeTransaction(enc, doc); err != nil {
		return nil, err
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// validate checks every mandatory mapping target before any byte is written,
// so a failed export never produces a partial document.
func validate(doc *export.Document) error {
	if doc == nil || doc.Invoice == nil {
		return &domain.MissingDataError{Entity: "invoice", ID: ""}
	}
	if doc.Company == nil {
		return &domain.MissingDataError{Entity: "company", ID: doc.Invoice.CompanyID}
	}
	if doc.Customer == nil {
		return &domain.MissingDataError{Entity: "customer", ID: doc.Invoice.CustomerID}
	}
	if doc.Invoice.Number == "" {
		return &domain.MissingFieldError{Field: "invoice number"}
	}
	if doc.Invoice.IssueDate.IsZero() {
		return &domain.MissingFieldError{Field: "issue date"}
	}
	if doc.Invoice.DueDate.IsZero() {
		return &domain.MissingFieldError{Field: "due date"}
	}
	if sellerName(doc.Company) == "" {
		return &domain.MissingFieldError{Field: "seller name"}
	}
	if doc.Company.TaxNumber == "" && doc.Company.VATID == "" {
		return &domain.MissingFieldError{Field: "seller tax identifier"}
	}
	if doc.Customer.Name == "" {
		return &domain.MissingFieldError{Field: "buyer name"}
	}
	for _, item := range doc.Items {
		if item.Description == "" {
			return &domain.MissingFieldError{Field: fmt.Sprintf("line %d description", item.Position)}
		}
		if item.Quantity.IsNegative() {
			return &domain.InvalidAmountError{
				Field: fmt.Sprintf("line %d quantity", item.Position),
				Value: item.Quantity.String(),
			}
		}
		if item.UnitPrice.IsNegative() {
			return &domain.InvalidAmountError{
				Field: fmt.Sprintf("line %d unit price", item.Position),
				Value: item.UnitPrice.String(),
			}
		}
	}
	// A negative amount due is a legitimate overpayment state, deliberately
	// not validated here.
	return nil
}

func sellerName(c *entity.Company) string {
	if c.LegalName != "" {
		return c.LegalName
	}
	return c.Name
}

func (b *Builder) writeDocumentContext(enc *xml.Encoder) {
	open(enc, "rsm:ExchangedDocumentContext")
	open(enc, "ram:GuidelineSpecifiedDocumentContextParameter")
	writeRam(enc, "ID", GuidelineID)
	closeEl(enc, "ram:GuidelineSpecifiedDocumentContextParameter")
	closeEl(enc, "rsm:ExchangedDocumentContext")
}

func (b *Builder) writeExchangedDocument(enc *xml.Encoder, doc *export.Document) {
	open(enc, "rsm:ExchangedDocument")
	writeRam(enc, "ID", doc.Invoice.Number)
	writeRam(enc, "TypeCode", TypeCodeInvoice)
	open(enc, "ram:IssueDateTime")
	writeDate102(enc, doc.Invoice.IssueDate.Format(dateFormat102))
	closeEl(enc, "ram:IssueDateTime")
	closeEl(enc, "rsm:ExchangedDocument")
}

func (b *Builder) writeTransaction(enc *xml.Encoder, doc *export.Document) error {
	open(enc, "rsm:SupplyChainTradeTransaction")

	// Lines first, ascending position: the order must match the PDF rows so
	// an auditor can cross-check the two representations line for line.
	for _, item := range doc.Items {
		b.writeLineItem(enc, doc, item)
	}

	b.writeTradeAgreement(enc, doc)

	// Mandatory aggregate, intentionally empty: no delivery data in scope.
	open(enc, "ram:ApplicableHeaderTradeDelivery")
	closeEl(enc, "ram:ApplicableHeaderTradeDelivery")

	b.writeTradeSettlement(enc, doc)

	closeEl(enc, "rsm:SupplyChainTradeTransaction")
	return nil
}

func (b *Builder) writeLineItem(enc *xml.Encoder, doc *export.Document, item entity.LineItem) {
	open(enc, "ram:IncludedSupplyChainTradeLineItem")

	open(enc, "ram:AssociatedDocumentLineDocument")
	writeRam(enc, "LineID", strconv.Itoa(item.Position))
	closeEl(enc, "ram:AssociatedDocumentLineDocument")

	open(enc, "ram:SpecifiedTradeProduct")
	writeRam(enc, "Name", item.Description)
	closeEl(enc, "ram:SpecifiedTradeProduct")

	open(enc, "ram:SpecifiedLineTradeAgreement")
	open(enc, "ram:NetPriceProductTradePrice")
	writeRam(enc, "ChargeAmount", money.FormatAmount(item.UnitPrice))
	closeEl(enc, "ram:NetPriceProductTradePrice")
	closeEl(enc, "ram:SpecifiedLineTradeAgreement")

	open(enc, "ram:SpecifiedLineTradeDelivery")
	writeRamAttr(enc, "BilledQuantity", money.FormatQuantity(item.Quantity), "unitCode", UnitPiece)
	closeEl(enc, "ram:SpecifiedLineTradeDelivery")

	open(enc, "ram:SpecifiedLineTradeSettlement")
	open(enc, "ram:ApplicableTradeTax")
	writeRam(enc, "TypeCode", "VAT")
	writeRam(enc, "CategoryCode", categoryCode(doc))
	writeRam(enc, "RateApplicablePercent", formatRate(item.VATRate))
	closeEl(enc, "ram:ApplicableTradeTax")
	open(enc, "ram:SpecifiedTradeSettlementLineMonetarySummation")
	writeRam(enc, "LineTotalAmount", money.FormatAmount(billing.LineNet(item)))
	closeEl(enc, "ram:SpecifiedTradeSettlementLineMonetarySummation")
	closeEl(enc, "ram:SpecifiedLineTradeSettlement")

	closeEl(enc, "ram:IncludedSupplyChainTradeLineItem")
}

func (b *Builder) writeTradeAgreement(enc *xml.Encoder, doc *export.Document) {
	open(enc, "ram:ApplicableHeaderTradeAgreement")

	open(enc, "ram:SellerTradeParty")
	writeRam(enc, "Name", sellerName(doc.Company))
	writeAddress(enc, doc.Company.Street, doc.Company.ZIP, doc.Company.City, doc.Company.CountryID)
	if doc.Company.TaxNumber != "" {
		writeTaxRegistration(enc, "FC", doc.Company.TaxNumber)
	}
	if doc.Company.VATID != "" {
		writeTaxRegistration(enc, "VA", doc.Company.VATID)
	}
	closeEl(enc, "ram:SellerTradeParty")

	open(enc, "ram:BuyerTradeParty")
	writeRam(enc, "Name", doc.Customer.Name)
	writeAddress(enc, doc.Customer.Street, doc.Customer.ZIP, doc.Customer.City, doc.Customer.CountryID)
	if doc.Customer.VATID != "" {
		writeTaxRegistration(enc, "VA", doc.Customer.VATID)
	}
	closeEl(enc, "ram:BuyerTradeParty")

	closeEl(enc, "ram:ApplicableHeaderTradeAgreement")
}

func (b *Builder) writeTradeSettlement(enc *xml.Encoder, doc *export.Document) {
	t := doc.Totals

	open(enc, "ram:ApplicableHeaderTradeSettlement")
	writeRam(enc, "PaymentReference", doc.Remittance())
	writeRam(enc, "InvoiceCurrencyCode", CurrencyEUR)

	// Payment means: SEPA credit transfer (UNTDID 4461 code 58).
	if doc.Company.Bank.IBAN != "" {
		open(enc, "ram:SpecifiedTradeSettlementPaymentMeans")
		writeRam(enc, "TypeCode", "58")
		open(enc, "ram:PayeePartyCreditorFinancialAccount")
		writeRam(enc, "IBANID", doc.Company.Bank.IBAN)
		writeRam(enc, "AccountName", doc.Company.BeneficiaryName())
		closeEl(enc, "ram:PayeePartyCreditorFinancialAccount")
		if doc.Company.Bank.BIC != "" {
			open(enc, "ram:PayeeSpecifiedCreditorFinancialInstitution")
			writeRam(enc, "BICID", doc.Company.Bank.BIC)
			closeEl(enc, "ram:PayeeSpecifiedCreditorFinancialInstitution")
		}
		closeEl(enc, "ram:SpecifiedTradeSettlementPaymentMeans")
	}

	// Tax breakdown: one subtotal at the governing rate. Exempt issuers emit
	// rate 0 with the legal-basis note; the block is never omitted.
	open(enc, "ram:ApplicableTradeTax")
	writeRam(enc, "CalculatedAmount", money.FormatAmount(t.TotalVAT))
	writeRam(enc, "TypeCode", "VAT")
	if doc.VATExempt {
		writeRam(enc, "ExemptionReason", doc.ExemptionNote)
	}
	writeRam(enc, "BasisAmount", money.FormatAmount(t.NetAfterDiscount))
	writeRam(enc, "CategoryCode", categoryCode(doc))
	writeRam(enc, "RateApplicablePercent", formatRate(t.VATRate))
	closeEl(enc, "ram:ApplicableTradeTax")

	open(enc, "ram:SpecifiedTradePaymentTerms")
	open(enc, "ram:DueDateDateTime")
	writeDate102(enc, doc.Invoice.DueDate.Format(dateFormat102))
	closeEl(enc, "ram:DueDateDateTime")
	closeEl(enc, "ram:SpecifiedTradePaymentTerms")

	open(enc, "ram:SpecifiedTradeSettlementHeaderMonetarySummation")
	writeRam(enc, "LineTotalAmount", money.FormatAmount(t.TotalNet))
	if t.DiscountAmount.IsPositive() {
		writeRam(enc, "AllowanceTotalAmount", money.FormatAmount(t.DiscountAmount))
	}
	writeRam(enc, "TaxBasisTotalAmount", money.FormatAmount(t.NetAfterDiscount))
	writeRamAttr(enc, "TaxTotalAmount", money.FormatAmount(t.TotalVAT), "currencyID", CurrencyEUR)
	writeRam(enc, "GrandTotalAmount", money.FormatAmount(t.TotalGross))
	writeRam(enc, "TotalPrepaidAmount", money.FormatAmount(t.TotalDownPayments))
	writeRam(enc, "DuePayableAmount", money.FormatAmount(t.AmountDue))
	closeEl(enc, "ram:SpecifiedTradeSettlementHeaderMonetarySummation")

	closeEl(enc, "ram:ApplicableHeaderTradeSettlement")
}

func categoryCode(doc *export.Document) string {
	if doc.VATExempt {
		return CategoryExempt
	}
	return CategoryStandard
}

// formatRate renders a VAT percentage: "19.00", "0.00".
func formatRate(rate decimal.Decimal) string {
	return rate.StringFixed(2)
}

// token helpers

func open(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func closeEl(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeRam(enc *xml.Encoder, local, value string) {
	name := "ram:" + local
	open(enc, name)
	_ = enc.EncodeToken(xml.CharData(value))
	closeEl(enc, name)
}

func writeRamAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	name := "ram:" + local
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	closeEl(enc, name)
}

func writeDate102(enc *xml.Encoder, yyyymmdd string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "udt:DateTimeString"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "format"}, Value: "102"}},
	})
	_ = enc.EncodeToken(xml.CharData(yyyymmdd))
	closeEl(enc, "udt:DateTimeString")
}

func writeAddress(enc *xml.Encoder, street, zip, city, country string) {
	open(enc, "ram:PostalTradeAddress")
	if zip != "" {
		writeRam(enc, "PostcodeCode", zip)
	}
	if street != "" {
		writeRam(enc, "LineOne", street)
	}
	if city != "" {
		writeRam(enc, "CityName", city)
	}
	if country != "" {
		writeRam(enc, "CountryID", country)
	}
	closeEl(enc, "ram:PostalTradeAddress")
}

func writeTaxRegistration(enc *xml.Encoder, schemeID, id string) {
	open(enc, "ram:SpecifiedTaxRegistration")
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "ram:ID"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "schemeID"}, Value: schemeID}},
	})
	_ = enc.EncodeToken(xml.CharData(id))
	closeEl(enc, "ram:ID")
	closeEl(enc, "ram:SpecifiedTaxRegistration")
}
