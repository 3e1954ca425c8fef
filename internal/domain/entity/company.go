package entity

import "time"

// Company is the invoice issuer (seller). One row per tenant.
type Company struct {
	ID        string
	Name      string // trading name shown on the PDF header
	LegalName string // registered legal name; used in the XML seller party
	Owner     string // legal owner (natural person); GiroCode beneficiary fallback
	Street    string
	ZIP       string
	City      string
	CountryID string // ISO 3166-1 alpha-2, e.g. "DE"
	Phone     string
	Email     string

	TaxNumber string // national tax number (Steuernummer)
	VATID     string // EU VAT ID (USt-IdNr.), e.g. "DE123456789"

	// SmallBusiness marks a VAT-exempt issuer (§ 19 UStG, Kleinunternehmer).
	// Exports then report rate 0 together with the legal-basis note; the VAT
	// fields are never simply omitted.
	SmallBusiness bool

	Bank BankAccount

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BankAccount holds the payment target printed on invoices and encoded in
// the GiroCode.
type BankAccount struct {
	// AccountHolder overrides the beneficiary name when set. Without it the
	// owner's name is used; the account is legally tied to the owner, not
	// the trading name.
	AccountHolder string
	IBAN          string
	BIC           string // optional; the EPC payload keeps its line empty if absent
}

// BeneficiaryName resolves the GiroCode beneficiary.
func (c *Company) BeneficiaryName() string {
	if c.Bank.AccountHolder != "" {
		return c.Bank.AccountHolder
	}
	return c.Owner
}
