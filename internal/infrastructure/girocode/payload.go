// Package girocode encodes SEPA credit-transfer payment instructions as an
// EPC069-12 ("GiroCode") QR payload.
//
// The payload is parsed positionally by banking apps: the field order is
// fixed by the standard and optional fields keep their line as an empty
// string, they are never dropped.
package girocode

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jkellner/faktura-api/internal/domain"
	"github.com/jkellner/faktura-api/pkg/money"
)

const (
	serviceTag  = "BCD"
	version     = "002"
	charsetUTF8 = "1"
	identSCT    = "SCT" // SEPA credit transfer

	// MaxPayloadBytes is the hard cap of EPC069-12 on the total payload.
	MaxPayloadBytes = 331

	// maxNameLen is the EPC cap on the beneficiary name.
	maxNameLen = 70
)

// Payload carries the fields of one SEPA credit transfer instruction.
type Payload struct {
	BIC        string // optional; its line stays present but empty if absent
	Name       string // beneficiary: account holder, or the legal owner
	IBAN       string
	Amount     decimal.Decimal // what is still owed, not the nominal total
	Remittance string          // unstructured reference, e.g. the invoice number
}

// Encode renders the newline-joined payload text.
//
// Line layout (order is non-negotiable):
//
//	 1  BCD              service tag
//	 2  002              version
//	 3  1                character set (UTF-8)
//	 4  SCT              identification
//	 5  <BIC>            optional, empty line preserved
//	 6  <name>           beneficiary
//	 7  <IBAN>
//	 8  EUR<amount>      currency prefix, no space, invariant point
//	 9                   purpose (unused)
//	10                   structured reference (unused)
//	11  <remittance>     unstructured reference text
//	12                   beneficiary-to-originator information (unused)
func (p Payload) Encode() (string, error) {
	if p.Name == "" {
		return "", &domain.MissingFieldError{Field: "beneficiary name"}
	}
	// The EPC cap on the name is 70 characters, not bytes; umlauts count once.
	if n := utf8.RuneCountInString(p.Name); n > maxNameLen {
		return "", &domain.EncodingError{Format: "EPC beneficiary name", Size: n, Limit: maxNameLen}
	}
	if p.IBAN == "" {
		return "", &domain.MissingFieldError{Field: "beneficiary IBAN"}
	}
	if !p.Amount.IsPositive() {
		// EPC allows 0.01 .. 999999999.99 only. A zero or negative open
		// amount means there is nothing to ask the payer for.
		return "", &domain.InvalidAmountError{Field: "payment amount", Value: p.Amount.String()}
	}

	lines := []string{
		serviceTag,
		version,
		charsetUTF8,
		identSCT,
		p.BIC,
		p.Name,
		strings.ReplaceAll(p.IBAN, " ", ""),
		"EUR" + money.FormatAmount(p.Amount),
		"",
		"",
		p.Remittance,
		"",
	}
	payload := strings.Join(lines, "\n")

	if len(payload) > MaxPayloadBytes {
		// Recoverable: the caller can shorten the remittance text and retry.
		return "", &domain.EncodingError{Format: "EPC QR", Size: len(payload), Limit: MaxPayloadBytes}
	}
	return payload, nil
}
