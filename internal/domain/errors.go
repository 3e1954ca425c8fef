// Package domain holds entities and the error taxonomy of the export engine.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// MissingFieldError reports a mandatory mapping target that is null or empty.
// Field names the exact schema field so the caller can fix the record, not
// guess.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("mandatory field missing: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrInvalidInput }

// InvalidAmountError reports a financially significant value that violates
// its constraint (negative quantity, negative unit price, rate or discount
// outside 0..100, negative discount amount). Amount due is exempt: a
// negative amount due is a valid overpayment state, never an error.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid monetary value for %s: %s", e.Field, e.Value)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidInput }

// EncodingError reports a payload exceeding a hard external format limit
// (EPC QR payload size). Recoverable: the caller can shorten the remittance
// text and retry.
type EncodingError struct {
	Format string
	Size   int
	Limit  int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s payload too large: %d bytes (limit %d)", e.Format, e.Size, e.Limit)
}

// EmbeddingError reports a failed hybrid container composition. Fatal for
// the export attempt, not retried.
type EmbeddingError struct {
	Reason string
	Cause  error
}

func (e *EmbeddingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hybrid embedding failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("hybrid embedding failed: %s", e.Reason)
}

func (e *EmbeddingError) Unwrap() error { return e.Cause }

// MissingDataError reports an absent upstream entity (invoice, company,
// customer). Entity and ID identify what the caller must create or repair.
type MissingDataError struct {
	Entity string
	ID     string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *MissingDataError) Unwrap() error { return ErrNotFound }
