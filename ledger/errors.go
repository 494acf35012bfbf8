/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error kinds in one place. Every operation is all-or-nothing: any of
  these errors means the atomic batch was never committed and no document
  changed. The core never retries and never logs; callers map these to
  user-facing notifications.

ERROR CATEGORIES:
  1. Not-found errors   - a referenced document id does not exist
  2. Validation errors  - amount <= 0, unknown type, settled invoice
  3. Balance errors     - funds or stock would go negative

USAGE:
  Handlers classify with the helpers:

    if ledger.IsNotFound(err) { ... 404 ... }
    if ledger.IsClientError(err) { ... 400 ... }
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a bank or customer account id
	// does not resolve to a document.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProductNotFound is returned when an invoice line references a
	// missing product.
	ErrProductNotFound = errors.New("product not found")

	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrLoanNotFound        = errors.New("loan not found")

	// ErrInsufficientFunds is returned when an operation would take a bank
	// account balance below zero. The operation commits nothing.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientStock is returned when a requested line quantity
	// exceeds available stock. Checked for every line before any write is
	// staged, so a failure on a later line aborts the earlier ones too.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyVoided is returned when voiding a record twice.
	ErrAlreadyVoided = errors.New("already voided")

	// ErrInvalidAmount is returned for amounts <= 0, validated before any
	// document is read.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidTransactionType is returned for a type string outside the
	// closed set.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvoiceSettled is returned when applying a payment to an invoice
	// that is already Paid or Voided.
	ErrInvoiceSettled = errors.New("invoice is settled")

	// ErrDuplicateInvoiceNumber is a store-level integrity failure: two
	// invoices were assigned the same number. The settlement engine
	// serializes numbering, so seeing this means a second writer is
	// sharing the store.
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError reports how short the account is.
type InsufficientFundsError struct {
	AccountID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: available %s, requested %s",
		e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientStockError identifies the offending line's product.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError rejects a malformed request at the core boundary before
// any document is read (empty ids, missing fields).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error is any missing-document error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrLoanNotFound)
}

// IsClientError reports whether the error is due to the request itself
// rather than the system, and safe to surface verbatim.
func IsClientError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrAlreadyVoided) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrInvoiceSettled)
}
