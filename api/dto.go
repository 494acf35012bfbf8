/*
dto.go - Request and response data structures for the HTTP API

PURPOSE:
  Request bodies for every mutating endpoint. Responses reuse the ledger
  types directly: their JSON tags are the stored-data contract
  (invoiceBalance, grandTotal, "Past Due", ...) and the API exposes the
  same shape.

CONVENTIONS:
  - Monetary amounts travel as decimal strings ("124.95"), parsed with
    shopspring/decimal. Floats never touch money.
  - Dates are {year, month, day} objects, matching ledger.Date.
  - Validation is done in handlers, not in DTOs. DTOs are pure data
    carriers.

SEE ALSO:
  - handlers.go: parsing and validation
  - ledger/types.go: the response shapes
*/
package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

// OpenAccountRequest creates a bank or customer account.
type OpenAccountRequest struct {
	DisplayName   string `json:"displayName"`
	AccountNumber string `json:"accountNumber,omitempty"`
	OpeningAmount string `json:"openingAmount,omitempty"`
}

// UpdateStatusRequest flips an account's Active/Inactive flag.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RecordTransactionRequest records a single bank-account movement.
type RecordTransactionRequest struct {
	BankAccountID string      `json:"bankAccountId"`
	Type          string      `json:"type"`
	Amount        string      `json:"amount"`
	Description   string      `json:"description,omitempty"`
	Date          ledger.Date `json:"date,omitempty"`
}

// TransferRequest moves money between two bank accounts.
type TransferRequest struct {
	FromAccountID string      `json:"fromAccountId"`
	ToAccountID   string      `json:"toAccountId"`
	Amount        string      `json:"amount"`
	Description   string      `json:"description,omitempty"`
	Date          ledger.Date `json:"date,omitempty"`
}

// TransferResponse returns the ids of the two transfer legs.
type TransferResponse struct {
	WithdrawID string `json:"withdrawId"`
	DepositID  string `json:"depositId"`
}

// LineItemRequest is one invoice line as submitted by the POS form.
type LineItemRequest struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int64  `json:"quantity"`
	Price       string `json:"price"`
	Discount    string `json:"discount,omitempty"`
	Tax         bool   `json:"tax,omitempty"`
	GST         string `json:"gst,omitempty"`
}

// CreateInvoiceRequest creates an invoice.
type CreateInvoiceRequest struct {
	CustomerID string            `json:"userId"`
	Lines      []LineItemRequest `json:"products"`
	DueDate    ledger.Date       `json:"dueDate,omitempty"`
	IssuedDate ledger.Date       `json:"issuedDate,omitempty"`
	Memo       string            `json:"memo,omitempty"`
}

// ApplyPaymentRequest pays down an invoice.
type ApplyPaymentRequest struct {
	BankAccountID string      `json:"bankAccountId"`
	Amount        string      `json:"amount"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Date          ledger.Date `json:"date,omitempty"`
}

// AddCreditRequest records a standalone customer credit.
type AddCreditRequest struct {
	CustomerID    string      `json:"userId"`
	BankAccountID string      `json:"bankAccountId"`
	Amount        string      `json:"amount"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Date          ledger.Date `json:"date,omitempty"`
}

// DisburseLoanRequest pays a loan out to a customer.
type DisburseLoanRequest struct {
	BankAccountID string      `json:"bankAccountId"`
	CustomerID    string      `json:"customerId"`
	Amount        string      `json:"amount"`
	Description   string      `json:"description,omitempty"`
	Date          ledger.Date `json:"date,omitempty"`
}

// LoanPaymentRequest records a repayment against a loan.
type LoanPaymentRequest struct {
	Amount      string      `json:"amount"`
	Description string      `json:"description,omitempty"`
	Date        ledger.Date `json:"date,omitempty"`
}

// ProductRequest creates or updates a catalog product.
type ProductRequest struct {
	ProductName string `json:"productName"`
	UPC         string `json:"upc,omitempty"`
	Price       string `json:"price"`
	Cost        string `json:"cost,omitempty"`
	Quantity    int64  `json:"quantity"`
	Tax         bool   `json:"tax,omitempty"`
	GST         string `json:"gst,omitempty"`
	Discount    string `json:"discount,omitempty"`
	Status      string `json:"status,omitempty"`
}

// SweepResponse reports the nightly past-due sweep outcome.
type SweepResponse struct {
	MarkedPastDue int `json:"markedPastDue"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseAmount parses a required decimal string.
func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a valid amount: %q", field, s)
	}
	return d, nil
}

// parseOptionalAmount parses a decimal string, treating empty as zero.
func parseOptionalAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, s)
}

func toLineItems(lines []LineItemRequest) ([]ledger.LineItem, error) {
	out := make([]ledger.LineItem, len(lines))
	for i, l := range lines {
		price, err := parseAmount("price", l.Price)
		if err != nil {
			return nil, err
		}
		disc, err := parseOptionalAmount("discount", l.Discount)
		if err != nil {
			return nil, err
		}
		gst, err := parseOptionalAmount("gst", l.GST)
		if err != nil {
			return nil, err
		}
		out[i] = ledger.LineItem{
			ProductID:   l.ProductID,
			Name:        l.ProductName,
			Quantity:    l.Quantity,
			Price:       price,
			DiscountPct: disc,
			Taxable:     l.Tax,
			TaxPct:      gst,
		}
	}
	return out, nil
}
