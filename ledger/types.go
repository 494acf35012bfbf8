/*
Package ledger provides the core bookkeeping engine for the Ace Closet POS.

PURPOSE:
  This package contains the ledger core: accounts, transactions, invoices,
  payments, and loans, together with the balance-mutation logic that ties
  them together. Every financial action reads the current state of all
  affected documents, validates preconditions, computes new balances and
  statuses, and persists the full set of affected records atomically
  through a single batch commit - or fails cleanly leaving state untouched.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: a balance-bearing document (bank account or customer account)
  - Transaction: an immutable record of a single bank-account movement
  - Invoice: line items, computed totals, and a declining invoice balance
  - Payment: money received, against an invoice or as a standalone credit
  - LoanAccount: a disbursed loan with a declining balance
  - Date: a plain calendar day (year/month/day) as submitted by the UI

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all monetary values, never floats
  2. Immutability: transactions and payments never change after creation,
     except their status flipping to Voided
  3. Wire compatibility: status and type strings match the stored data
     exactly ("Past Due", "Asset Purchase", ...)
  4. Derived status: invoice status is recomputed from balances and dates,
     never set directly by callers after creation

SEE ALSO:
  - store.go: persistence boundary (document store + atomic batch)
  - invoices.go: settlement math and status transitions
  - transactions.go: deposits, expenses, withdrawals, transfers, voids
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// MustMoney parses a decimal string, returning zero on failure.
// Intended for constants and tests, not for untrusted input.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// CALENDAR DATE - Day-granularity date as entered on POS forms
// =============================================================================

// Date is a plain calendar day. The store persists it as separate
// day/month/year fields, matching the existing data.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }

func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) String() string { return d.Time().Format("2006-01-02") }

// =============================================================================
// ACCOUNTS - Bank accounts and customer accounts share one shape
// =============================================================================

// AccountKind distinguishes the two balance-bearing collections.
// Bank balances hold money on hand; customer balances hold money owed
// by the customer (issuing an invoice increases it, payments reduce it).
type AccountKind string

const (
	KindBank     AccountKind = "bank"
	KindCustomer AccountKind = "customer"
)

// Account statuses are soft flags; accounts are never hard-deleted.
const (
	AccountActive   = "Active"
	AccountInactive = "Inactive"
)

type Account struct {
	ID            string          `json:"id"`
	Kind          AccountKind     `json:"-"`
	DisplayName   string          `json:"displayName"`
	AccountNumber string          `json:"accountNumber,omitempty"` // bank accounts only
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// =============================================================================
// TRANSACTIONS - Immutable bank-account movements
// =============================================================================

// TransactionType values are the exact strings stored on disk.
type TransactionType string

const (
	TxDeposit          TransactionType = "Deposit"
	TxExpense          TransactionType = "Expense"
	TxWithdraw         TransactionType = "Withdraw"
	TxAssetPurchase    TransactionType = "Asset Purchase"
	TxLoanDisbursement TransactionType = "Loan Disbursement"
	TxLoanPayment      TransactionType = "Loan Payment"
)

// ParseTransactionType validates a wire string against the closed set.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TxDeposit, TxExpense, TxWithdraw, TxAssetPurchase, TxLoanDisbursement, TxLoanPayment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
}

// Delta returns the signed effect of this transaction type on a bank
// account balance. Unknown types are rejected rather than guessed.
func (t TransactionType) Delta(amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case TxDeposit, TxLoanPayment:
		return amount, nil
	case TxExpense, TxWithdraw, TxAssetPurchase, TxLoanDisbursement:
		return amount.Neg(), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidTransactionType, t)
}

// RecordStatus applies to transactions and payments: they are Active once
// written and may only ever transition to Voided.
type RecordStatus string

const (
	StatusActive RecordStatus = "Active"
	StatusVoided RecordStatus = "Voided"
)

type Transaction struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"bankAccountId"`
	CounterpartyID string          `json:"counterpartyAccountId,omitempty"` // transfer: other account
	LinkedID       string          `json:"linkedId,omitempty"`              // transfer: sibling record, loans: loan id
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Date           Date            `json:"-"` // stored as day/month/year
	Status         RecordStatus    `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	VoidedAt       *time.Time      `json:"voidedAt,omitempty"`
}

// =============================================================================
// INVOICES
// =============================================================================

// InvoiceStatus values are the exact strings stored on disk.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "Pending"
	InvoicePartial InvoiceStatus = "Partial"
	InvoicePaid    InvoiceStatus = "Paid"
	InvoicePastDue InvoiceStatus = "Past Due"
	InvoiceVoided  InvoiceStatus = "Voided"
)

// LineItem is one invoice line. Field names follow the product document
// the POS embeds into invoices: "discount" is a percentage, "tax" marks
// the line taxable, "gst" is the tax percentage.
type LineItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"productName,omitempty"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	DiscountPct decimal.Decimal `json:"discount"`
	Taxable     bool            `json:"tax"`
	TaxPct      decimal.Decimal `json:"gst"`
	Total       decimal.Decimal `json:"total"` // qty*price - discount + tax
}

type Invoice struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"userId"`
	InvoiceNumber int64           `json:"invoiceNumber"`
	Lines         []LineItem      `json:"products"`
	SubTotal      decimal.Decimal `json:"subTotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Balance       decimal.Decimal `json:"invoiceBalance"`
	Status        InvoiceStatus   `json:"invoiceStatus"`
	DueDate       Date            `json:"dueDate"`
	IssuedDate    Date            `json:"-"` // stored as day/month/year
	Memo          string          `json:"memo,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	VoidedAt      *time.Time      `json:"voidedAt,omitempty"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type Payment struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoiceId,omitempty"` // empty = standalone credit
	CustomerID    string          `json:"userId"`
	BankAccountID string          `json:"bankAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"paymentMethod,omitempty"`
	Date          Date            `json:"-"`
	Status        RecordStatus    `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	VoidedAt      *time.Time      `json:"voidedAt,omitempty"`
}

// =============================================================================
// LOANS
// =============================================================================

type LoanStatus string

const (
	LoanActive LoanStatus = "Active"
	LoanPaid   LoanStatus = "Paid"
)

type LoanAccount struct {
	ID            string          `json:"id"`
	BankAccountID string          `json:"bankAccountId"`
	CustomerID    string          `json:"customerId"`
	LoanAmount    decimal.Decimal `json:"loanAmount"`
	Balance       decimal.Decimal `json:"balance"`
	Status        LoanStatus      `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// =============================================================================
// PRODUCTS - Referenced by invoices; stock mutated only by settlement
// =============================================================================

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"productName"`
	UPC         string          `json:"upc,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Quantity    int64           `json:"quantity"`
	Taxable     bool            `json:"tax"`
	TaxPct      decimal.Decimal `json:"gst"`
	DiscountPct decimal.Decimal `json:"discount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
