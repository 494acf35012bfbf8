/*
payments.go - Standalone customer credits and payment reversal

PURPOSE:
  Two payment paths exist. Payments against an invoice live in invoices.go
  next to the balance walk they drive. This file holds the rest: credits a
  customer pays in without an invoice, and the void path shared by both.

VOID SEMANTICS:
  Voiding a payment returns the money: the bank balance drops by the
  amount (and must not go negative), the customer owes the amount again,
  and if the payment was applied to an invoice that invoice's balance is
  restored and its status recomputed. A voided invoice keeps its zeroed
  totals; voiding its payment only moves the balances back.

SEE ALSO:
  - invoices.go: ApplyPayment, statusFor
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUESTS
// =============================================================================

// AddCreditRequest records money received from a customer with no invoice
// attached. The amount lands in the bank and sits on the customer as
// credit (a negative owed balance) until an invoice consumes it.
type AddCreditRequest struct {
	CustomerID    string
	BankAccountID string
	Amount        decimal.Decimal
	Method        string
	Date          Date
}

func (r AddCreditRequest) validate() error {
	if r.CustomerID == "" {
		return &ValidationError{Field: "userId", Message: "customer id is required"}
	}
	if r.BankAccountID == "" {
		return &ValidationError{Field: "bankAccountId", Message: "bank account id is required"}
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// AddStandaloneCredit deposits a customer's money without an invoice. The
// customer's owed balance drops (possibly below zero) and the bank balance
// rises, atomically with the payment record.
func (s *Service) AddStandaloneCredit(ctx context.Context, req AddCreditRequest) (Payment, error) {
	if err := req.validate(); err != nil {
		return Payment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, err := s.store.GetAccount(ctx, KindCustomer, req.CustomerID)
	if err != nil {
		return Payment{}, err
	}
	bank, err := s.store.GetAccount(ctx, KindBank, req.BankAccountID)
	if err != nil {
		return Payment{}, err
	}

	now := s.clock.Now()
	pay := Payment{
		ID:            s.store.NextID(CollectionPayments),
		CustomerID:    customer.ID,
		BankAccountID: bank.ID,
		Amount:        req.Amount,
		Method:        req.Method,
		Date:          s.dateOrToday(req.Date),
		Status:        StatusActive,
		CreatedAt:     now,
	}

	applyDelta(&customer, req.Amount.Neg(), now)
	applyDelta(&bank, req.Amount, now)

	batch := s.store.Batch()
	batch.SetPayment(pay)
	batch.SetAccount(customer)
	batch.SetAccount(bank)
	if err := batch.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return pay, nil
}

// VoidPayment reverses a payment: the customer owes the amount again and
// the bank gives it back. If the payment was applied to an invoice whose
// totals were not since zeroed by a void, the invoice balance is restored
// and its status recomputed from the restored numbers.
func (s *Service) VoidPayment(ctx context.Context, id string) (Payment, error) {
	if id == "" {
		return Payment{}, &ValidationError{Field: "id", Message: "payment id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pay, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if pay.Status != StatusActive {
		return Payment{}, ErrAlreadyVoided
	}

	customer, err := s.store.GetAccount(ctx, KindCustomer, pay.CustomerID)
	if err != nil {
		return Payment{}, err
	}
	bank, err := s.store.GetAccount(ctx, KindBank, pay.BankAccountID)
	if err != nil {
		return Payment{}, err
	}
	if bank.Balance.LessThan(pay.Amount) {
		return Payment{}, &InsufficientFundsError{
			AccountID: bank.ID,
			Available: bank.Balance,
			Requested: pay.Amount,
		}
	}

	now := s.clock.Now()
	batch := s.store.Batch()

	if pay.InvoiceID != "" {
		inv, err := s.store.GetInvoice(ctx, pay.InvoiceID)
		if err != nil {
			return Payment{}, err
		}
		// A voided invoice has zeroed totals; restoring a balance onto it
		// would resurrect a cancelled debt.
		if !inv.GrandTotal.IsZero() {
			inv.Balance = inv.Balance.Add(pay.Amount)
			inv.Status = statusFor(inv.Balance, inv.GrandTotal, inv.DueDate, DateOf(now))
			inv.UpdatedAt = now
			batch.SetInvoice(inv)
		}
	}

	pay.Status = StatusVoided
	pay.VoidedAt = &now
	applyDelta(&customer, pay.Amount, now)
	applyDelta(&bank, pay.Amount.Neg(), now)

	batch.SetPayment(pay)
	batch.SetAccount(customer)
	batch.SetAccount(bank)
	if err := batch.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return pay, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Payment returns a single payment.
func (s *Service) Payment(ctx context.Context, id string) (Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// PaymentsByMonth lists payments recorded for a calendar month.
func (s *Service) PaymentsByMonth(ctx context.Context, year, month int) ([]Payment, error) {
	return s.store.PaymentsByMonth(ctx, year, month)
}
