/*
loans.go - Loan disbursement and repayment

PURPOSE:
  Loans extend money to a customer out of a bank account. Disbursing
  creates the loan document and a "Loan Disbursement" transaction in one
  commit; each repayment walks the loan balance down and records a
  "Loan Payment" transaction. The transaction records link back to the
  loan through LinkedID so statements show where the money went.

SEE ALSO:
  - transactions.go: the record shape and sign conventions
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUESTS
// =============================================================================

// DisburseLoanRequest pays a loan out to a customer.
type DisburseLoanRequest struct {
	BankAccountID string
	CustomerID    string
	Amount        decimal.Decimal
	Description   string
	Date          Date
}

func (r DisburseLoanRequest) validate() error {
	if r.BankAccountID == "" {
		return &ValidationError{Field: "bankAccountId", Message: "bank account id is required"}
	}
	if r.CustomerID == "" {
		return &ValidationError{Field: "customerId", Message: "customer id is required"}
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// LoanPaymentRequest records a repayment against an existing loan.
type LoanPaymentRequest struct {
	LoanID      string
	Amount      decimal.Decimal
	Description string
	Date        Date
}

// =============================================================================
// OPERATIONS
// =============================================================================

// DisburseLoan pays Amount out of the bank to a customer. The bank must
// cover the full amount. The customer's owed balance rises by it, the loan
// document opens Active at the full amount, and the movement is recorded
// as a "Loan Disbursement" transaction.
func (s *Service) DisburseLoan(ctx context.Context, req DisburseLoanRequest) (LoanAccount, error) {
	if err := req.validate(); err != nil {
		return LoanAccount{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bank, err := s.store.GetAccount(ctx, KindBank, req.BankAccountID)
	if err != nil {
		return LoanAccount{}, err
	}
	customer, err := s.store.GetAccount(ctx, KindCustomer, req.CustomerID)
	if err != nil {
		return LoanAccount{}, err
	}
	if bank.Balance.LessThan(req.Amount) {
		return LoanAccount{}, &InsufficientFundsError{
			AccountID: bank.ID,
			Available: bank.Balance,
			Requested: req.Amount,
		}
	}

	now := s.clock.Now()
	loan := LoanAccount{
		ID:            s.store.NextID(CollectionLoans),
		BankAccountID: bank.ID,
		CustomerID:    customer.ID,
		LoanAmount:    req.Amount,
		Balance:       req.Amount,
		Status:        LoanActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx := Transaction{
		ID:          s.store.NextID(CollectionTransactions),
		AccountID:   bank.ID,
		LinkedID:    loan.ID,
		Type:        TxLoanDisbursement,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        s.dateOrToday(req.Date),
		Status:      StatusActive,
		CreatedAt:   now,
	}

	applyDelta(&bank, req.Amount.Neg(), now)
	applyDelta(&customer, req.Amount, now)

	batch := s.store.Batch()
	batch.SetLoan(loan)
	batch.SetTransaction(tx)
	batch.SetAccount(bank)
	batch.SetAccount(customer)
	if err := batch.Commit(ctx); err != nil {
		return LoanAccount{}, err
	}
	return loan, nil
}

// ReceiveLoanPayment records a repayment. The customer's owed balance
// drops, the bank balance rises, and the loan balance clamps at zero -
// overpaying the last installment marks the loan Paid rather than driving
// it negative.
func (s *Service) ReceiveLoanPayment(ctx context.Context, req LoanPaymentRequest) (LoanAccount, error) {
	if req.LoanID == "" {
		return LoanAccount{}, &ValidationError{Field: "loanId", Message: "loan id is required"}
	}
	if !req.Amount.IsPositive() {
		return LoanAccount{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.store.GetLoan(ctx, req.LoanID)
	if err != nil {
		return LoanAccount{}, err
	}
	bank, err := s.store.GetAccount(ctx, KindBank, loan.BankAccountID)
	if err != nil {
		return LoanAccount{}, err
	}
	customer, err := s.store.GetAccount(ctx, KindCustomer, loan.CustomerID)
	if err != nil {
		return LoanAccount{}, err
	}

	now := s.clock.Now()
	loan.Balance = loan.Balance.Sub(req.Amount)
	if loan.Balance.IsNegative() {
		loan.Balance = decimal.Zero
	}
	if loan.Balance.IsZero() {
		loan.Status = LoanPaid
	}
	loan.UpdatedAt = now

	tx := Transaction{
		ID:          s.store.NextID(CollectionTransactions),
		AccountID:   bank.ID,
		LinkedID:    loan.ID,
		Type:        TxLoanPayment,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        s.dateOrToday(req.Date),
		Status:      StatusActive,
		CreatedAt:   now,
	}

	applyDelta(&bank, req.Amount, now)
	applyDelta(&customer, req.Amount.Neg(), now)

	batch := s.store.Batch()
	batch.SetLoan(loan)
	batch.SetTransaction(tx)
	batch.SetAccount(bank)
	batch.SetAccount(customer)
	if err := batch.Commit(ctx); err != nil {
		return LoanAccount{}, err
	}
	return loan, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Loan returns a single loan.
func (s *Service) Loan(ctx context.Context, id string) (LoanAccount, error) {
	return s.store.GetLoan(ctx, id)
}

// Loans lists all loans.
func (s *Service) Loans(ctx context.Context) ([]LoanAccount, error) {
	return s.store.ListLoans(ctx)
}
