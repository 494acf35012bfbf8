/*
transactions.go - The transaction recorder

PURPOSE:
  Records immutable bank-account movements: deposits, expenses,
  withdrawals, asset purchases, and transfers between two accounts.
  Each record is created together with the balance change it causes in
  one atomic commit. Corrections never edit a record; Void reverses the
  balance effect and flips the record's status.

TRANSFER ORDERING:
  A transfer is two linked records (a Withdraw on the source, a Deposit
  on the destination) created in the same commit. The deposit is stamped
  one millisecond after the withdrawal so list views sorted by creation
  time always show the legs in a stable order.

SEE ALSO:
  - accounts.go: applyDelta
  - loans.go: loan disbursement/payment records reuse the same shape
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// transferLegOffset orders the deposit leg after the withdrawal leg.
const transferLegOffset = time.Millisecond

// =============================================================================
// REQUESTS
// =============================================================================

// RecordTransactionRequest records a single-account movement.
type RecordTransactionRequest struct {
	AccountID   string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	Date        Date
}

func (r RecordTransactionRequest) validate() error {
	if r.AccountID == "" {
		return &ValidationError{Field: "bankAccountId", Message: "account id is required"}
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch r.Type {
	case TxDeposit, TxExpense, TxWithdraw, TxAssetPurchase:
		return nil
	case TxLoanDisbursement, TxLoanPayment:
		// Loan records are only created by the loan operations, which
		// also maintain the loan document.
		return fmt.Errorf("%w: %q must be recorded through loan operations", ErrInvalidTransactionType, r.Type)
	}
	return fmt.Errorf("%w: %q", ErrInvalidTransactionType, r.Type)
}

// TransferRequest moves funds between two bank accounts.
type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
	Date          Date
}

func (r TransferRequest) validate() error {
	if r.FromAccountID == "" || r.ToAccountID == "" {
		return &ValidationError{Field: "bankAccountId", Message: "both account ids are required"}
	}
	if r.FromAccountID == r.ToAccountID {
		return &ValidationError{Field: "bankAccountId", Message: "cannot transfer to the same account"}
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// TransferResult identifies the two legs of a committed transfer.
type TransferResult struct {
	WithdrawID string
	DepositID  string
}

// =============================================================================
// OPERATIONS
// =============================================================================

// RecordSimple validates funds, creates the transaction record, and
// mutates the account balance in one atomic commit. The resulting balance
// must not go negative; a shortfall rejects the whole operation with
// nothing written.
func (s *Service) RecordSimple(ctx context.Context, req RecordTransactionRequest) (Transaction, error) {
	if err := req.validate(); err != nil {
		return Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.GetAccount(ctx, KindBank, req.AccountID)
	if err != nil {
		return Transaction{}, err
	}

	delta, err := req.Type.Delta(req.Amount)
	if err != nil {
		return Transaction{}, err
	}
	if account.Balance.Add(delta).IsNegative() {
		return Transaction{}, &InsufficientFundsError{
			AccountID: account.ID,
			Available: account.Balance,
			Requested: req.Amount,
		}
	}

	now := s.clock.Now()
	tx := Transaction{
		ID:          s.store.NextID(CollectionTransactions),
		AccountID:   account.ID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        s.dateOrToday(req.Date),
		Status:      StatusActive,
		CreatedAt:   now,
	}
	applyDelta(&account, delta, now)

	batch := s.store.Batch()
	batch.SetAccount(account)
	batch.SetTransaction(tx)
	if err := batch.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// RecordTransfer moves funds between two accounts as a linked
// Withdraw/Deposit pair. The source must cover the full amount.
func (s *Service) RecordTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := req.validate(); err != nil {
		return TransferResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.store.GetAccount(ctx, KindBank, req.FromAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := s.store.GetAccount(ctx, KindBank, req.ToAccountID)
	if err != nil {
		return TransferResult{}, err
	}

	if from.Balance.LessThan(req.Amount) {
		return TransferResult{}, &InsufficientFundsError{
			AccountID: from.ID,
			Available: from.Balance,
			Requested: req.Amount,
		}
	}

	now := s.clock.Now()
	date := s.dateOrToday(req.Date)

	withdraw := Transaction{
		ID:             s.store.NextID(CollectionTransactions),
		AccountID:      from.ID,
		CounterpartyID: to.ID,
		Type:           TxWithdraw,
		Amount:         req.Amount,
		Description:    req.Description,
		Date:           date,
		Status:         StatusActive,
		CreatedAt:      now,
	}
	deposit := Transaction{
		ID:             s.store.NextID(CollectionTransactions),
		AccountID:      to.ID,
		CounterpartyID: from.ID,
		LinkedID:       withdraw.ID,
		Type:           TxDeposit,
		Amount:         req.Amount,
		Description:    req.Description,
		Date:           date,
		Status:         StatusActive,
		CreatedAt:      now.Add(transferLegOffset),
	}
	withdraw.LinkedID = deposit.ID

	applyDelta(&from, req.Amount.Neg(), now)
	applyDelta(&to, req.Amount, now)

	batch := s.store.Batch()
	batch.SetAccount(from)
	batch.SetAccount(to)
	batch.SetTransaction(withdraw)
	batch.SetTransaction(deposit)
	if err := batch.Commit(ctx); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{WithdrawID: withdraw.ID, DepositID: deposit.ID}, nil
}

// VoidTransaction reverses a transaction's balance effect and marks it
// Voided. Voiding a transfer voids one leg at a time, matching how the
// records are listed and selected. The reversal must not take the account
// negative.
func (s *Service) VoidTransaction(ctx context.Context, id string) (Transaction, error) {
	if id == "" {
		return Transaction{}, &ValidationError{Field: "id", Message: "transaction id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if tx.Status != StatusActive {
		return Transaction{}, ErrAlreadyVoided
	}

	account, err := s.store.GetAccount(ctx, KindBank, tx.AccountID)
	if err != nil {
		return Transaction{}, err
	}

	delta, err := tx.Type.Delta(tx.Amount)
	if err != nil {
		return Transaction{}, err
	}
	reversal := delta.Neg()
	if account.Balance.Add(reversal).IsNegative() {
		return Transaction{}, &InsufficientFundsError{
			AccountID: account.ID,
			Available: account.Balance,
			Requested: tx.Amount,
		}
	}

	now := s.clock.Now()
	tx.Status = StatusVoided
	tx.VoidedAt = &now
	applyDelta(&account, reversal, now)

	batch := s.store.Batch()
	batch.SetAccount(account)
	batch.SetTransaction(tx)
	if err := batch.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Transaction returns a single transaction.
func (s *Service) Transaction(ctx context.Context, id string) (Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// TransactionsByMonth lists transactions recorded for a calendar month.
func (s *Service) TransactionsByMonth(ctx context.Context, year, month int) ([]Transaction, error) {
	return s.store.TransactionsByMonth(ctx, year, month)
}

func (s *Service) dateOrToday(d Date) Date {
	if d.IsZero() {
		return DateOf(s.clock.Now())
	}
	return d
}
