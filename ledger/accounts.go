/*
accounts.go - Account CRUD and the balance mutator

PURPOSE:
  Accounts (bank and customer) are the balance-bearing documents every
  other operation pivots on. The only way a balance changes is through
  applyDelta inside an atomic batch assembled by one of the Service
  operations; nothing in this repository read-modify-writes a balance
  outside a batch.

SEE ALSO:
  - transactions.go, invoices.go, payments.go, loans.go: the callers
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE MUTATOR
// =============================================================================

// applyDelta applies a signed delta to an account and stamps the update
// time. It mutates the in-memory copy only; the caller stages the account
// into the enclosing batch. Returns the new balance.
func applyDelta(a *Account, delta decimal.Decimal, now time.Time) decimal.Decimal {
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = now
	return a.Balance
}

// =============================================================================
// REQUESTS
// =============================================================================

// OpenAccountRequest creates a bank or customer account.
type OpenAccountRequest struct {
	Kind          AccountKind
	DisplayName   string
	AccountNumber string          // bank accounts only
	OpeningAmount decimal.Decimal // starting balance, may be zero
}

func (r OpenAccountRequest) validate() error {
	if strings.TrimSpace(r.DisplayName) == "" {
		return &ValidationError{Field: "displayName", Message: "display name is required"}
	}
	if r.Kind != KindBank && r.Kind != KindCustomer {
		return &ValidationError{Field: "kind", Message: "kind must be bank or customer"}
	}
	if r.OpeningAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// OpenAccount creates a new account. Accounts start Active; they are
// deactivated with UpdateAccountStatus, never deleted.
func (s *Service) OpenAccount(ctx context.Context, req OpenAccountRequest) (Account, error) {
	if err := req.validate(); err != nil {
		return Account{}, err
	}

	now := s.clock.Now()
	a := Account{
		ID:            s.store.NextID(collectionFor(req.Kind)),
		Kind:          req.Kind,
		DisplayName:   req.DisplayName,
		AccountNumber: req.AccountNumber,
		Balance:       req.OpeningAmount,
		Status:        AccountActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.PutAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Account returns a single account.
func (s *Service) Account(ctx context.Context, kind AccountKind, id string) (Account, error) {
	return s.store.GetAccount(ctx, kind, id)
}

// Accounts lists all accounts of a kind.
func (s *Service) Accounts(ctx context.Context, kind AccountKind) ([]Account, error) {
	return s.store.ListAccounts(ctx, kind)
}

// UpdateAccountStatus flips the soft status flag. Balances are untouched.
func (s *Service) UpdateAccountStatus(ctx context.Context, kind AccountKind, id, status string) (Account, error) {
	if status != AccountActive && status != AccountInactive {
		return Account{}, &ValidationError{Field: "status", Message: "status must be Active or Inactive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.GetAccount(ctx, kind, id)
	if err != nil {
		return Account{}, err
	}
	a.Status = status
	a.UpdatedAt = s.clock.Now()
	if err := s.store.PutAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func collectionFor(kind AccountKind) Collection {
	if kind == KindCustomer {
		return CollectionUsers
	}
	return CollectionBankAccounts
}
