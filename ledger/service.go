/*
service.go - The ledger service: operation entry points and serialization

PURPOSE:
  Service is the single entry point the UI (or HTTP layer) calls. Each
  operation follows the same shape: validate the request, read every
  affected document, compute new balances and statuses, stage all writes
  into one batch, commit.

CONCURRENCY:
  The store's atomic batch guarantees all-or-nothing visibility but not
  isolation between operations that read-then-write the same account. The
  source system left that race open; here every mutating operation runs
  under one service-level mutex, which serializes conflicting mutations in
  a single process and makes invoice numbering gapless. A deployment with
  several processes sharing one store would still need conditional writes
  or per-account queues - that remains an explicit limitation, not a
  hidden one (see DESIGN.md).

SEE ALSO:
  - accounts.go, transactions.go, invoices.go, payments.go, loans.go
*/
package ledger

import "sync"

// Service exposes the ledger operations. Construct with New.
type Service struct {
	store Store
	clock Clock

	// mu serializes read-then-commit mutations. Read-only queries do not
	// take it; the store implementations are individually thread-safe.
	mu sync.Mutex
}

// New creates a Service. A nil clock selects the system clock.
func New(store Store, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{store: store, clock: clock}
}
