/*
store.go - Persistence boundary for the ledger core

PURPOSE:
  Defines the interface between the ledger core and the document store.
  The core reads whole documents, decides, and commits every affected
  document through one atomic batch. Different implementations can use
  SQLite or in-memory storage.

KEY INTERFACES:
  Store: typed per-collection reads, queries, id allocation, Batch()
  Batch: all-or-nothing staging of full-document writes

ATOMIC BATCHES:
  Batch.Commit applies every staged document or none of them. The core
  never writes outside a batch, and a batch is only committed after all
  validation has passed - so a failed operation leaves no partial state.

WHAT THE STORE DOES NOT DO:
  No serializable isolation across operations. Two concurrent
  read-then-commit sequences against the same account can lose an update;
  the Service serializes its own mutations to close that window in a
  single process (see service.go).

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite, one table per collection

SEE ALSO:
  - service.go: the only caller of Batch()
*/
package ledger

import "context"

// =============================================================================
// COLLECTIONS - Names are part of the stored-data contract
// =============================================================================

type Collection string

const (
	CollectionBankAccounts Collection = "bankAccounts"
	CollectionUsers        Collection = "users"
	CollectionProducts     Collection = "products"
	CollectionInvoices     Collection = "invoices"
	CollectionPayments     Collection = "payments"
	CollectionTransactions Collection = "transactions"
	CollectionLoans        Collection = "loans"
)

// =============================================================================
// STORE - Document reads, queries, and batch creation
// =============================================================================

// Store is the narrow document-database boundary. Get methods return the
// matching not-found sentinel from errors.go when the id does not resolve.
// Put methods are single-document upserts for plain CRUD (opening an
// account, adding a product); every balance-touching write goes through a
// Batch instead.
type Store interface {
	GetAccount(ctx context.Context, kind AccountKind, id string) (Account, error)
	ListAccounts(ctx context.Context, kind AccountKind) ([]Account, error)
	PutAccount(ctx context.Context, a Account) error

	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, status string) ([]Product, error)
	PutProduct(ctx context.Context, p Product) error

	GetInvoice(ctx context.Context, id string) (Invoice, error)
	InvoicesByYear(ctx context.Context, year int) ([]Invoice, error)
	InvoicesByMonth(ctx context.Context, year, month int) ([]Invoice, error)
	InvoicesByStatus(ctx context.Context, year int, status InvoiceStatus) ([]Invoice, error)
	InvoicesByMonthAndStatus(ctx context.Context, year, month int, status InvoiceStatus) ([]Invoice, error)
	InvoicesDueOn(ctx context.Context, due Date) ([]Invoice, error)
	// MaxInvoiceNumber returns the highest assigned invoice number, or 0
	// when no invoices exist.
	MaxInvoiceNumber(ctx context.Context) (int64, error)

	GetTransaction(ctx context.Context, id string) (Transaction, error)
	TransactionsByMonth(ctx context.Context, year, month int) ([]Transaction, error)

	GetPayment(ctx context.Context, id string) (Payment, error)
	PaymentsByMonth(ctx context.Context, year, month int) ([]Payment, error)

	GetLoan(ctx context.Context, id string) (LoanAccount, error)
	ListLoans(ctx context.Context) ([]LoanAccount, error)

	// NextID allocates an opaque document id for a collection. Allocation
	// has no side effects; an id for a batch that never commits is simply
	// discarded.
	NextID(c Collection) string

	// Batch begins an empty atomic batch.
	Batch() Batch
}

// =============================================================================
// BATCH - All-or-nothing multi-document commit
// =============================================================================

// Batch stages full-document writes. Set methods replace the stored
// document wholesale on commit; they never fail at staging time.
// Commit applies everything atomically or returns an error having
// applied nothing.
type Batch interface {
	SetAccount(a Account)
	SetProduct(p Product)
	SetInvoice(inv Invoice)
	SetTransaction(tx Transaction)
	SetPayment(p Payment)
	SetLoan(l LoanAccount)

	Commit(ctx context.Context) error
}
