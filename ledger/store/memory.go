/*
Package store provides the in-memory Store implementation (for testing/dev).

PURPOSE:
  A map-per-collection document store with the same atomic-batch contract
  as the SQLite store. Everything is guarded by one RWMutex; a batch
  commit validates its staged documents and applies them all under the
  write lock, so readers never observe a half-applied operation.

SEE ALSO:
  - ledger/store.go: the interface this implements
  - store/sqlite: the durable implementation
*/
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	bankAccounts map[string]ledger.Account
	customers    map[string]ledger.Account
	products     map[string]ledger.Product
	invoices     map[string]ledger.Invoice
	payments     map[string]ledger.Payment
	transactions map[string]ledger.Transaction
	loans        map[string]ledger.LoanAccount
}

func NewMemory() *Memory {
	return &Memory{
		bankAccounts: make(map[string]ledger.Account),
		customers:    make(map[string]ledger.Account),
		products:     make(map[string]ledger.Product),
		invoices:     make(map[string]ledger.Invoice),
		payments:     make(map[string]ledger.Payment),
		transactions: make(map[string]ledger.Transaction),
		loans:        make(map[string]ledger.LoanAccount),
	}
}

func (m *Memory) accountsFor(kind ledger.AccountKind) map[string]ledger.Account {
	if kind == ledger.KindCustomer {
		return m.customers
	}
	return m.bankAccounts
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) GetAccount(_ context.Context, kind ledger.AccountKind, id string) (ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accountsFor(kind)[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	a.Kind = kind
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context, kind ledger.AccountKind) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := m.accountsFor(kind)
	result := make([]ledger.Account, 0, len(accounts))
	for _, a := range accounts {
		a.Kind = kind
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DisplayName < result[j].DisplayName })
	return result, nil
}

func (m *Memory) PutAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountsFor(a.Kind)[a.ID] = a
	return nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (m *Memory) GetProduct(_ context.Context, id string) (ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return ledger.Product{}, ledger.ErrProductNotFound
	}
	return p, nil
}

func (m *Memory) ListProducts(_ context.Context, status string) ([]ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Product
	for _, p := range m.products {
		if status != "" && p.Status != status {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) PutProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) GetInvoice(_ context.Context, id string) (ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[id]
	if !ok {
		return ledger.Invoice{}, ledger.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *Memory) InvoicesByYear(_ context.Context, year int) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.IssuedDate.Year == year {
			result = append(result, inv)
		}
	}
	sortInvoices(result)
	return result, nil
}

func (m *Memory) InvoicesByMonth(_ context.Context, year, month int) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.IssuedDate.Year == year && inv.IssuedDate.Month == month {
			result = append(result, inv)
		}
	}
	sortInvoices(result)
	return result, nil
}

func (m *Memory) InvoicesByStatus(_ context.Context, year int, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.IssuedDate.Year == year && inv.Status == status {
			result = append(result, inv)
		}
	}
	sortInvoices(result)
	return result, nil
}

func (m *Memory) InvoicesByMonthAndStatus(_ context.Context, year, month int, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.IssuedDate.Year == year && inv.IssuedDate.Month == month && inv.Status == status {
			result = append(result, inv)
		}
	}
	sortInvoices(result)
	return result, nil
}

func (m *Memory) InvoicesDueOn(_ context.Context, due ledger.Date) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.DueDate.Equal(due) {
			result = append(result, inv)
		}
	}
	sortInvoices(result)
	return result, nil
}

func (m *Memory) MaxInvoiceNumber(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var max int64
	for _, inv := range m.invoices {
		if inv.InvoiceNumber > max {
			max = inv.InvoiceNumber
		}
	}
	return max, nil
}

func sortInvoices(invs []ledger.Invoice) {
	sort.Slice(invs, func(i, j int) bool { return invs[i].InvoiceNumber < invs[j].InvoiceNumber })
}

// =============================================================================
// TRANSACTIONS / PAYMENTS / LOANS
// =============================================================================

func (m *Memory) GetTransaction(_ context.Context, id string) (ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *Memory) TransactionsByMonth(_ context.Context, year, month int) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.Date.Year == year && tx.Date.Month == month {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return ledger.Payment{}, ledger.ErrPaymentNotFound
	}
	return p, nil
}

func (m *Memory) PaymentsByMonth(_ context.Context, year, month int) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Payment
	for _, p := range m.payments {
		if p.Date.Year == year && p.Date.Month == month {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) GetLoan(_ context.Context, id string) (ledger.LoanAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.loans[id]
	if !ok {
		return ledger.LoanAccount{}, ledger.ErrLoanNotFound
	}
	return l, nil
}

func (m *Memory) ListLoans(_ context.Context) ([]ledger.LoanAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.LoanAccount, 0, len(m.loans))
	for _, l := range m.loans {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bankAccounts = make(map[string]ledger.Account)
	m.customers = make(map[string]ledger.Account)
	m.products = make(map[string]ledger.Product)
	m.invoices = make(map[string]ledger.Invoice)
	m.payments = make(map[string]ledger.Payment)
	m.transactions = make(map[string]ledger.Transaction)
	m.loans = make(map[string]ledger.LoanAccount)
	return nil
}

// =============================================================================
// IDS AND BATCHES
// =============================================================================

// NextID allocates a random document id. No side effects; ids handed to
// batches that never commit are discarded.
func (m *Memory) NextID(_ ledger.Collection) string {
	return uuid.NewString()
}

func (m *Memory) Batch() ledger.Batch {
	return &memoryBatch{store: m}
}

// memoryBatch stages documents and applies them under one write lock.
type memoryBatch struct {
	store        *Memory
	accounts     []ledger.Account
	products     []ledger.Product
	invoices     []ledger.Invoice
	transactions []ledger.Transaction
	payments     []ledger.Payment
	loans        []ledger.LoanAccount
}

func (b *memoryBatch) SetAccount(a ledger.Account)        { b.accounts = append(b.accounts, a) }
func (b *memoryBatch) SetProduct(p ledger.Product)        { b.products = append(b.products, p) }
func (b *memoryBatch) SetInvoice(inv ledger.Invoice)      { b.invoices = append(b.invoices, inv) }
func (b *memoryBatch) SetTransaction(t ledger.Transaction) { b.transactions = append(b.transactions, t) }
func (b *memoryBatch) SetPayment(p ledger.Payment)        { b.payments = append(b.payments, p) }
func (b *memoryBatch) SetLoan(l ledger.LoanAccount)       { b.loans = append(b.loans, l) }

func (b *memoryBatch) Commit(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	// Validate before touching anything so a failure applies nothing.
	for _, inv := range b.invoices {
		for id, existing := range b.store.invoices {
			if id != inv.ID && existing.InvoiceNumber == inv.InvoiceNumber {
				return ledger.ErrDuplicateInvoiceNumber
			}
		}
	}

	for _, a := range b.accounts {
		b.store.accountsFor(a.Kind)[a.ID] = a
	}
	for _, p := range b.products {
		b.store.products[p.ID] = p
	}
	for _, inv := range b.invoices {
		b.store.invoices[inv.ID] = inv
	}
	for _, tx := range b.transactions {
		b.store.transactions[tx.ID] = tx
	}
	for _, p := range b.payments {
		b.store.payments[p.ID] = p
	}
	for _, l := range b.loans {
		b.store.loans[l.ID] = l
	}
	return nil
}
