/*
Package sqlite provides the SQLite-backed implementation of ledger.Store.

PURPOSE:
  One table per document collection, one row per document. Monetary values
  are stored as decimal strings (TEXT), never floats, and parsed back with
  shopspring/decimal. Invoice line items are stored as a JSON column since
  they are always read and written with their invoice.

ATOMIC BATCHES:
  ledger.Batch maps to a single database transaction: every staged
  document is upserted inside one BEGIN/COMMIT, so an operation's writes
  become visible together or not at all.

INTEGRITY:
  A unique index on invoices(invoice_number) backs the gapless numbering
  the service maintains. A violation surfaces as
  ledger.ErrDuplicateInvoiceNumber and means a second writer is sharing
  the database file.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/acpos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.New(store, nil)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Bank accounts (money on hand)
	CREATE TABLE IF NOT EXISTS bank_accounts (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		account_number TEXT,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Customer accounts (money owed by the customer)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		account_number TEXT,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Product catalog; quantity is mutated only by invoice settlement
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		product_name TEXT NOT NULL,
		upc TEXT,
		price TEXT NOT NULL,
		cost TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		taxable BOOLEAN NOT NULL DEFAULT FALSE,
		tax_pct TEXT NOT NULL,
		discount_pct TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);

	-- Invoices; line items travel with their invoice as JSON
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		invoice_number INTEGER NOT NULL,
		lines_json TEXT NOT NULL,
		sub_total TEXT NOT NULL,
		discount_total TEXT NOT NULL,
		tax_total TEXT NOT NULL,
		grand_total TEXT NOT NULL,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		due_year INTEGER NOT NULL DEFAULT 0,
		due_month INTEGER NOT NULL DEFAULT 0,
		due_day INTEGER NOT NULL DEFAULT 0,
		issued_year INTEGER NOT NULL,
		issued_month INTEGER NOT NULL,
		issued_day INTEGER NOT NULL,
		memo TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		voided_at TEXT
	);

	-- Backstop for gapless numbering: the service serializes allocation,
	-- this catches a second process sharing the file.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_number
		ON invoices(invoice_number);
	CREATE INDEX IF NOT EXISTS idx_invoices_month
		ON invoices(issued_year, issued_month);
	CREATE INDEX IF NOT EXISTS idx_invoices_status
		ON invoices(issued_year, status);
	CREATE INDEX IF NOT EXISTS idx_invoices_due
		ON invoices(due_year, due_month, due_day);

	-- Bank-account movements
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		counterparty_id TEXT,
		linked_id TEXT,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		voided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_month
		ON transactions(year, month);
	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id);

	-- Payments received
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		invoice_id TEXT,
		customer_id TEXT NOT NULL,
		bank_account_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		voided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payments_month
		ON payments(year, month);
	CREATE INDEX IF NOT EXISTS idx_payments_invoice
		ON payments(invoice_id) WHERE invoice_id IS NOT NULL;

	-- Loans
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		bank_account_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		loan_amount TEXT NOT NULL,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func accountTable(kind ledger.AccountKind) string {
	if kind == ledger.KindCustomer {
		return "users"
	}
	return "bank_accounts"
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) GetAccount(ctx context.Context, kind ledger.AccountKind, id string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(
		"SELECT id, display_name, account_number, balance, status, created_at, updated_at FROM %s WHERE id = ?",
		accountTable(kind))

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	a.Kind = kind
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, kind ledger.AccountKind) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(
		"SELECT id, display_name, account_number, balance, status, created_at, updated_at FROM %s ORDER BY display_name",
		accountTable(kind))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		a.Kind = kind
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) PutAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return upsertAccount(ctx, s.db, a)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertAccount(ctx context.Context, db execer, a ledger.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, display_name, account_number, balance, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			account_number = excluded.account_number,
			balance = excluded.balance,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, accountTable(a.Kind))

	_, err := db.ExecContext(ctx, query,
		a.ID, a.DisplayName, a.AccountNumber, a.Balance.String(), a.Status,
		a.CreatedAt.Format(time.RFC3339Nano), a.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (ledger.Account, error) {
	var (
		a                    ledger.Account
		accountNumber        sql.NullString
		balance              string
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.DisplayName, &accountNumber, &balance, &a.Status, &createdAt, &updatedAt); err != nil {
		return a, err
	}
	a.AccountNumber = accountNumber.String
	a.Balance = mustDecimal(balance)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) GetProduct(ctx context.Context, id string) (ledger.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanProduct(s.db.QueryRowContext(ctx,
		"SELECT id, product_name, upc, price, cost, quantity, taxable, tax_pct, discount_pct, status, created_at, updated_at FROM products WHERE id = ?",
		id))
	if err == sql.ErrNoRows {
		return ledger.Product{}, ledger.ErrProductNotFound
	}
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, status string) ([]ledger.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, product_name, upc, price, cost, quantity, taxable, tax_pct, discount_pct, status, created_at, updated_at FROM products"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY product_name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) PutProduct(ctx context.Context, p ledger.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return upsertProduct(ctx, s.db, p)
}

func upsertProduct(ctx context.Context, db execer, p ledger.Product) error {
	query := `
		INSERT INTO products (id, product_name, upc, price, cost, quantity, taxable, tax_pct, discount_pct, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_name = excluded.product_name,
			upc = excluded.upc,
			price = excluded.price,
			cost = excluded.cost,
			quantity = excluded.quantity,
			taxable = excluded.taxable,
			tax_pct = excluded.tax_pct,
			discount_pct = excluded.discount_pct,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		p.ID, p.Name, p.UPC, p.Price.String(), p.Cost.String(), p.Quantity,
		p.Taxable, p.TaxPct.String(), p.DiscountPct.String(), p.Status,
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func scanProduct(row rowScanner) (ledger.Product, error) {
	var (
		p                             ledger.Product
		upc                           sql.NullString
		price, cost, taxPct, discPct  string
		createdAt, updatedAt          string
	)
	if err := row.Scan(&p.ID, &p.Name, &upc, &price, &cost, &p.Quantity,
		&p.Taxable, &taxPct, &discPct, &p.Status, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.UPC = upc.String
	p.Price = mustDecimal(price)
	p.Cost = mustDecimal(cost)
	p.TaxPct = mustDecimal(taxPct)
	p.DiscountPct = mustDecimal(discPct)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = `id, customer_id, invoice_number, lines_json, sub_total, discount_total,
	tax_total, grand_total, balance, status, due_year, due_month, due_day,
	issued_year, issued_month, issued_day, memo, created_at, updated_at, voided_at`

func (s *Store) GetInvoice(ctx context.Context, id string) (ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, err := scanInvoice(s.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return ledger.Invoice{}, ledger.ErrInvoiceNotFound
	}
	return inv, err
}

func (s *Store) InvoicesByYear(ctx context.Context, year int) ([]ledger.Invoice, error) {
	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE issued_year = ? ORDER BY invoice_number",
		year)
}

func (s *Store) InvoicesByMonth(ctx context.Context, year, month int) ([]ledger.Invoice, error) {
	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE issued_year = ? AND issued_month = ? ORDER BY invoice_number",
		year, month)
}

func (s *Store) InvoicesByStatus(ctx context.Context, year int, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE issued_year = ? AND status = ? ORDER BY invoice_number",
		year, string(status))
}

func (s *Store) InvoicesByMonthAndStatus(ctx context.Context, year, month int, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE issued_year = ? AND issued_month = ? AND status = ? ORDER BY invoice_number",
		year, month, string(status))
}

func (s *Store) InvoicesDueOn(ctx context.Context, due ledger.Date) ([]ledger.Invoice, error) {
	return s.queryInvoices(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE due_year = ? AND due_month = ? AND due_day = ? ORDER BY invoice_number",
		due.Year, due.Month, due.Day)
}

func (s *Store) MaxInvoiceNumber(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(invoice_number) FROM invoices").Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func upsertInvoice(ctx context.Context, db execer, inv ledger.Invoice) error {
	linesJSON, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode invoice lines: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lines_json = excluded.lines_json,
			sub_total = excluded.sub_total,
			discount_total = excluded.discount_total,
			tax_total = excluded.tax_total,
			grand_total = excluded.grand_total,
			balance = excluded.balance,
			status = excluded.status,
			memo = excluded.memo,
			updated_at = excluded.updated_at,
			voided_at = excluded.voided_at
	`

	_, err = db.ExecContext(ctx, query,
		inv.ID, inv.CustomerID, inv.InvoiceNumber, string(linesJSON),
		inv.SubTotal.String(), inv.DiscountTotal.String(), inv.TaxTotal.String(),
		inv.GrandTotal.String(), inv.Balance.String(), string(inv.Status),
		inv.DueDate.Year, inv.DueDate.Month, inv.DueDate.Day,
		inv.IssuedDate.Year, inv.IssuedDate.Month, inv.IssuedDate.Day,
		inv.Memo,
		inv.CreatedAt.Format(time.RFC3339Nano), inv.UpdatedAt.Format(time.RFC3339Nano),
		nullTime(inv.VoidedAt),
	)
	if err != nil && isUniqueConstraintError(err) {
		return ledger.ErrDuplicateInvoiceNumber
	}
	return err
}

func scanInvoice(row rowScanner) (ledger.Invoice, error) {
	var (
		inv                                  ledger.Invoice
		linesJSON                            string
		sub, disc, tax, grand, balance       string
		status, createdAt, updatedAt         string
		memo, voidedAt                       sql.NullString
	)
	err := row.Scan(
		&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &linesJSON,
		&sub, &disc, &tax, &grand, &balance, &status,
		&inv.DueDate.Year, &inv.DueDate.Month, &inv.DueDate.Day,
		&inv.IssuedDate.Year, &inv.IssuedDate.Month, &inv.IssuedDate.Day,
		&memo, &createdAt, &updatedAt, &voidedAt,
	)
	if err != nil {
		return inv, err
	}

	if err := json.Unmarshal([]byte(linesJSON), &inv.Lines); err != nil {
		return inv, fmt.Errorf("failed to decode invoice lines: %w", err)
	}
	inv.SubTotal = mustDecimal(sub)
	inv.DiscountTotal = mustDecimal(disc)
	inv.TaxTotal = mustDecimal(tax)
	inv.GrandTotal = mustDecimal(grand)
	inv.Balance = mustDecimal(balance)
	inv.Status = ledger.InvoiceStatus(status)
	inv.Memo = memo.String
	inv.CreatedAt = parseTime(createdAt)
	inv.UpdatedAt = parseTime(updatedAt)
	inv.VoidedAt = parseNullTime(voidedAt)
	return inv, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, account_id, counterparty_id, linked_id, tx_type, amount,
	description, year, month, day, status, created_at, voided_at`

func (s *Store) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := scanTransaction(s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, err
}

func (s *Store) TransactionsByMonth(ctx context.Context, year, month int) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE year = ? AND month = ? ORDER BY created_at",
		year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func upsertTransaction(ctx context.Context, db execer, tx ledger.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			voided_at = excluded.voided_at
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.CounterpartyID, tx.LinkedID, string(tx.Type),
		tx.Amount.String(), tx.Description,
		tx.Date.Year, tx.Date.Month, tx.Date.Day,
		string(tx.Status), tx.CreatedAt.Format(time.RFC3339Nano), nullTime(tx.VoidedAt),
	)
	return err
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		tx                           ledger.Transaction
		counterparty, linked         sql.NullString
		txType, amount, status       string
		description, voidedAt        sql.NullString
		createdAt                    string
	)
	err := row.Scan(
		&tx.ID, &tx.AccountID, &counterparty, &linked, &txType, &amount,
		&description, &tx.Date.Year, &tx.Date.Month, &tx.Date.Day,
		&status, &createdAt, &voidedAt,
	)
	if err != nil {
		return tx, err
	}

	tx.CounterpartyID = counterparty.String
	tx.LinkedID = linked.String
	tx.Type = ledger.TransactionType(txType)
	tx.Amount = mustDecimal(amount)
	tx.Description = description.String
	tx.Status = ledger.RecordStatus(status)
	tx.CreatedAt = parseTime(createdAt)
	tx.VoidedAt = parseNullTime(voidedAt)
	return tx, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `id, invoice_id, customer_id, bank_account_id, amount, method,
	year, month, day, status, created_at, voided_at`

func (s *Store) GetPayment(ctx context.Context, id string) (ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanPayment(s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return ledger.Payment{}, ledger.ErrPaymentNotFound
	}
	return p, err
}

func (s *Store) PaymentsByMonth(ctx context.Context, year, month int) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE year = ? AND month = ? ORDER BY created_at",
		year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func upsertPayment(ctx context.Context, db execer, p ledger.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			voided_at = excluded.voided_at
	`

	_, err := db.ExecContext(ctx, query,
		p.ID, nullString(p.InvoiceID), p.CustomerID, p.BankAccountID,
		p.Amount.String(), p.Method,
		p.Date.Year, p.Date.Month, p.Date.Day,
		string(p.Status), p.CreatedAt.Format(time.RFC3339Nano), nullTime(p.VoidedAt),
	)
	return err
}

func scanPayment(row rowScanner) (ledger.Payment, error) {
	var (
		p                       ledger.Payment
		invoiceID               sql.NullString
		amount, status          string
		method, voidedAt        sql.NullString
		createdAt               string
	)
	err := row.Scan(
		&p.ID, &invoiceID, &p.CustomerID, &p.BankAccountID, &amount, &method,
		&p.Date.Year, &p.Date.Month, &p.Date.Day,
		&status, &createdAt, &voidedAt,
	)
	if err != nil {
		return p, err
	}

	p.InvoiceID = invoiceID.String
	p.Amount = mustDecimal(amount)
	p.Method = method.String
	p.Status = ledger.RecordStatus(status)
	p.CreatedAt = parseTime(createdAt)
	p.VoidedAt = parseNullTime(voidedAt)
	return p, nil
}

// =============================================================================
// LOANS
// =============================================================================

const loanColumns = `id, bank_account_id, customer_id, loan_amount, balance, status, created_at, updated_at`

func (s *Store) GetLoan(ctx context.Context, id string) (ledger.LoanAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, err := scanLoan(s.db.QueryRowContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return ledger.LoanAccount{}, ledger.ErrLoanNotFound
	}
	return l, err
}

func (s *Store) ListLoans(ctx context.Context) ([]ledger.LoanAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+loanColumns+" FROM loans ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []ledger.LoanAccount
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func upsertLoan(ctx context.Context, db execer, l ledger.LoanAccount) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			balance = excluded.balance,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		l.ID, l.BankAccountID, l.CustomerID,
		l.LoanAmount.String(), l.Balance.String(), string(l.Status),
		l.CreatedAt.Format(time.RFC3339Nano), l.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func scanLoan(row rowScanner) (ledger.LoanAccount, error) {
	var (
		l                              ledger.LoanAccount
		loanAmount, balance, status    string
		createdAt, updatedAt           string
	)
	err := row.Scan(&l.ID, &l.BankAccountID, &l.CustomerID, &loanAmount, &balance,
		&status, &createdAt, &updatedAt)
	if err != nil {
		return l, err
	}

	l.LoanAmount = mustDecimal(loanAmount)
	l.Balance = mustDecimal(balance)
	l.Status = ledger.LoanStatus(status)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return l, nil
}

// =============================================================================
// IDS AND BATCHES
// =============================================================================

// NextID allocates a random document id. No side effects; ids handed to
// batches that never commit are discarded.
func (s *Store) NextID(_ ledger.Collection) string {
	return uuid.NewString()
}

func (s *Store) Batch() ledger.Batch {
	return &batch{store: s}
}

// batch stages documents and applies them all inside one database
// transaction on Commit.
type batch struct {
	store        *Store
	accounts     []ledger.Account
	products     []ledger.Product
	invoices     []ledger.Invoice
	transactions []ledger.Transaction
	payments     []ledger.Payment
	loans        []ledger.LoanAccount
}

func (b *batch) SetAccount(a ledger.Account)         { b.accounts = append(b.accounts, a) }
func (b *batch) SetProduct(p ledger.Product)         { b.products = append(b.products, p) }
func (b *batch) SetInvoice(inv ledger.Invoice)       { b.invoices = append(b.invoices, inv) }
func (b *batch) SetTransaction(tx ledger.Transaction) { b.transactions = append(b.transactions, tx) }
func (b *batch) SetPayment(p ledger.Payment)         { b.payments = append(b.payments, p) }
func (b *batch) SetLoan(l ledger.LoanAccount)        { b.loans = append(b.loans, l) }

func (b *batch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	sqlTx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, a := range b.accounts {
		if err := upsertAccount(ctx, sqlTx, a); err != nil {
			return err
		}
	}
	for _, p := range b.products {
		if err := upsertProduct(ctx, sqlTx, p); err != nil {
			return err
		}
	}
	for _, inv := range b.invoices {
		if err := upsertInvoice(ctx, sqlTx, inv); err != nil {
			return err
		}
	}
	for _, tx := range b.transactions {
		if err := upsertTransaction(ctx, sqlTx, tx); err != nil {
			return err
		}
	}
	for _, p := range b.payments {
		if err := upsertPayment(ctx, sqlTx, p); err != nil {
			return err
		}
	}
	for _, l := range b.loans {
		if err := upsertLoan(ctx, sqlTx, l); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"transactions", "payments", "invoices", "loans", "products", "users", "bank_accounts"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func mustDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
