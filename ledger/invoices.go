/*
invoices.go - Invoice creation, settlement, voiding, and the overdue sweep

PURPOSE:
  Implements the settlement engine. Creating an invoice reserves stock and
  raises the customer's owed balance; applying a payment walks the invoice
  balance down and deposits the money; voiding reverses all of it. Every
  path reads everything first, validates, then commits one batch.

TOTALS:
  Per line: sub = qty * price, discount = sub * discount% / 100, and tax is
  charged on the discounted amount when the line is taxable. The invoice
  totals are the rounded sums of the line components, and the grand total
  is computed from those rounded totals, so

      grandTotal == subTotal - discountTotal + taxTotal

  holds exactly on every stored invoice.

STATUS:
  Invoice status is derived, never stored ahead of the facts: Paid when the
  balance reaches zero, Partial when some balance remains below the grand
  total, Past Due once the nightly sweep catches a missed due date, Voided
  only through VoidInvoice.

SEE ALSO:
  - payments.go: standalone credits and payment voids
  - store.go: MaxInvoiceNumber, InvoicesDueOn
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TOTALS
// =============================================================================

// invoiceTotals holds the rounded invoice-level sums.
type invoiceTotals struct {
	Sub, Discount, Tax, Grand decimal.Decimal
}

// computeTotals fills in each line's Total and returns the invoice sums.
// All stored amounts are rounded to cents; the grand total is derived from
// the rounded sums so the stored identity holds exactly.
func computeTotals(lines []LineItem) invoiceTotals {
	var sub, disc, tax decimal.Decimal
	for i := range lines {
		l := &lines[i]
		lineSub := l.Price.Mul(decimal.NewFromInt(l.Quantity))
		lineDisc := lineSub.Mul(l.DiscountPct).Div(hundred)
		lineTax := decimal.Zero
		if l.Taxable {
			lineTax = lineSub.Sub(lineDisc).Mul(l.TaxPct).Div(hundred)
		}
		l.Total = lineSub.Sub(lineDisc).Add(lineTax).Round(2)

		sub = sub.Add(lineSub)
		disc = disc.Add(lineDisc)
		tax = tax.Add(lineTax)
	}
	t := invoiceTotals{
		Sub:      sub.Round(2),
		Discount: disc.Round(2),
		Tax:      tax.Round(2),
	}
	t.Grand = t.Sub.Sub(t.Discount).Add(t.Tax)
	return t
}

// statusFor derives the display status from the numbers and the calendar.
// Voided is not derived; it is set only by VoidInvoice.
func statusFor(balance, grandTotal decimal.Decimal, dueDate, today Date) InvoiceStatus {
	if balance.IsZero() {
		return InvoicePaid
	}
	if !dueDate.IsZero() && dueDate.Before(today) {
		return InvoicePastDue
	}
	if balance.LessThan(grandTotal) {
		return InvoicePartial
	}
	return InvoicePending
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateInvoiceRequest creates an invoice for a customer. Line pricing
// fields (price, discount, tax flags) are snapshotted from the product at
// request time by the caller; later product edits never change an issued
// invoice.
type CreateInvoiceRequest struct {
	CustomerID string
	Lines      []LineItem
	DueDate    Date
	IssuedDate Date
	Memo       string
}

func (r CreateInvoiceRequest) validate() error {
	if r.CustomerID == "" {
		return &ValidationError{Field: "userId", Message: "customer id is required"}
	}
	if len(r.Lines) == 0 {
		return &ValidationError{Field: "products", Message: "at least one line item is required"}
	}
	for _, l := range r.Lines {
		if l.ProductID == "" {
			return &ValidationError{Field: "products", Message: "every line needs a product id"}
		}
		if l.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Message: "line quantity must be greater than zero"}
		}
		if l.Price.IsNegative() || l.DiscountPct.IsNegative() || l.TaxPct.IsNegative() {
			return &ValidationError{Field: "price", Message: "line amounts cannot be negative"}
		}
	}
	return nil
}

// ApplyPaymentRequest pays down an invoice.
type ApplyPaymentRequest struct {
	BankAccountID string
	Amount        decimal.Decimal
	Method        string
	Date          Date
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreateInvoice checks stock for every line, decrements it, raises the
// customer's owed balance by the grand total, and assigns the next gapless
// invoice number. All of it commits in one batch or none of it does.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (Invoice, error) {
	if err := req.validate(); err != nil {
		return Invoice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, err := s.store.GetAccount(ctx, KindCustomer, req.CustomerID)
	if err != nil {
		return Invoice{}, err
	}

	// Read and check every product before staging anything, so a shortage
	// on the last line aborts the first line's decrement too.
	products := make([]Product, len(req.Lines))
	for i, line := range req.Lines {
		p, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return Invoice{}, err
		}
		if p.Quantity < line.Quantity {
			return Invoice{}, &InsufficientStockError{
				ProductID: p.ID,
				Available: p.Quantity,
				Requested: line.Quantity,
			}
		}
		products[i] = p
	}

	maxNumber, err := s.store.MaxInvoiceNumber(ctx)
	if err != nil {
		return Invoice{}, err
	}

	now := s.clock.Now()
	lines := make([]LineItem, len(req.Lines))
	copy(lines, req.Lines)
	for i := range lines {
		if lines[i].Name == "" {
			lines[i].Name = products[i].Name
		}
	}
	totals := computeTotals(lines)
	// A zero (or discounted-below-zero) grand total would be born with no
	// balance to settle and skip the Pending -> Paid lifecycle entirely.
	if !totals.Grand.IsPositive() {
		return Invoice{}, &ValidationError{Field: "products", Message: "invoice total must be greater than zero"}
	}

	inv := Invoice{
		ID:            s.store.NextID(CollectionInvoices),
		CustomerID:    customer.ID,
		InvoiceNumber: maxNumber + 1,
		Lines:         lines,
		SubTotal:      totals.Sub,
		DiscountTotal: totals.Discount,
		TaxTotal:      totals.Tax,
		GrandTotal:    totals.Grand,
		Balance:       totals.Grand,
		Status:        statusFor(totals.Grand, totals.Grand, req.DueDate, DateOf(now)),
		DueDate:       req.DueDate,
		IssuedDate:    s.dateOrToday(req.IssuedDate),
		Memo:          req.Memo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyDelta(&customer, totals.Grand, now)

	batch := s.store.Batch()
	for i := range products {
		products[i].Quantity -= req.Lines[i].Quantity
		products[i].UpdatedAt = now
		batch.SetProduct(products[i])
	}
	batch.SetAccount(customer)
	batch.SetInvoice(inv)
	if err := batch.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// ApplyPayment settles part or all of an invoice. Four documents move in
// one commit: the payment record is created, the invoice balance walks
// down, the customer's owed balance drops by the full amount paid, and the
// bank balance rises by it. Paying more than the remaining balance marks
// the invoice Paid and leaves the excess on the customer as credit (their
// owed balance goes negative).
func (s *Service) ApplyPayment(ctx context.Context, invoiceID string, req ApplyPaymentRequest) (Payment, error) {
	if req.BankAccountID == "" {
		return Payment{}, &ValidationError{Field: "bankAccountId", Message: "bank account id is required"}
	}
	if !req.Amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return Payment{}, err
	}
	if inv.Status == InvoicePaid || inv.Status == InvoiceVoided {
		return Payment{}, ErrInvoiceSettled
	}

	customer, err := s.store.GetAccount(ctx, KindCustomer, inv.CustomerID)
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
		InvoiceID:     inv.ID,
		CustomerID:    customer.ID,
		BankAccountID: bank.ID,
		Amount:        req.Amount,
		Method:        req.Method,
		Date:          s.dateOrToday(req.Date),
		Status:        StatusActive,
		CreatedAt:     now,
	}

	inv.Balance = inv.Balance.Sub(req.Amount)
	if !inv.Balance.IsPositive() {
		inv.Balance = decimal.Zero
	}
	inv.Status = statusFor(inv.Balance, inv.GrandTotal, inv.DueDate, DateOf(now))
	inv.UpdatedAt = now

	applyDelta(&customer, req.Amount.Neg(), now)
	applyDelta(&bank, req.Amount, now)

	batch := s.store.Batch()
	batch.SetPayment(pay)
	batch.SetInvoice(inv)
	batch.SetAccount(customer)
	batch.SetAccount(bank)
	if err := batch.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return pay, nil
}

// VoidInvoice cancels an invoice: stock returns to the shelf, the
// customer's owed balance drops by the grand total, and every monetary
// field on the invoice and its lines is zeroed so reports over the month
// no longer count it.
func (s *Service) VoidInvoice(ctx context.Context, id string) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status == InvoiceVoided {
		return Invoice{}, ErrAlreadyVoided
	}

	customer, err := s.store.GetAccount(ctx, KindCustomer, inv.CustomerID)
	if err != nil {
		return Invoice{}, err
	}

	now := s.clock.Now()
	batch := s.store.Batch()

	for _, line := range inv.Lines {
		p, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return Invoice{}, err
		}
		p.Quantity += line.Quantity
		p.UpdatedAt = now
		batch.SetProduct(p)
	}

	applyDelta(&customer, inv.GrandTotal.Neg(), now)

	inv.SubTotal = decimal.Zero
	inv.DiscountTotal = decimal.Zero
	inv.TaxTotal = decimal.Zero
	inv.GrandTotal = decimal.Zero
	inv.Balance = decimal.Zero
	for i := range inv.Lines {
		inv.Lines[i].Total = decimal.Zero
	}
	inv.Status = InvoiceVoided
	inv.UpdatedAt = now
	inv.VoidedAt = &now

	batch.SetAccount(customer)
	batch.SetInvoice(inv)
	if err := batch.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// MarkPastDue is the nightly sweep: it flips invoices whose due date was
// yesterday and that still carry a balance to Past Due. Running the sweep
// twice on the same day is a no-op the second time. Returns the number of
// invoices flipped.
func (s *Service) MarkPastDue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	yesterday := DateOf(now).AddDays(-1)

	due, err := s.store.InvoicesDueOn(ctx, yesterday)
	if err != nil {
		return 0, err
	}

	batch := s.store.Batch()
	flipped := 0
	for _, inv := range due {
		if !inv.Balance.IsPositive() {
			continue
		}
		switch inv.Status {
		case InvoicePastDue, InvoiceVoided, InvoicePaid:
			continue
		}
		inv.Status = InvoicePastDue
		inv.UpdatedAt = now
		batch.SetInvoice(inv)
		flipped++
	}
	if flipped == 0 {
		return 0, nil
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return flipped, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Invoice returns a single invoice.
func (s *Service) Invoice(ctx context.Context, id string) (Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// InvoicesByYear lists every invoice issued in a calendar year.
func (s *Service) InvoicesByYear(ctx context.Context, year int) ([]Invoice, error) {
	return s.store.InvoicesByYear(ctx, year)
}

// InvoicesByMonth lists invoices issued in a calendar month.
func (s *Service) InvoicesByMonth(ctx context.Context, year, month int) ([]Invoice, error) {
	return s.store.InvoicesByMonth(ctx, year, month)
}

// InvoicesByStatus lists a year's invoices with a given status.
func (s *Service) InvoicesByStatus(ctx context.Context, year int, status InvoiceStatus) ([]Invoice, error) {
	return s.store.InvoicesByStatus(ctx, year, status)
}

// InvoicesByMonthAndStatus lists a month's invoices with a given status.
func (s *Service) InvoicesByMonthAndStatus(ctx context.Context, year, month int, status InvoiceStatus) ([]Invoice, error) {
	return s.store.InvoicesByMonthAndStatus(ctx, year, month, status)
}
