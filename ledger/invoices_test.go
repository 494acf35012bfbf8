package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func addProduct(t *testing.T, svc *ledger.Service, name, price string, qty int64, taxable bool, taxPct string) ledger.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), ledger.AddProductRequest{Product: ledger.Product{
		Name:     name,
		Price:    ledger.MustMoney(price),
		Quantity: qty,
		Taxable:  taxable,
		TaxPct:   ledger.MustMoney(taxPct),
	}})
	require.NoError(t, err)
	return p
}

func customerBalance(t *testing.T, svc *ledger.Service, id string) string {
	t.Helper()
	a, err := svc.Account(context.Background(), ledger.KindCustomer, id)
	require.NoError(t, err)
	return a.Balance.String()
}

func productQty(t *testing.T, svc *ledger.Service, id string) int64 {
	t.Helper()
	p, err := svc.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

// =============================================================================
// TOTALS AND CREATION
// =============================================================================

func TestCreateInvoice_TotalsMathAndIdentity(t *testing.T) {
	// GIVEN: A taxable line (2 x 49.99, 10% discount, 12.5% tax) and a
	//        plain line (3 x 5.00)
	// WHEN: Creating the invoice
	// THEN: Totals match hand-computed cents and the stored identity
	//       grandTotal == subTotal - discountTotal + taxTotal holds exactly

	svc, _ := newTestService()
	ctx := context.Background()
	customer := openCustomer(t, svc, "Maria Gomez")
	jacket := addProduct(t, svc, "Denim Jacket", "49.99", 10, true, "12.5")
	wrap := addProduct(t, svc, "Gift Wrap", "5.00", 50, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines: []ledger.LineItem{
			{ProductID: jacket.ID, Quantity: 2, Price: jacket.Price, DiscountPct: ledger.MustMoney("10"), Taxable: true, TaxPct: jacket.TaxPct},
			{ProductID: wrap.ID, Quantity: 3, Price: wrap.Price},
		},
	})
	require.NoError(t, err)

	// sub = 99.98 + 15.00, disc = 9.998 -> 10.00, tax = (99.98-9.998)*12.5% = 11.24775 -> 11.25
	assert.Equal(t, "114.98", inv.SubTotal.String())
	assert.Equal(t, "10", inv.DiscountTotal.String())
	assert.Equal(t, "11.25", inv.TaxTotal.String())
	assert.True(t, inv.GrandTotal.Equal(inv.SubTotal.Sub(inv.DiscountTotal).Add(inv.TaxTotal)),
		"grand total identity must hold on the stored invoice")
	assert.Equal(t, "116.23", inv.GrandTotal.String())
	assert.True(t, inv.Balance.Equal(inv.GrandTotal))
	assert.Equal(t, ledger.InvoicePending, inv.Status)
	assert.Equal(t, int64(1), inv.InvoiceNumber)

	// Side effects: stock down, customer owes the grand total.
	assert.Equal(t, int64(8), productQty(t, svc, jacket.ID))
	assert.Equal(t, int64(47), productQty(t, svc, wrap.ID))
	assert.Equal(t, "116.23", customerBalance(t, svc, customer.ID))
}

func TestCreateInvoice_StockShortageOnLaterLine_AbortsEverything(t *testing.T) {
	// GIVEN: Plenty of the first product but only 1 of the second
	// WHEN: Creating an invoice asking for 2 of the second
	// THEN: The whole invoice is rejected: no stock moves, no customer
	//       balance change, no invoice number consumed

	svc, _ := newTestService()
	ctx := context.Background()
	customer := openCustomer(t, svc, "Devin Staines")
	tee := addProduct(t, svc, "Graphic Tee", "24.99", 40, false, "0")
	scarce := addProduct(t, svc, "Silk Scarf", "59.99", 1, false, "0")

	_, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines: []ledger.LineItem{
			{ProductID: tee.ID, Quantity: 5, Price: tee.Price},
			{ProductID: scarce.ID, Quantity: 2, Price: scarce.Price},
		},
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, int64(1), stockErr.Available)
	assert.Equal(t, int64(2), stockErr.Requested)

	assert.Equal(t, int64(40), productQty(t, svc, tee.ID), "earlier line must not be decremented")
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))

	// The next invoice still gets number 1.
	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: tee.ID, Quantity: 1, Price: tee.Price}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.InvoiceNumber)
}

func TestCreateInvoice_ZeroTotalRejected(t *testing.T) {
	// GIVEN: A free product
	// WHEN: Creating an invoice whose only lines are zero-priced
	// THEN: The invoice is rejected; there is nothing to settle and it
	//       would never leave its initial status

	svc, _ := newTestService()
	ctx := context.Background()
	customer := openCustomer(t, svc, "Maria Gomez")
	sample := addProduct(t, svc, "Fabric Sample", "0.00", 10, false, "0")

	_, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: sample.ID, Quantity: 1, Price: sample.Price}},
	})
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, int64(10), productQty(t, svc, sample.ID), "no stock reserved for a rejected invoice")
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))
}

func TestInvoiceQueries_YearMonthStatusCombinations(t *testing.T) {
	// GIVEN: Two invoices issued in March (one paid) and one in April
	// WHEN: Querying by year, by month, by status, and by month+status
	// THEN: Each query returns exactly the matching invoices

	svc, clock := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	wrap := addProduct(t, svc, "Gift Wrap", "10.00", 50, false, "0")

	newInvoice := func() ledger.Invoice {
		inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
			CustomerID: customer.ID,
			Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
		})
		require.NoError(t, err)
		return inv
	}

	marchPending := newInvoice()
	marchPaid := newInvoice()
	_, err := svc.ApplyPayment(ctx, marchPaid.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID, Amount: ledger.MustMoney("10.00"),
	})
	require.NoError(t, err)

	clock.advanceDays(31) // into April
	april := newInvoice()

	byYear, err := svc.InvoicesByYear(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, byYear, 3)

	byMonth, err := svc.InvoicesByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, byMonth, 2)

	byStatus, err := svc.InvoicesByStatus(ctx, 2025, ledger.InvoicePending)
	require.NoError(t, err)
	require.Len(t, byStatus, 2)
	assert.Equal(t, marchPending.ID, byStatus[0].ID)
	assert.Equal(t, april.ID, byStatus[1].ID)

	combined, err := svc.InvoicesByMonthAndStatus(ctx, 2025, 3, ledger.InvoicePending)
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, marchPending.ID, combined[0].ID)

	combined, err = svc.InvoicesByMonthAndStatus(ctx, 2025, 4, ledger.InvoicePaid)
	require.NoError(t, err)
	assert.Empty(t, combined)
}

func TestCreateInvoice_NumberingIsGaplessUnderConcurrency(t *testing.T) {
	// GIVEN: 20 goroutines creating invoices at once
	// WHEN: All of them finish
	// THEN: Invoice numbers are exactly 1..20 with no gaps or duplicates

	svc, _ := newTestService()
	ctx := context.Background()
	customer := openCustomer(t, svc, "Maria Gomez")
	tee := addProduct(t, svc, "Graphic Tee", "24.99", 100, false, "0")

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
				CustomerID: customer.ID,
				Lines:      []ledger.LineItem{{ProductID: tee.ID, Quantity: 1, Price: tee.Price}},
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "invoice %d", i)
	}

	invoices, err := svc.InvoicesByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, invoices, n)
	seen := make(map[int64]bool)
	for _, inv := range invoices {
		seen[inv.InvoiceNumber] = true
	}
	for want := int64(1); want <= n; want++ {
		assert.True(t, seen[want], "missing invoice number %d", want)
	}
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestApplyPayment_PartialThenFull(t *testing.T) {
	// GIVEN: An invoice for 116.23
	// WHEN: Paying 50, then the remaining 66.23
	// THEN: Status walks Pending -> Partial -> Paid; the customer's owed
	//       balance and the bank balance track every cent

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	jacket := addProduct(t, svc, "Denim Jacket", "49.99", 10, true, "12.5")
	wrap := addProduct(t, svc, "Gift Wrap", "5.00", 50, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines: []ledger.LineItem{
			{ProductID: jacket.ID, Quantity: 2, Price: jacket.Price, DiscountPct: ledger.MustMoney("10"), Taxable: true, TaxPct: jacket.TaxPct},
			{ProductID: wrap.ID, Quantity: 3, Price: wrap.Price},
		},
	})
	require.NoError(t, err)

	pay1, err := svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("50.00"),
		Method:        "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, inv.ID, pay1.InvoiceID)

	mid, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePartial, mid.Status)
	assert.Equal(t, "66.23", mid.Balance.String())
	assert.Equal(t, "66.23", customerBalance(t, svc, customer.ID))
	assert.Equal(t, "50", bankBalance(t, svc, bank.ID))

	_, err = svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("66.23"),
	})
	require.NoError(t, err)

	done, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePaid, done.Status)
	assert.Equal(t, "0", done.Balance.String())
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))
	assert.Equal(t, "116.23", bankBalance(t, svc, bank.ID))
}

func TestApplyPayment_OverpaymentBecomesCredit(t *testing.T) {
	// GIVEN: An invoice with 30 remaining
	// WHEN: The customer pays 50
	// THEN: The invoice is Paid with balance 0 and the extra 20 sits on
	//       the customer as credit (owed balance -20)

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Devin Staines")
	wrap := addProduct(t, svc, "Gift Wrap", "30.00", 10, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
	})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("50.00"),
	})
	require.NoError(t, err)

	paid, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePaid, paid.Status)
	assert.Equal(t, "0", paid.Balance.String())
	assert.Equal(t, "-20", customerBalance(t, svc, customer.ID), "excess becomes customer credit")
	assert.Equal(t, "50", bankBalance(t, svc, bank.ID))
}

func TestApplyPayment_SettledInvoiceRejected(t *testing.T) {
	// GIVEN: A fully paid invoice
	// WHEN: Applying another payment
	// THEN: ErrInvoiceSettled, nothing moves

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	wrap := addProduct(t, svc, "Gift Wrap", "10.00", 10, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
	})
	require.NoError(t, err)
	_, err = svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID, Amount: ledger.MustMoney("10.00"),
	})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID, Amount: ledger.MustMoney("5.00"),
	})
	require.ErrorIs(t, err, ledger.ErrInvoiceSettled)
	assert.Equal(t, "10", bankBalance(t, svc, bank.ID))
}

// =============================================================================
// VOIDING
// =============================================================================

func TestVoidInvoice_RestoresStockAndCustomer(t *testing.T) {
	// GIVEN: An unpaid invoice for 2 jackets
	// WHEN: Voiding it
	// THEN: Stock returns, the customer owes nothing, every monetary
	//       field on the invoice is zeroed, and the status is Voided

	svc, _ := newTestService()
	ctx := context.Background()
	customer := openCustomer(t, svc, "Maria Gomez")
	jacket := addProduct(t, svc, "Denim Jacket", "89.99", 12, true, "12.5")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: jacket.ID, Quantity: 2, Price: jacket.Price, Taxable: true, TaxPct: jacket.TaxPct}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), productQty(t, svc, jacket.ID))

	voided, err := svc.VoidInvoice(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, ledger.InvoiceVoided, voided.Status)
	assert.NotNil(t, voided.VoidedAt)
	assert.True(t, voided.GrandTotal.IsZero())
	assert.True(t, voided.SubTotal.IsZero())
	assert.True(t, voided.TaxTotal.IsZero())
	assert.True(t, voided.Balance.IsZero())
	for _, line := range voided.Lines {
		assert.True(t, line.Total.IsZero(), "line totals must be zeroed")
	}
	assert.Equal(t, int64(12), productQty(t, svc, jacket.ID))
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))

	// Voiding again is a conflict.
	_, err = svc.VoidInvoice(ctx, inv.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyVoided)
}

// =============================================================================
// OVERDUE SWEEP
// =============================================================================

func TestMarkPastDue_FlipsOnlyYesterdaysUnpaid(t *testing.T) {
	// GIVEN: Invoices due today (unpaid and fully paid) and one due next
	//        week, then the clock rolls over to the next day
	// WHEN: Running the sweep
	// THEN: Only the unpaid invoice whose due date just passed flips to
	//       Past Due, and rerunning the sweep finds nothing

	svc, clock := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	wrap := addProduct(t, svc, "Gift Wrap", "10.00", 50, false, "0")

	today := ledger.DateOf(clock.Now())

	newInvoice := func(due ledger.Date) ledger.Invoice {
		inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
			CustomerID: customer.ID,
			Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
			DueDate:    due,
		})
		require.NoError(t, err)
		return inv
	}

	unpaid := newInvoice(today)
	paid := newInvoice(today)
	future := newInvoice(today.AddDays(7))

	_, err := svc.ApplyPayment(ctx, paid.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID, Amount: ledger.MustMoney("10.00"),
	})
	require.NoError(t, err)

	clock.advanceDays(1)

	n, err := svc.MarkPastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Invoice(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePastDue, got.Status)

	got, err = svc.Invoice(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePaid, got.Status)

	got, err = svc.Invoice(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePending, got.Status)

	// Idempotent: second run is a no-op.
	n, err = svc.MarkPastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
