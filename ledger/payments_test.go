package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// STANDALONE CREDITS
// =============================================================================

func TestAddStandaloneCredit_MovesMoneyAndLeavesCredit(t *testing.T) {
	// GIVEN: A customer with no invoices
	// WHEN: Recording a 40.00 credit into the bank
	// THEN: The bank holds the money, the customer's owed balance goes
	//       negative, and the payment has no invoice attached

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")

	pay, err := svc.AddStandaloneCredit(ctx, ledger.AddCreditRequest{
		CustomerID:    customer.ID,
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("40.00"),
		Method:        "Cash",
	})
	require.NoError(t, err)

	assert.Empty(t, pay.InvoiceID)
	assert.Equal(t, ledger.StatusActive, pay.Status)
	assert.Equal(t, "40", bankBalance(t, svc, bank.ID))
	assert.Equal(t, "-40", customerBalance(t, svc, customer.ID))
}

func TestAddStandaloneCredit_RejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Devin Staines")

	_, err := svc.AddStandaloneCredit(ctx, ledger.AddCreditRequest{
		CustomerID:    customer.ID,
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("-5.00"),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.AddStandaloneCredit(ctx, ledger.AddCreditRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("5.00"),
	})
	var vErr *ledger.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// =============================================================================
// VOIDING PAYMENTS
// =============================================================================

func TestVoidPayment_RestoresInvoiceBalanceAndStatus(t *testing.T) {
	// GIVEN: An invoice fully settled by a single payment
	// WHEN: Voiding that payment
	// THEN: The invoice balance and Pending status return, the customer
	//       owes the amount again, and the bank gives the money back

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	wrap := addProduct(t, svc, "Gift Wrap", "25.00", 10, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
	})
	require.NoError(t, err)

	pay, err := svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("25.00"),
	})
	require.NoError(t, err)

	voided, err := svc.VoidPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVoided, voided.Status)
	require.NotNil(t, voided.VoidedAt)

	got, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "25", got.Balance.String())
	assert.Equal(t, ledger.InvoicePending, got.Status)
	assert.Equal(t, "25", customerBalance(t, svc, customer.ID))
	assert.Equal(t, "0", bankBalance(t, svc, bank.ID))

	// Voiding again is a conflict.
	_, err = svc.VoidPayment(ctx, pay.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyVoided)
}

func TestVoidPayment_PartialSettlement_RoundTripsExactly(t *testing.T) {
	// GIVEN: An invoice for 50.00 partially settled with 20.00
	// WHEN: Voiding that payment
	// THEN: Invoice balance, customer balance, and bank balance all return
	//       to their pre-payment values and the status walks back to Pending

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "100.00")
	customer := openCustomer(t, svc, "Devin Staines")
	wrap := addProduct(t, svc, "Gift Wrap", "25.00", 10, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 2, Price: wrap.Price}},
	})
	require.NoError(t, err)

	pay, err := svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("20.00"),
	})
	require.NoError(t, err)

	partial, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.InvoicePartial, partial.Status)
	require.Equal(t, "30", partial.Balance.String())

	_, err = svc.VoidPayment(ctx, pay.ID)
	require.NoError(t, err)

	got, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", got.Balance.String())
	assert.Equal(t, ledger.InvoicePending, got.Status)
	assert.Equal(t, "50", customerBalance(t, svc, customer.ID))
	assert.Equal(t, "100", bankBalance(t, svc, bank.ID))
}

func TestVoidPayment_BlockedWhenBankCannotCover(t *testing.T) {
	// GIVEN: A 40.00 credit whose money has since been spent
	// WHEN: Voiding the payment
	// THEN: Insufficient funds; payment stays Active and no balance moves

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Devin Staines")

	pay, err := svc.AddStandaloneCredit(ctx, ledger.AddCreditRequest{
		CustomerID:    customer.ID,
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("40.00"),
	})
	require.NoError(t, err)

	_, err = svc.RecordSimple(ctx, ledger.RecordTransactionRequest{
		AccountID: bank.ID,
		Type:      ledger.TxExpense,
		Amount:    ledger.MustMoney("30.00"),
	})
	require.NoError(t, err)

	_, err = svc.VoidPayment(ctx, pay.ID)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	got, err := svc.Payment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusActive, got.Status)
	assert.Equal(t, "10", bankBalance(t, svc, bank.ID))
	assert.Equal(t, "-40", customerBalance(t, svc, customer.ID))
}

func TestVoidPayment_VoidedInvoiceKeepsZeroedBalance(t *testing.T) {
	// GIVEN: A paid invoice that was later voided (totals zeroed)
	// WHEN: Voiding the payment afterwards
	// THEN: The money moves back but the invoice's zeroed balance is not
	//       resurrected

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "0.00")
	customer := openCustomer(t, svc, "Maria Gomez")
	wrap := addProduct(t, svc, "Gift Wrap", "25.00", 10, false, "0")

	inv, err := svc.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: customer.ID,
		Lines:      []ledger.LineItem{{ProductID: wrap.ID, Quantity: 1, Price: wrap.Price}},
	})
	require.NoError(t, err)
	pay, err := svc.ApplyPayment(ctx, inv.ID, ledger.ApplyPaymentRequest{
		BankAccountID: bank.ID,
		Amount:        ledger.MustMoney("25.00"),
	})
	require.NoError(t, err)
	_, err = svc.VoidInvoice(ctx, inv.ID)
	require.NoError(t, err)

	// Customer balance after: +25 (invoice) -25 (payment) -25 (void) = -25.
	require.Equal(t, "-25", customerBalance(t, svc, customer.ID))

	_, err = svc.VoidPayment(ctx, pay.ID)
	require.NoError(t, err)

	got, err := svc.Invoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceVoided, got.Status)
	assert.True(t, got.Balance.IsZero(), "a voided invoice never regains a balance")
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))
	assert.Equal(t, "0", bankBalance(t, svc, bank.ID))
}
