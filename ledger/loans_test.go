package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// DISBURSEMENT
// =============================================================================

func TestDisburseLoan_MovesMoneyAndOpensActiveLoan(t *testing.T) {
	// GIVEN: A bank with 1000.00
	// WHEN: Disbursing a 600.00 loan to a customer
	// THEN: The bank drops, the customer owes the amount, the loan opens
	//       Active at the full amount, and a Loan Disbursement transaction
	//       links back to the loan

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "1000.00")
	customer := openCustomer(t, svc, "Maria Gomez")

	loan, err := svc.DisburseLoan(ctx, ledger.DisburseLoanRequest{
		BankAccountID: bank.ID,
		CustomerID:    customer.ID,
		Amount:        ledger.MustMoney("600.00"),
		Description:   "spring inventory loan",
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.LoanActive, loan.Status)
	assert.Equal(t, "600", loan.LoanAmount.String())
	assert.Equal(t, "600", loan.Balance.String())
	assert.Equal(t, "400", bankBalance(t, svc, bank.ID))
	assert.Equal(t, "600", customerBalance(t, svc, customer.ID))

	txs, err := svc.TransactionsByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.TxLoanDisbursement, txs[0].Type)
	assert.Equal(t, loan.ID, txs[0].LinkedID)
	assert.Equal(t, bank.ID, txs[0].AccountID)
}

func TestDisburseLoan_InsufficientFunds(t *testing.T) {
	// GIVEN: A bank with 100.00
	// WHEN: Disbursing a 600.00 loan
	// THEN: Rejected; no loan, no transaction, no balance change

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "100.00")
	customer := openCustomer(t, svc, "Devin Staines")

	_, err := svc.DisburseLoan(ctx, ledger.DisburseLoanRequest{
		BankAccountID: bank.ID,
		CustomerID:    customer.ID,
		Amount:        ledger.MustMoney("600.00"),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	loans, err := svc.Loans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)
	assert.Equal(t, "100", bankBalance(t, svc, bank.ID))
	assert.Equal(t, "0", customerBalance(t, svc, customer.ID))
}

// =============================================================================
// REPAYMENT
// =============================================================================

func TestReceiveLoanPayment_WalksBalanceDownAndClamps(t *testing.T) {
	// GIVEN: A 600.00 loan
	// WHEN: Repaying 400, then 250 (overshooting the remaining 200)
	// THEN: The balance clamps at zero, the loan flips to Paid, and the
	//       bank/customer move by the full amounts paid

	svc, _ := newTestService()
	ctx := context.Background()
	bank := openBank(t, svc, "1000.00")
	customer := openCustomer(t, svc, "Maria Gomez")

	loan, err := svc.DisburseLoan(ctx, ledger.DisburseLoanRequest{
		BankAccountID: bank.ID,
		CustomerID:    customer.ID,
		Amount:        ledger.MustMoney("600.00"),
	})
	require.NoError(t, err)

	mid, err := svc.ReceiveLoanPayment(ctx, ledger.LoanPaymentRequest{
		LoanID: loan.ID,
		Amount: ledger.MustMoney("400.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.LoanActive, mid.Status)
	assert.Equal(t, "200", mid.Balance.String())

	done, err := svc.ReceiveLoanPayment(ctx, ledger.LoanPaymentRequest{
		LoanID: loan.ID,
		Amount: ledger.MustMoney("250.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.LoanPaid, done.Status)
	assert.True(t, done.Balance.IsZero())

	// 1000 - 600 + 400 + 250; the customer paid 650 against 600 owed.
	assert.Equal(t, "1050", bankBalance(t, svc, bank.ID))
	assert.Equal(t, "-50", customerBalance(t, svc, customer.ID))

	txs, err := svc.TransactionsByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	payments := 0
	for _, tx := range txs {
		if tx.Type == ledger.TxLoanPayment {
			payments++
			assert.Equal(t, loan.ID, tx.LinkedID)
		}
	}
	assert.Equal(t, 2, payments)
}

func TestReceiveLoanPayment_UnknownLoan(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReceiveLoanPayment(context.Background(), ledger.LoanPaymentRequest{
		LoanID: "missing",
		Amount: ledger.MustMoney("10.00"),
	})
	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)
}
