/*
reports.go - Monthly bookkeeping summary

Aggregates a calendar month from the stored documents. Voided records are
excluded; a voided invoice's totals are already zeroed, but transactions
and payments keep their amounts and are filtered by status here.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// MonthlySummary is the bookkeeping roll-up for one calendar month.
type MonthlySummary struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Sales            decimal.Decimal `json:"sales"`            // invoice grand totals
	TaxCollected     decimal.Decimal `json:"taxCollected"`     // invoice tax totals
	PaymentsReceived decimal.Decimal `json:"paymentsReceived"` // active payments
	Deposits         decimal.Decimal `json:"deposits"`         // active deposit transactions
	Expenses         decimal.Decimal `json:"expenses"`         // active outgoing transactions
}

// Summary aggregates invoices, payments, and transactions for a month.
func (s *Service) Summary(ctx context.Context, year, month int) (MonthlySummary, error) {
	out := MonthlySummary{Year: year, Month: month}

	invoices, err := s.store.InvoicesByMonth(ctx, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	for _, inv := range invoices {
		if inv.Status == InvoiceVoided {
			continue
		}
		out.Sales = out.Sales.Add(inv.GrandTotal)
		out.TaxCollected = out.TaxCollected.Add(inv.TaxTotal)
	}

	payments, err := s.store.PaymentsByMonth(ctx, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	for _, p := range payments {
		if p.Status != StatusActive {
			continue
		}
		out.PaymentsReceived = out.PaymentsReceived.Add(p.Amount)
	}

	transactions, err := s.store.TransactionsByMonth(ctx, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	for _, tx := range transactions {
		if tx.Status != StatusActive {
			continue
		}
		delta, err := tx.Type.Delta(tx.Amount)
		if err != nil {
			continue
		}
		if delta.IsPositive() {
			out.Deposits = out.Deposits.Add(tx.Amount)
		} else {
			out.Expenses = out.Expenses.Add(tx.Amount)
		}
	}
	return out, nil
}
