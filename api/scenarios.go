/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	shop data for testing and demos. Each scenario creates accounts,
	products, and a mix of invoices, payments, and transactions through
	the normal service operations, so everything a scenario creates is
	internally consistent.

AVAILABLE SCENARIOS:

	new-shop:        Fresh boutique: bank account, customers, catalog
	month-of-sales:  A month of invoices, payments, and expenses
	overdue:         Unpaid invoices past their due date, sweep included

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "month-of-sales"}

NOTE:

	Scenarios reset the store when a Resetter is wired. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Handler struct, error helpers
  - server.go: /api/scenarios routes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "new-shop",
		Name:        "New Shop",
		Description: "Fresh boutique: one bank account, two customers, a small catalog",
	},
	{
		ID:          "month-of-sales",
		Name:        "Month of Sales",
		Description: "Invoices in several states, payments, deposits and expenses",
	},
	{
		ID:          "overdue",
		Name:        "Overdue Invoices",
		Description: "Unpaid invoices past their due date, sweep already run",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and seeds the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if h.Resetter != nil {
		if err := h.Resetter.Reset(ctx); err != nil {
			h.respondErr(w, r, "Failed to reset store", err)
			return
		}
	}

	var err error
	switch req.ScenarioID {
	case "new-shop":
		err = h.loadNewShop(ctx)
	case "month-of-sales":
		err = h.loadMonthOfSales(ctx)
	case "overdue":
		err = h.loadOverdue(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		h.respondErr(w, r, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seed struct {
	bank      ledger.Account
	customers []ledger.Account
	products  []ledger.Product
}

// seedShop creates the base fixtures shared by every scenario.
func (h *Handler) seedShop(ctx context.Context) (seed, error) {
	var s seed

	bank, err := h.Service.OpenAccount(ctx, ledger.OpenAccountRequest{
		Kind:          ledger.KindBank,
		DisplayName:   "Checking",
		AccountNumber: "1020-3040",
		OpeningAmount: ledger.MustMoney("5000.00"),
	})
	if err != nil {
		return s, err
	}
	s.bank = bank

	for _, name := range []string{"Maria Gomez", "Devin Staines"} {
		c, err := h.Service.OpenAccount(ctx, ledger.OpenAccountRequest{
			Kind:        ledger.KindCustomer,
			DisplayName: name,
		})
		if err != nil {
			return s, err
		}
		s.customers = append(s.customers, c)
	}

	catalog := []ledger.Product{
		{Name: "Denim Jacket", Price: ledger.MustMoney("89.99"), Cost: ledger.MustMoney("41.50"), Quantity: 12, Taxable: true, TaxPct: ledger.MustMoney("12.5")},
		{Name: "Graphic Tee", Price: ledger.MustMoney("24.99"), Cost: ledger.MustMoney("8.00"), Quantity: 40, Taxable: true, TaxPct: ledger.MustMoney("12.5")},
		{Name: "Gift Wrap", Price: ledger.MustMoney("3.50"), Cost: ledger.MustMoney("0.75"), Quantity: 100},
	}
	for _, p := range catalog {
		created, err := h.Service.AddProduct(ctx, ledger.AddProductRequest{Product: p})
		if err != nil {
			return s, err
		}
		s.products = append(s.products, created)
	}
	return s, nil
}

func (h *Handler) loadNewShop(ctx context.Context) error {
	_, err := h.seedShop(ctx)
	return err
}

func (h *Handler) loadMonthOfSales(ctx context.Context) error {
	s, err := h.seedShop(ctx)
	if err != nil {
		return err
	}

	// A paid invoice, a partially paid one, and one untouched.
	paid, err := h.Service.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: s.customers[0].ID,
		Lines: []ledger.LineItem{
			{ProductID: s.products[0].ID, Quantity: 1, Price: s.products[0].Price, Taxable: true, TaxPct: s.products[0].TaxPct},
		},
	})
	if err != nil {
		return err
	}
	if _, err := h.Service.ApplyPayment(ctx, paid.ID, ledger.ApplyPaymentRequest{
		BankAccountID: s.bank.ID,
		Amount:        paid.GrandTotal,
		Method:        "Cash",
	}); err != nil {
		return err
	}

	partial, err := h.Service.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: s.customers[1].ID,
		Lines: []ledger.LineItem{
			{ProductID: s.products[1].ID, Quantity: 3, Price: s.products[1].Price, Taxable: true, TaxPct: s.products[1].TaxPct},
		},
	})
	if err != nil {
		return err
	}
	if _, err := h.Service.ApplyPayment(ctx, partial.ID, ledger.ApplyPaymentRequest{
		BankAccountID: s.bank.ID,
		Amount:        ledger.MustMoney("25.00"),
		Method:        "Card",
	}); err != nil {
		return err
	}

	if _, err := h.Service.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
		CustomerID: s.customers[0].ID,
		Lines: []ledger.LineItem{
			{ProductID: s.products[2].ID, Quantity: 2, Price: s.products[2].Price},
		},
	}); err != nil {
		return err
	}

	// Some bank activity around the sales.
	if _, err := h.Service.RecordSimple(ctx, ledger.RecordTransactionRequest{
		AccountID: s.bank.ID, Type: ledger.TxExpense,
		Amount: ledger.MustMoney("230.00"), Description: "Rent share",
	}); err != nil {
		return err
	}
	_, err = h.Service.RecordSimple(ctx, ledger.RecordTransactionRequest{
		AccountID: s.bank.ID, Type: ledger.TxDeposit,
		Amount: ledger.MustMoney("150.00"), Description: "Market stall cash",
	})
	return err
}

func (h *Handler) loadOverdue(ctx context.Context) error {
	s, err := h.seedShop(ctx)
	if err != nil {
		return err
	}

	yesterday := ledger.DateOf(time.Now().UTC()).AddDays(-1)
	for _, c := range s.customers {
		if _, err := h.Service.CreateInvoice(ctx, ledger.CreateInvoiceRequest{
			CustomerID: c.ID,
			Lines: []ledger.LineItem{
				{ProductID: s.products[0].ID, Quantity: 1, Price: s.products[0].Price, Taxable: true, TaxPct: s.products[0].TaxPct},
			},
			DueDate: yesterday,
		}); err != nil {
			return err
		}
	}

	_, err = h.Service.MarkPastDue(ctx)
	return err
}
