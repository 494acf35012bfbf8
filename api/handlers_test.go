package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexG-SYS/ace-closet-ledger/api"
	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
	"github.com/AlexG-SYS/ace-closet-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()
	svc := ledger.New(mem, nil)
	h := api.NewHandler(svc, zerolog.Nop())
	h.Resetter = mem
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), "body: %s", data)
}

func createAccount(t *testing.T, srv *httptest.Server, kind, name, opening string) ledger.Account {
	t.Helper()
	resp, body := doJSON(t, srv, http.MethodPost, "/api/accounts/"+kind, map[string]string{
		"displayName":   name,
		"openingAmount": opening,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	var a ledger.Account
	decodeInto(t, body, &a)
	return a
}

func createProduct(t *testing.T, srv *httptest.Server, name, price string, qty int64) ledger.Product {
	t.Helper()
	resp, body := doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"productName": name,
		"price":       price,
		"quantity":    qty,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	var p ledger.Product
	decodeInto(t, body, &p)
	return p
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccountEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Opening with an amount lands on the balance.
	bank := createAccount(t, srv, "bank", "Checking", "250.00")
	assert.Equal(t, "250", bank.Balance.String())
	assert.Equal(t, ledger.AccountActive, bank.Status)

	// Listing returns the account.
	resp, body := doJSON(t, srv, http.MethodGet, "/api/accounts/bank", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []ledger.Account
	decodeInto(t, body, &accounts)
	require.Len(t, accounts, 1)
	assert.Equal(t, bank.ID, accounts[0].ID)

	// Deactivating flips the status.
	resp, body = doJSON(t, srv, http.MethodPut, "/api/accounts/bank/"+bank.ID+"/status", map[string]string{
		"status": "Inactive",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
	var updated ledger.Account
	decodeInto(t, body, &updated)
	assert.Equal(t, ledger.AccountInactive, updated.Status)

	// Unknown kinds are rejected.
	resp, _ = doJSON(t, srv, http.MethodGet, "/api/accounts/vendor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// INVOICE FLOW
// =============================================================================

func TestInvoiceFlow_CreatePayVoidOverWire(t *testing.T) {
	srv := newTestServer(t)
	bank := createAccount(t, srv, "bank", "Checking", "0.00")
	customer := createAccount(t, srv, "customer", "Maria Gomez", "")
	tee := createProduct(t, srv, "Graphic Tee", "24.99", 10)

	// Create: two tees, no tax or discount.
	resp, body := doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
		"userId": customer.ID,
		"products": []map[string]any{
			{"productId": tee.ID, "quantity": 2, "price": "24.99"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	var inv ledger.Invoice
	decodeInto(t, body, &inv)
	assert.Equal(t, int64(1), inv.InvoiceNumber)
	assert.Equal(t, "49.98", inv.GrandTotal.String())
	assert.Equal(t, ledger.InvoicePending, inv.Status)

	// The wire shape keeps the stored field names.
	var raw map[string]any
	decodeInto(t, body, &raw)
	assert.Contains(t, raw, "invoiceBalance")
	assert.Contains(t, raw, "invoiceStatus")
	assert.Equal(t, "Pending", raw["invoiceStatus"])

	// Listing: the whole year, and month narrowed by status.
	now := time.Now().UTC()
	resp, body = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/invoices?year=%d", now.Year()), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []ledger.Invoice
	decodeInto(t, body, &listed)
	require.Len(t, listed, 1)

	resp, body = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/invoices?year=%d&month=%d&status=Pending", now.Year(), int(now.Month())), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed = nil
	decodeInto(t, body, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, inv.ID, listed[0].ID)

	// Pay half.
	resp, body = doJSON(t, srv, http.MethodPost, "/api/invoices/"+inv.ID+"/payments", map[string]any{
		"bankAccountId": bank.ID,
		"amount":        "20.00",
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mid ledger.Invoice
	decodeInto(t, body, &mid)
	assert.Equal(t, ledger.InvoicePartial, mid.Status)
	assert.Equal(t, "29.98", mid.Balance.String())

	// Void: stock returns, status flips.
	resp, body = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
	var voided ledger.Invoice
	decodeInto(t, body, &voided)
	assert.Equal(t, ledger.InvoiceVoided, voided.Status)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []ledger.Product
	decodeInto(t, body, &products)
	require.Len(t, products, 1)
	assert.Equal(t, int64(10), products[0].Quantity)

	// Voiding twice is a conflict.
	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+inv.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// TRANSACTIONS AND ERROR MAPPING
// =============================================================================

func TestTransactionEndpoints_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	bank := createAccount(t, srv, "bank", "Checking", "100.00")

	// A valid deposit.
	resp, body := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"bankAccountId": bank.ID,
		"type":          "Deposit",
		"amount":        "50.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	var tx ledger.Transaction
	decodeInto(t, body, &tx)

	// Overdrawing is a 400 with the shortfall in the details.
	resp, body = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"bankAccountId": bank.ID,
		"type":          "Withdraw",
		"amount":        "999.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp api.ErrorResponse
	decodeInto(t, body, &errResp)
	assert.Contains(t, errResp.Details, "insufficient funds")

	// A malformed amount never reaches the ledger.
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"bankAccountId": bank.ID,
		"type":          "Deposit",
		"amount":        "not-money",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown ids map to 404.
	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/transactions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Voiding works once, conflicts the second time.
	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)
	from := createAccount(t, srv, "bank", "Checking", "300.00")
	to := createAccount(t, srv, "bank", "Savings", "0.00")

	resp, body := doJSON(t, srv, http.MethodPost, "/api/transactions/transfer", map[string]any{
		"fromAccountId": from.ID,
		"toAccountId":   to.ID,
		"amount":        "120.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var result struct {
		WithdrawID string `json:"withdrawId"`
		DepositID  string `json:"depositId"`
	}
	decodeInto(t, body, &result)
	assert.NotEmpty(t, result.WithdrawID)
	assert.NotEmpty(t, result.DepositID)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/accounts/bank/"+to.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dest ledger.Account
	decodeInto(t, body, &dest)
	assert.Equal(t, "120", dest.Balance.String())
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []api.ScenarioDTO
	decodeInto(t, body, &list)
	require.NotEmpty(t, list)

	resp, body = doJSON(t, srv, http.MethodPost, "/api/scenarios/load", map[string]string{
		"scenario_id": list[0].ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	// The seeded shop has accounts and products ready to use.
	resp, body = doJSON(t, srv, http.MethodGet, "/api/accounts/bank", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var banks []ledger.Account
	decodeInto(t, body, &banks)
	assert.NotEmpty(t, banks)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []ledger.Product
	decodeInto(t, body, &products)
	assert.NotEmpty(t, products)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current api.ScenarioDTO
	decodeInto(t, body, &current)
	assert.Equal(t, list[0].ID, current.ID)
}
