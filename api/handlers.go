/*
handlers.go - HTTP API handlers for the POS ledger

PURPOSE:
  Exposes the ledger service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the ledger core.

ENDPOINTS:
  Accounts:
    GET    /api/accounts/{kind}              List accounts (bank|customer)
    POST   /api/accounts/{kind}              Open an account
    GET    /api/accounts/{kind}/{id}         Get one account
    PUT    /api/accounts/{kind}/{id}/status  Activate / deactivate

  Transactions:
    GET    /api/transactions?year=&month=    Month listing
    POST   /api/transactions                 Record deposit/expense/...
    POST   /api/transactions/transfer        Transfer between accounts
    DELETE /api/transactions/{id}            Void

  Invoices:
    POST   /api/invoices                     Create (stock + numbering)
    GET    /api/invoices/{id}
    GET    /api/invoices?year=               &month= and &status= narrow
    POST   /api/invoices/{id}/payments       Apply a payment
    DELETE /api/invoices/{id}                Void

  Payments:
    GET    /api/payments?year=&month=
    POST   /api/payments                     Standalone customer credit
    DELETE /api/payments/{id}                Void

  Loans:
    GET    /api/loans
    POST   /api/loans                        Disburse
    POST   /api/loans/{id}/payments          Repayment

  Products:
    GET    /api/products?status=
    POST   /api/products
    PUT    /api/products/{id}

  Admin / reports:
    POST   /api/admin/pastdue                Run the overdue sweep now
    GET    /api/reports/summary?year=&month=

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient funds/stock, settled invoices
  - 404: Unknown document ids
  - 409: Double void, duplicate invoice number
  - 500: Internal errors (logged with request context)

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: background overdue sweep
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
	Log     zerolog.Logger

	// Resetter clears stored data before a demo scenario load. Optional;
	// when nil, scenarios seed on top of existing data.
	Resetter interface {
		Reset(ctx context.Context) error
	}

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler around the ledger service.
func NewHandler(svc *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

func accountKind(r *http.Request) (ledger.AccountKind, bool) {
	switch chi.URLParam(r, "kind") {
	case "bank":
		return ledger.KindBank, true
	case "customer", "customers":
		return ledger.KindCustomer, true
	}
	return "", false
}

// ListAccounts returns all accounts of a kind.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	kind, ok := accountKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown account kind", nil)
		return
	}

	accounts, err := h.Service.Accounts(r.Context(), kind)
	if err != nil {
		h.respondErr(w, r, "Failed to list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// OpenAccount creates a new bank or customer account.
func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	kind, ok := accountKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown account kind", nil)
		return
	}

	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	opening, err := parseOptionalAmount("openingAmount", req.OpeningAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	account, err := h.Service.OpenAccount(r.Context(), ledger.OpenAccountRequest{
		Kind:          kind,
		DisplayName:   req.DisplayName,
		AccountNumber: req.AccountNumber,
		OpeningAmount: opening,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to open account", err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	kind, ok := accountKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown account kind", nil)
		return
	}

	account, err := h.Service.Account(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// UpdateAccountStatus flips the Active/Inactive flag.
func (h *Handler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	kind, ok := accountKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown account kind", nil)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.Service.UpdateAccountStatus(r.Context(), kind, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondErr(w, r, "Failed to update account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns a month's transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}

	txs, err := h.Service.TransactionsByMonth(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, "Failed to list transactions", err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// RecordTransaction records a deposit, expense, withdrawal, or asset
// purchase against a bank account.
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	txType, err := ledger.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction type", err)
		return
	}

	tx, err := h.Service.RecordSimple(r.Context(), ledger.RecordTransactionRequest{
		AccountID:   req.BankAccountID,
		Type:        txType,
		Amount:      amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to record transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Transfer moves money between two bank accounts.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	result, err := h.Service.RecordTransfer(r.Context(), ledger.TransferRequest{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Description:   req.Description,
		Date:          req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, TransferResponse{
		WithdrawID: result.WithdrawID,
		DepositID:  result.DepositID,
	})
}

// VoidTransaction reverses a transaction.
func (h *Handler) VoidTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Service.VoidTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "Failed to void transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// CreateInvoice creates an invoice with stock checks and numbering.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	lines, err := toLineItems(req.Lines)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid line item", err)
		return
	}

	inv, err := h.Service.CreateInvoice(r.Context(), ledger.CreateInvoiceRequest{
		CustomerID: req.CustomerID,
		Lines:      lines,
		DueDate:    req.DueDate,
		IssuedDate: req.IssuedDate,
		Memo:       req.Memo,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to create invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// GetInvoice returns a single invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.Invoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "Failed to get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ListInvoices lists by ?year=, narrowed by optional &month= and &status=.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year query parameter is required", nil)
		return
	}

	status := ledger.InvoiceStatus(r.URL.Query().Get("status"))
	monthParam := r.URL.Query().Get("month")
	var month int
	if monthParam != "" {
		if month, err = strconv.Atoi(monthParam); err != nil {
			writeError(w, http.StatusBadRequest, "month query parameter must be a number", nil)
			return
		}
	}

	var invoices []ledger.Invoice
	switch {
	case monthParam != "" && status != "":
		invoices, err = h.Service.InvoicesByMonthAndStatus(r.Context(), year, month, status)
	case monthParam != "":
		invoices, err = h.Service.InvoicesByMonth(r.Context(), year, month)
	case status != "":
		invoices, err = h.Service.InvoicesByStatus(r.Context(), year, status)
	default:
		invoices, err = h.Service.InvoicesByYear(r.Context(), year)
	}
	if err != nil {
		h.respondErr(w, r, "Failed to list invoices", err)
		return
	}
	if invoices == nil {
		invoices = []ledger.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// ApplyPayment applies a payment to an invoice.
func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	var req ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	pay, err := h.Service.ApplyPayment(r.Context(), chi.URLParam(r, "id"), ledger.ApplyPaymentRequest{
		BankAccountID: req.BankAccountID,
		Amount:        amount,
		Method:        req.PaymentMethod,
		Date:          req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to apply payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, pay)
}

// VoidInvoice cancels an invoice.
func (h *Handler) VoidInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.VoidInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "Failed to void invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns a month's payments.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}

	payments, err := h.Service.PaymentsByMonth(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, "Failed to list payments", err)
		return
	}
	if payments == nil {
		payments = []ledger.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// AddCredit records a standalone customer credit.
func (h *Handler) AddCredit(w http.ResponseWriter, r *http.Request) {
	var req AddCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	pay, err := h.Service.AddStandaloneCredit(r.Context(), ledger.AddCreditRequest{
		CustomerID:    req.CustomerID,
		BankAccountID: req.BankAccountID,
		Amount:        amount,
		Method:        req.PaymentMethod,
		Date:          req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to add credit", err)
		return
	}
	writeJSON(w, http.StatusCreated, pay)
}

// VoidPayment reverses a payment.
func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	pay, err := h.Service.VoidPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "Failed to void payment", err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// ListLoans returns all loans.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Service.Loans(r.Context())
	if err != nil {
		h.respondErr(w, r, "Failed to list loans", err)
		return
	}
	if loans == nil {
		loans = []ledger.LoanAccount{}
	}
	writeJSON(w, http.StatusOK, loans)
}

// DisburseLoan pays a loan out to a customer.
func (h *Handler) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	var req DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	loan, err := h.Service.DisburseLoan(r.Context(), ledger.DisburseLoanRequest{
		BankAccountID: req.BankAccountID,
		CustomerID:    req.CustomerID,
		Amount:        amount,
		Description:   req.Description,
		Date:          req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to disburse loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// ReceiveLoanPayment records a loan repayment.
func (h *Handler) ReceiveLoanPayment(w http.ResponseWriter, r *http.Request) {
	var req LoanPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	loan, err := h.Service.ReceiveLoanPayment(r.Context(), ledger.LoanPaymentRequest{
		LoanID:      chi.URLParam(r, "id"),
		Amount:      amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		h.respondErr(w, r, "Failed to record loan payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts lists the catalog, optionally filtered by ?status=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.Products(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondErr(w, r, "Failed to list products", err)
		return
	}
	if products == nil {
		products = []ledger.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct adds a catalog entry.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.Service.AddProduct(r.Context(), ledger.AddProductRequest{Product: p})
	if err != nil {
		h.respondErr(w, r, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateProduct replaces the catalog fields of a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	p.ID = chi.URLParam(r, "id")

	updated, err := h.Service.UpdateProduct(r.Context(), p)
	if err != nil {
		h.respondErr(w, r, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (ledger.Product, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.Product{}, false
	}
	price, err := parseAmount("price", req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Product{}, false
	}
	cost, err := parseOptionalAmount("cost", req.Cost)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Product{}, false
	}
	gst, err := parseOptionalAmount("gst", req.GST)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Product{}, false
	}
	disc, err := parseOptionalAmount("discount", req.Discount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return ledger.Product{}, false
	}

	return ledger.Product{
		Name:        req.ProductName,
		UPC:         req.UPC,
		Price:       price,
		Cost:        cost,
		Quantity:    req.Quantity,
		Taxable:     req.Tax,
		TaxPct:      gst,
		DiscountPct: disc,
		Status:      req.Status,
	}, true
}

// =============================================================================
// ADMIN AND REPORT HANDLERS
// =============================================================================

// RunPastDueSweep runs the overdue sweep immediately.
func (h *Handler) RunPastDueSweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkPastDue(r.Context())
	if err != nil {
		h.respondErr(w, r, "Failed to run sweep", err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{MarkedPastDue: n})
}

// MonthlySummary returns the bookkeeping roll-up for a month.
func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Summary(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// HELPERS
// =============================================================================

// respondErr maps ledger errors to HTTP statuses. Server-side failures are
// logged with the request id; client errors are returned verbatim.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrAlreadyVoided), errors.Is(err, ledger.ErrDuplicateInvoiceNumber):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg(message)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

func yearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year query parameter is required", nil)
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month query parameter is required", nil)
		return 0, 0, false
	}
	return year, month, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
