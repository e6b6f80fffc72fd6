package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NITsush45/enter-bank/internal/middleware"
	"github.com/NITsush45/enter-bank/internal/models"
	"github.com/NITsush45/enter-bank/internal/services"
)

// TransferHandler exposes the on-demand ledger operations to authenticated
// customers.
type TransferHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewTransferHandler(ledger *services.LedgerService) *TransferHandler {
	return &TransferHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// Transfer moves funds between the caller's account and a peer account.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	record, err := h.ledger.Transfer(r.Context(), username, req)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// PayBill pays a biller from the caller's account.
func (h *TransferHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.BillPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	record, err := h.ledger.PayBill(r.Context(), username, req)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ClaimGift claims the one-time welcome gift.
func (h *TransferHandler) ClaimGift(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	balance, err := h.ledger.ClaimWelcomeGift(r.Context(), username)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.StringFixed(4)})
}

// History returns a page of the caller's account statement.
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountNumber := r.URL.Query().Get("account_number")
	if accountNumber == "" {
		services.SendErrorResponse(w, "account_number is required", http.StatusBadRequest, nil)
		return
	}

	filter := models.HistoryFilter{
		TransactionType: models.TransactionType(r.URL.Query().Get("type")),
		Page:            queryInt(r, "page", 1),
		PageSize:        queryInt(r, "page_size", 20),
	}
	if start, ok := queryDate(r, "start_date"); ok {
		filter.StartDate = &start
	}
	if end, ok := queryDate(r, "end_date"); ok {
		filter.EndDate = &end
	}

	history, err := h.ledger.TransactionHistory(r.Context(), username, accountNumber, filter)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": history})
}

// Detail returns one transaction the caller participated in.
func (h *TransferHandler) Detail(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transactionID, err := strconv.ParseInt(chi.URLParam(r, "txId"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	detail, err := h.ledger.GetTransactionDetails(r.Context(), username, transactionID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func queryDate(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
