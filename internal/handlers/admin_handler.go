package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/middleware"
	"github.com/NITsush45/enter-bank/internal/models"
	"github.com/NITsush45/enter-bank/internal/services"
)

// AdminHandler groups the employee-only operations: cash deposits, deposit
// audit queries, and interest rate management.
type AdminHandler struct {
	ledger    *services.LedgerService
	interest  *services.InterestService
	validator *services.ValidationHelper
}

func NewAdminHandler(ledger *services.LedgerService, interest *services.InterestService) *AdminHandler {
	return &AdminHandler{
		ledger:    ledger,
		interest:  interest,
		validator: services.NewValidationHelper(),
	}
}

func requireEmployee(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return "", false
	}
	if !middleware.HasRole(r.Context(), "EMPLOYEE") {
		services.SendErrorResponse(w, "Employee role required", http.StatusForbidden, nil)
		return "", false
	}
	return username, true
}

// Deposit credits cash onto a customer account on behalf of a teller.
func (h *AdminHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	username, ok := requireEmployee(w, r)
	if !ok {
		return
	}

	var req services.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	record, err := h.ledger.Deposit(r.Context(), username, req)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// DepositHistory searches the deposit audit trail with optional customer and
// date filters.
func (h *AdminHandler) DepositHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEmployee(w, r); !ok {
		return
	}

	searchTerm := r.URL.Query().Get("search")
	var start, end *time.Time
	if t, ok := queryDate(r, "start_date"); ok {
		start = &t
	}
	if t, ok := queryDate(r, "end_date"); ok {
		end = &t
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	entries, err := h.ledger.DepositHistory(r.Context(), searchTerm, start, end, page, pageSize)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	total, err := h.ledger.CountDepositHistory(r.Context(), searchTerm, start, end)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deposits":  entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type saveRateRequest struct {
	AccountType  string          `json:"account_type" validate:"required,oneof=SAVING CURRENT"`
	AccountLevel string          `json:"account_level" validate:"required,oneof=STANDARD SILVER GOLD PLATINUM"`
	AnnualRate   decimal.Decimal `json:"annual_rate" validate:"required"`
	Description  string          `json:"description" validate:"max=255"`
}

// SaveRate creates or updates the annual interest rate for one account
// type/level pair.
func (h *AdminHandler) SaveRate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEmployee(w, r); !ok {
		return
	}

	var body saveRateRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.validator.ValidateStruct(&body); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	rate := models.InterestRate{
		ID: models.InterestRateID{
			AccountType:  models.AccountType(body.AccountType),
			AccountLevel: models.AccountLevel(body.AccountLevel),
		},
		AnnualRate:  body.AnnualRate,
		Description: body.Description,
	}
	saved, err := h.interest.SaveRate(r.Context(), rate)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ListRates returns every configured interest rate.
func (h *AdminHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEmployee(w, r); !ok {
		return
	}

	rates, err := h.interest.ListRates(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
}
