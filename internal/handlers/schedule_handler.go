package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/middleware"
	"github.com/NITsush45/enter-bank/internal/models"
	"github.com/NITsush45/enter-bank/internal/services"
)

// ScheduleHandler exposes the recurring payment lifecycle to authenticated
// customers.
type ScheduleHandler struct {
	schedules *services.ScheduleService
	validator *services.ValidationHelper
}

func NewScheduleHandler(schedules *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		validator: services.NewValidationHelper(),
	}
}

type createScheduleRequest struct {
	FromAccountNumber string          `json:"from_account_number" validate:"required,max=30"`
	ToAccountNumber   string          `json:"to_account_number,omitempty" validate:"max=30"`
	BillerID          *int64          `json:"biller_id,omitempty"`
	BillerReference   string          `json:"biller_reference,omitempty" validate:"max=100"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	Frequency         string          `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
	StartDate         string          `json:"start_date" validate:"required"`
	EndDate           string          `json:"end_date,omitempty"`
	UserMemo          string          `json:"user_memo,omitempty" validate:"max=255"`
}

// Create registers a new recurring payment instruction.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var body createScheduleRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.validator.ValidateStruct(&body); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	startDate, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		services.SendErrorResponse(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}
	req := services.ScheduleRequest{
		FromAccountNumber: body.FromAccountNumber,
		ToAccountNumber:   body.ToAccountNumber,
		BillerID:          body.BillerID,
		BillerReference:   body.BillerReference,
		Amount:            body.Amount,
		Frequency:         models.PaymentFrequency(body.Frequency),
		StartDate:         startDate,
		UserMemo:          body.UserMemo,
	}
	if body.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			services.SendErrorResponse(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		req.EndDate = &endDate
	}

	payment, err := h.schedules.Schedule(r.Context(), username, req)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// List returns the caller's active and paused schedules.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	payments, err := h.schedules.ListForUser(r.Context(), username)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": payments})
}

func (h *ScheduleHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Pause)
}

func (h *ScheduleHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Resume)
}

func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Cancel)
}

func (h *ScheduleHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, username string, scheduleID int64) error) {

	username, ok := middleware.Username(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	scheduleID, err := strconv.ParseInt(chi.URLParam(r, "scheduleId"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid schedule id", http.StatusBadRequest, nil)
		return
	}

	if err := op(r.Context(), username, scheduleID); err != nil {
		sendServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
