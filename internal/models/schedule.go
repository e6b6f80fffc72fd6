package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentFrequency string

const (
	FrequencyDaily     PaymentFrequency = "DAILY"
	FrequencyWeekly    PaymentFrequency = "WEEKLY"
	FrequencyMonthly   PaymentFrequency = "MONTHLY"
	FrequencyQuarterly PaymentFrequency = "QUARTERLY"
	FrequencyYearly    PaymentFrequency = "YEARLY"
)

type ScheduledPaymentStatus string

const (
	ScheduleStatusActive    ScheduledPaymentStatus = "ACTIVE"
	ScheduleStatusPaused    ScheduledPaymentStatus = "PAUSED"
	ScheduleStatusCompleted ScheduledPaymentStatus = "COMPLETED"
	ScheduleStatusFailed    ScheduledPaymentStatus = "FAILED"
)

// ScheduledPayment is a user instruction to repeat a payment at a fixed
// frequency. Exactly one destination is set: ToAccountID for a peer transfer,
// or BillerID plus BillerReference for a bill payment. NextExecutionDate only
// advances after a successful execution; FAILED is terminal.
type ScheduledPayment struct {
	ID                int64                  `json:"id" db:"id"`
	UserID            int64                  `json:"user_id" db:"user_id"`
	FromAccountID     int64                  `json:"from_account_id" db:"from_account_id"`
	ToAccountID       *int64                 `json:"to_account_id,omitempty" db:"to_account_id"`
	BillerID          *int64                 `json:"biller_id,omitempty" db:"biller_id"`
	BillerReference   string                 `json:"biller_reference,omitempty" db:"biller_reference"`
	Amount            decimal.Decimal        `json:"amount" db:"amount"`
	Frequency         PaymentFrequency       `json:"frequency" db:"frequency"`
	StartDate         time.Time              `json:"start_date" db:"start_date"`
	NextExecutionDate time.Time              `json:"next_execution_date" db:"next_execution_date"`
	EndDate           *time.Time             `json:"end_date,omitempty" db:"end_date"`
	Status            ScheduledPaymentStatus `json:"status" db:"status"`
	UserMemo          string                 `json:"user_memo,omitempty" db:"user_memo"`
}

// IsBillPayment reports whether the schedule targets a biller rather than a
// peer account.
func (s *ScheduledPayment) IsBillPayment() bool {
	return s.BillerID != nil
}
