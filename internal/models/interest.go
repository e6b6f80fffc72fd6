package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestRateID is the composite key of the rate table: one annual rate per
// (account type, owner level) pair.
type InterestRateID struct {
	AccountType  AccountType  `json:"account_type" db:"account_type"`
	AccountLevel AccountLevel `json:"account_level" db:"account_level"`
}

type InterestRate struct {
	ID          InterestRateID  `json:"id"`
	AnnualRate  decimal.Decimal `json:"annual_rate" db:"annual_rate"`
	Description string          `json:"description,omitempty" db:"description"`
}

// InterestAccrual is one day's computed interest for one account. At most one
// row exists per (account, accrual date); once PaidOut it is never revisited.
// InterestAmount keeps 12 decimal places so repeated accruals lose nothing
// before the payout sweep truncates to balance precision.
type InterestAccrual struct {
	ID             int64           `json:"id" db:"id"`
	AccountID      int64           `json:"account_id" db:"account_id"`
	AccrualDate    time.Time       `json:"accrual_date" db:"accrual_date"`
	InterestAmount decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	ClosingBalance decimal.Decimal `json:"closing_balance" db:"closing_balance"`
	AnnualRateUsed decimal.Decimal `json:"annual_rate_used" db:"annual_rate_used"`
	PaidOut        bool            `json:"paid_out" db:"paid_out"`
}
