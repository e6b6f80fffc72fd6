package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSaving  AccountType = "SAVING"
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeBiller  AccountType = "BILLER"
)

type AccountLevel string

const (
	AccountLevelStandard AccountLevel = "STANDARD"
	AccountLevelSilver   AccountLevel = "SILVER"
	AccountLevelGold     AccountLevel = "GOLD"
	AccountLevelPlatinum AccountLevel = "PLATINUM"
)

// Account is the single row every money operation reads and mutates under an
// exclusive lock. Balance is NUMERIC(19,4); it only ever changes as a side
// effect of a ledger operation.
type Account struct {
	ID            int64           `json:"id" db:"id"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	AccountType   AccountType     `json:"account_type" db:"account_type"`
	OwnerID       *int64          `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
