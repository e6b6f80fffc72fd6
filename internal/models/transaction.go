package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeTransfer       TransactionType = "TRANSFER"
	TransactionTypeBillPayment    TransactionType = "BILL_PAYMENT"
	TransactionTypeDeposit        TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal     TransactionType = "WITHDRAWAL"
	TransactionTypeTopUp          TransactionType = "TOP_UP"
	TransactionTypeFee            TransactionType = "FEE"
	TransactionTypeInterestPayout TransactionType = "INTEREST_PAYOUT"
	TransactionTypeGift           TransactionType = "GIFT"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is the append-only record of one value movement. Amount is
// always positive; at least one of FromAccountID/ToAccountID is set. Rows are
// never mutated after insert.
type Transaction struct {
	ID              int64             `json:"id" db:"id"`
	Reference       string            `json:"reference" db:"reference"`
	TransactionType TransactionType   `json:"transaction_type" db:"transaction_type"`
	Status          TransactionStatus `json:"status" db:"status"`
	Amount          decimal.Decimal   `json:"amount" db:"amount"`
	FromAccountID   *int64            `json:"from_account_id,omitempty" db:"from_account_id"`
	ToAccountID     *int64            `json:"to_account_id,omitempty" db:"to_account_id"`
	TransactionDate time.Time         `json:"transaction_date" db:"transaction_date"`
	Description     string            `json:"description" db:"description"`
	UserMemo        string            `json:"user_memo,omitempty" db:"user_memo"`
	// RunningBalance snapshots the debited account's balance at commit time,
	// denormalized for statement rendering.
	RunningBalance decimal.Decimal `json:"running_balance" db:"running_balance"`
}

// Deposit is the teller-facing audit record behind a DEPOSIT transaction. It
// carries the acting employee so cash deposits are never mistaken for peer
// transfers.
type Deposit struct {
	ID                  int64           `json:"id" db:"id"`
	TransactionID       int64           `json:"transaction_id" db:"transaction_id"`
	ToAccountID         int64           `json:"to_account_id" db:"to_account_id"`
	Amount              decimal.Decimal `json:"amount" db:"amount"`
	ProcessedByEmployee string          `json:"processed_by_employee" db:"processed_by_employee"`
	DepositTimestamp    time.Time       `json:"deposit_timestamp" db:"deposit_timestamp"`
	Notes               string          `json:"notes,omitempty" db:"notes"`
}

// HistoryFilter narrows a transaction history query. Nil/zero values mean
// "no filter"; paging is 1-based.
type HistoryFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	TransactionType TransactionType
	Page            int
	PageSize        int
}

// TransactionDetail is the participant-facing view of one transaction with
// counterparty names resolved. BILL_PAYMENT rows show the biller's display
// name instead of the internal receiving account.
type TransactionDetail struct {
	Transaction
	FromAccountNumber string `json:"from_account_number,omitempty"`
	FromOwnerName     string `json:"from_owner_name,omitempty"`
	ToAccountNumber   string `json:"to_account_number,omitempty"`
	ToOwnerName       string `json:"to_owner_name,omitempty"`
}

// DepositHistoryEntry joins a deposit audit row with its target account for
// the employee-facing history view.
type DepositHistoryEntry struct {
	Deposit
	AccountNumber string `json:"account_number"`
	OwnerUsername string `json:"owner_username,omitempty"`
}
