package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/models"
)

// LedgerService executes atomic value movements between at most two accounts
// and appends an immutable transaction record for each. Every operation either
// fully succeeds (balances updated and transaction recorded) or fully fails
// with no visible side effect.
//
// Locking contract: each operation resolves the internal ids of every account
// it touches, sorts them ascending and acquires SELECT ... FOR UPDATE row
// locks in that order. The sorted order makes concurrent operations on the
// same account pair deadlock-free.
type LedgerService struct {
	db         *sql.DB
	users      UserDirectory
	billers    BillerDirectory
	notifier   Notifier
	giftAmount decimal.Decimal
}

func NewLedgerService(db *sql.DB, users UserDirectory, billers BillerDirectory, notifier Notifier, giftAmount decimal.Decimal) *LedgerService {
	return &LedgerService{
		db:         db,
		users:      users,
		billers:    billers,
		notifier:   notifier,
		giftAmount: giftAmount,
	}
}

type TransferRequest struct {
	FromAccountNumber string          `json:"from_account_number" validate:"required,max=30"`
	ToAccountNumber   string          `json:"to_account_number" validate:"required,max=30"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	UserMemo          string          `json:"user_memo" validate:"max=255"`
}

type BillPaymentRequest struct {
	FromAccountNumber string          `json:"from_account_number" validate:"required,max=30"`
	BillerID          int64           `json:"biller_id" validate:"required,gt=0"`
	BillerReference   string          `json:"biller_reference" validate:"required,max=100"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	UserMemo          string          `json:"user_memo" validate:"max=255"`
}

type DepositRequest struct {
	ToAccountNumber string          `json:"to_account_number" validate:"required,max=30"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Notes           string          `json:"notes" validate:"max=255"`
}

// Transfer moves amount from one user-owned account to a peer account and
// appends a TRANSFER transaction carrying the source's post-debit balance.
func (s *LedgerService) Transfer(ctx context.Context, username string, req TransferRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if req.FromAccountNumber == req.ToAccountNumber {
		return nil, models.ErrSelfTransfer
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, models.ErrAccountNotActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	fromID, err := resolveAccountID(tx, req.FromAccountNumber)
	if err != nil {
		return nil, err
	}
	toID, err := resolveAccountID(tx, req.ToAccountNumber)
	if err != nil {
		return nil, err
	}

	accounts, err := lockAccounts(tx, fromID, toID)
	if err != nil {
		return nil, err
	}
	from, to := accounts[fromID], accounts[toID]

	if from.OwnerID == nil || *from.OwnerID != user.ID {
		return nil, models.ErrNotAuthorized
	}
	if from.Balance.LessThan(req.Amount) {
		return nil, models.ErrInsufficientFunds
	}

	newFromBalance := from.Balance.Sub(req.Amount)
	newToBalance := to.Balance.Add(req.Amount)
	if err := updateBalance(tx, from.ID, newFromBalance); err != nil {
		return nil, err
	}
	if err := updateBalance(tx, to.ID, newToBalance); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeTransfer,
		Status:          models.TransactionStatusCompleted,
		Amount:          req.Amount,
		FromAccountID:   &from.ID,
		ToAccountID:     &to.ID,
		TransactionDate: time.Now().UTC(),
		Description:     "Transfer to " + ownerDisplayName(tx, to),
		UserMemo:        req.UserMemo,
		RunningBalance:  newFromBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}
	log.Printf("[LEDGER] transfer %s: %s -> %s amount=%s", record.Reference,
		req.FromAccountNumber, req.ToAccountNumber, req.Amount.StringFixed(4))
	return record, nil
}

// PayBill debits a user-owned account and credits the biller's internal
// receiving account. The biller reference lands in the transaction memo for
// downstream reconciliation; it is not validated against the biller's own
// records.
func (s *LedgerService) PayBill(ctx context.Context, username string, req BillPaymentRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, models.ErrAccountNotActive
	}

	biller, err := s.billers.FindByID(ctx, req.BillerID)
	if err != nil {
		return nil, err
	}
	if biller.Status != models.BillerStatusActive {
		return nil, models.ErrBillerNotActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bill payment: %w", err)
	}
	defer tx.Rollback()

	fromID, err := resolveAccountID(tx, req.FromAccountNumber)
	if err != nil {
		return nil, err
	}
	// The biller's receiving account can never pay its own bills: the
	// aliased row would be credited and debited in place.
	if fromID == biller.InternalAccountID {
		return nil, models.ErrSelfTransfer
	}

	accounts, err := lockAccounts(tx, fromID, biller.InternalAccountID)
	if err != nil {
		return nil, err
	}
	from, billerAccount := accounts[fromID], accounts[biller.InternalAccountID]

	if from.OwnerID == nil || *from.OwnerID != user.ID {
		return nil, models.ErrNotAuthorized
	}
	if from.Balance.LessThan(req.Amount) {
		return nil, models.ErrInsufficientFunds
	}

	newFromBalance := from.Balance.Sub(req.Amount)
	if err := updateBalance(tx, from.ID, newFromBalance); err != nil {
		return nil, err
	}
	if err := updateBalance(tx, billerAccount.ID, billerAccount.Balance.Add(req.Amount)); err != nil {
		return nil, err
	}

	memo := "Ref: " + req.BillerReference
	if req.UserMemo != "" {
		memo += " - " + req.UserMemo
	}
	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeBillPayment,
		Status:          models.TransactionStatusCompleted,
		Amount:          req.Amount,
		FromAccountID:   &from.ID,
		ToAccountID:     &billerAccount.ID,
		TransactionDate: time.Now().UTC(),
		Description:     "Bill payment to " + biller.BillerName,
		UserMemo:        memo,
		RunningBalance:  newFromBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bill payment: %w", err)
	}
	log.Printf("[LEDGER] bill payment %s: %s -> biller %d amount=%s", record.Reference,
		req.FromAccountNumber, biller.ID, req.Amount.StringFixed(4))
	return record, nil
}

// Deposit credits a destination account on behalf of a teller or admin. It
// appends a DEPOSIT transaction plus a separate deposit audit record carrying
// the acting employee, so cash deposits are never confused with peer
// transfers.
func (s *LedgerService) Deposit(ctx context.Context, employeeUsername string, req DepositRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin deposit: %w", err)
	}
	defer tx.Rollback()

	toID, err := resolveAccountID(tx, req.ToAccountNumber)
	if err != nil {
		return nil, err
	}
	accounts, err := lockAccounts(tx, toID)
	if err != nil {
		return nil, err
	}
	to := accounts[toID]

	newBalance := to.Balance.Add(req.Amount)
	if err := updateBalance(tx, to.ID, newBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeDeposit,
		Status:          models.TransactionStatusCompleted,
		Amount:          req.Amount,
		ToAccountID:     &to.ID,
		TransactionDate: now,
		Description:     "Cash deposit processed by employee " + employeeUsername,
		RunningBalance:  newBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
		INSERT INTO deposits (transaction_id, to_account_id, amount, processed_by_employee, deposit_timestamp, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, to.ID, req.Amount, employeeUsername, now, req.Notes); err != nil {
		return nil, fmt.Errorf("insert deposit audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit deposit: %w", err)
	}

	s.notifier.Dispatch(ctx, Notification{
		Event:         "deposit.processed",
		AccountNumber: req.ToAccountNumber,
		Amount:        req.Amount.StringFixed(4),
		Actor:         employeeUsername,
	})
	log.Printf("[LEDGER] deposit %s: -> %s amount=%s by %s", record.Reference,
		req.ToAccountNumber, req.Amount.StringFixed(4), employeeUsername)
	return record, nil
}

// SystemTransfer moves value between two accounts identified by internal id.
// It is invoked by the interest and scheduled-payment engines, which have
// already authorized the movement, so no ownership check is made; the source
// owner must still be ACTIVE.
func (s *LedgerService) SystemTransfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal, memo string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, models.ErrSelfTransfer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin system transfer: %w", err)
	}
	defer tx.Rollback()

	accounts, err := lockAccounts(tx, fromAccountID, toAccountID)
	if err != nil {
		return nil, err
	}
	from, to := accounts[fromAccountID], accounts[toAccountID]

	if from.OwnerID != nil {
		owner, err := s.users.FindByID(ctx, *from.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner.Status != models.UserStatusActive {
			return nil, models.ErrAccountNotActive
		}
	}
	if from.Balance.LessThan(amount) {
		return nil, models.ErrInsufficientFunds
	}

	newFromBalance := from.Balance.Sub(amount)
	if err := updateBalance(tx, from.ID, newFromBalance); err != nil {
		return nil, err
	}
	if err := updateBalance(tx, to.ID, to.Balance.Add(amount)); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeTransfer,
		Status:          models.TransactionStatusCompleted,
		Amount:          amount,
		FromAccountID:   &from.ID,
		ToAccountID:     &to.ID,
		TransactionDate: time.Now().UTC(),
		Description:     "Scheduled Transfer to " + ownerDisplayName(tx, to),
		UserMemo:        memo,
		RunningBalance:  newFromBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit system transfer: %w", err)
	}
	log.Printf("[LEDGER] system transfer %s: %d -> %d amount=%s", record.Reference,
		fromAccountID, toAccountID, amount.StringFixed(4))
	return record, nil
}

// SystemBillPayment is the batch runner's bill payment path: like PayBill but
// keyed by internal ids and without an ownership check. The schedule's biller
// reference lands in the memo exactly as in the on-demand path.
func (s *LedgerService) SystemBillPayment(ctx context.Context, fromAccountID, billerID int64, billerReference string, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	biller, err := s.billers.FindByID(ctx, billerID)
	if err != nil {
		return nil, err
	}
	if biller.Status != models.BillerStatusActive {
		return nil, models.ErrBillerNotActive
	}
	if fromAccountID == biller.InternalAccountID {
		return nil, models.ErrSelfTransfer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin system bill payment: %w", err)
	}
	defer tx.Rollback()

	accounts, err := lockAccounts(tx, fromAccountID, biller.InternalAccountID)
	if err != nil {
		return nil, err
	}
	from, billerAccount := accounts[fromAccountID], accounts[biller.InternalAccountID]

	if from.OwnerID != nil {
		owner, err := s.users.FindByID(ctx, *from.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner.Status != models.UserStatusActive {
			return nil, models.ErrAccountNotActive
		}
	}
	if from.Balance.LessThan(amount) {
		return nil, models.ErrInsufficientFunds
	}

	newFromBalance := from.Balance.Sub(amount)
	if err := updateBalance(tx, from.ID, newFromBalance); err != nil {
		return nil, err
	}
	if err := updateBalance(tx, billerAccount.ID, billerAccount.Balance.Add(amount)); err != nil {
		return nil, err
	}

	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeBillPayment,
		Status:          models.TransactionStatusCompleted,
		Amount:          amount,
		FromAccountID:   &from.ID,
		ToAccountID:     &billerAccount.ID,
		TransactionDate: time.Now().UTC(),
		Description:     "Scheduled bill payment to " + biller.BillerName,
		UserMemo:        "Ref: " + billerReference,
		RunningBalance:  newFromBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit system bill payment: %w", err)
	}
	log.Printf("[LEDGER] scheduled bill payment %s: %d -> biller %d amount=%s", record.Reference,
		fromAccountID, billerID, amount.StringFixed(4))
	return record, nil
}

// ClaimWelcomeGift credits the configured one-time gift to the user's primary
// SAVING/CURRENT account and flips the claimed flag, all in one transaction.
// Returns the account's new balance.
func (s *LedgerService) ClaimWelcomeGift(ctx context.Context, username string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin gift claim: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	var status models.UserStatus
	var claimed bool
	err = tx.QueryRow(`
		SELECT id, status, has_claimed_welcome_gift FROM users WHERE username = $1 FOR UPDATE`,
		username).Scan(&userID, &status, &claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock user: %w", err)
	}
	if status != models.UserStatusActive {
		return decimal.Zero, models.ErrAccountNotActive
	}
	if claimed {
		return decimal.Zero, models.ErrGiftAlreadyClaimed
	}

	// SAVING preferred over CURRENT for the gift destination.
	var account models.Account
	err = tx.QueryRow(`
		SELECT id, account_number, balance, account_type, owner_id FROM accounts
		WHERE owner_id = $1 AND account_type IN ('SAVING', 'CURRENT')
		ORDER BY account_type DESC LIMIT 1 FOR UPDATE`,
		userID).Scan(&account.ID, &account.AccountNumber, &account.Balance, &account.AccountType, &account.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock gift account: %w", err)
	}

	newBalance := account.Balance.Add(s.giftAmount)
	if err := updateBalance(tx, account.ID, newBalance); err != nil {
		return decimal.Zero, err
	}
	if _, err := tx.Exec(`UPDATE users SET has_claimed_welcome_gift = TRUE WHERE id = $1`, userID); err != nil {
		return decimal.Zero, fmt.Errorf("mark gift claimed: %w", err)
	}

	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeGift,
		Status:          models.TransactionStatusCompleted,
		Amount:          s.giftAmount,
		ToAccountID:     &account.ID,
		TransactionDate: time.Now().UTC(),
		Description:     "Welcome Gift Claimed",
		RunningBalance:  newBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit gift claim: %w", err)
	}
	log.Printf("[LEDGER] welcome gift claimed by %s into %s", username, account.AccountNumber)
	return newBalance, nil
}

// GetTransactionDetails returns one transaction with counterparty names
// resolved, visible only to a participant. Bill payments show the biller's
// display name instead of the internal receiving account.
func (s *LedgerService) GetTransactionDetails(ctx context.Context, username string, transactionID int64) (*models.TransactionDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.reference, t.transaction_type, t.status, t.amount,
		       t.from_account_id, t.to_account_id, t.transaction_date,
		       COALESCE(t.description, ''), COALESCE(t.user_memo, ''), COALESCE(t.running_balance, 0),
		       COALESCE(fa.account_number, ''), COALESCE(fu.username, ''),
		       COALESCE(fu.first_name, ''), COALESCE(fu.last_name, ''),
		       COALESCE(ta.account_number, ''), COALESCE(tu.username, ''),
		       COALESCE(tu.first_name, ''), COALESCE(tu.last_name, '')
		FROM transactions t
		LEFT JOIN accounts fa ON fa.id = t.from_account_id
		LEFT JOIN users fu ON fu.id = fa.owner_id
		LEFT JOIN accounts ta ON ta.id = t.to_account_id
		LEFT JOIN users tu ON tu.id = ta.owner_id
		WHERE t.id = $1`, transactionID)

	var d models.TransactionDetail
	var fromUsername, fromFirst, fromLast, toUsername, toFirst, toLast string
	err := row.Scan(&d.ID, &d.Reference, &d.TransactionType, &d.Status, &d.Amount,
		&d.FromAccountID, &d.ToAccountID, &d.TransactionDate,
		&d.Description, &d.UserMemo, &d.RunningBalance,
		&d.FromAccountNumber, &fromUsername, &fromFirst, &fromLast,
		&d.ToAccountNumber, &toUsername, &toFirst, &toLast)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction detail: %w", err)
	}

	if fromUsername != username && toUsername != username {
		return nil, models.ErrNotAuthorized
	}

	d.FromOwnerName = joinName(fromFirst, fromLast)
	d.ToOwnerName = joinName(toFirst, toLast)

	if d.TransactionType == models.TransactionTypeBillPayment && d.ToAccountID != nil {
		if biller, err := s.billers.FindByInternalAccountID(ctx, *d.ToAccountID); err == nil {
			d.ToOwnerName = biller.BillerName
			d.ToAccountNumber = "BILLER"
		}
	}
	return &d, nil
}

// TransactionHistory returns a page of the account's statement, newest first.
// The caller must own the account.
func (s *LedgerService) TransactionHistory(ctx context.Context, username, accountNumber string, filter models.HistoryFilter) ([]models.Transaction, error) {
	var accountID int64
	var ownerUsername sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, u.username FROM accounts a
		LEFT JOIN users u ON u.id = a.owner_id
		WHERE a.account_number = $1`, accountNumber).Scan(&accountID, &ownerUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve history account: %w", err)
	}
	if !ownerUsername.Valid || ownerUsername.String != username {
		return nil, models.ErrNotAuthorized
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT id, reference, transaction_type, status, amount, from_account_id, to_account_id,
		       transaction_date, COALESCE(description, ''), COALESCE(user_memo, ''), COALESCE(running_balance, 0)
		FROM transactions
		WHERE (from_account_id = $1 OR to_account_id = $1)`)
	args := []interface{}{accountID}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		fmt.Fprintf(&query, " AND transaction_date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		// Include the whole end day.
		args = append(args, filter.EndDate.AddDate(0, 0, 1))
		fmt.Fprintf(&query, " AND transaction_date < $%d", len(args))
	}
	if filter.TransactionType != "" {
		args = append(args, filter.TransactionType)
		fmt.Fprintf(&query, " AND transaction_type = $%d", len(args))
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)
	fmt.Fprintf(&query, " ORDER BY transaction_date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Reference, &t.TransactionType, &t.Status, &t.Amount,
			&t.FromAccountID, &t.ToAccountID, &t.TransactionDate,
			&t.Description, &t.UserMemo, &t.RunningBalance); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// DepositHistory returns a page of the employee-facing deposit audit trail,
// optionally filtered by a search term and date range.
func (s *LedgerService) DepositHistory(ctx context.Context, searchTerm string, start, end *time.Time, page, pageSize int) ([]models.DepositHistoryEntry, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT d.id, d.transaction_id, d.to_account_id, d.amount, d.processed_by_employee,
		       d.deposit_timestamp, COALESCE(d.notes, ''), a.account_number, COALESCE(u.username, '')
		FROM deposits d
		JOIN accounts a ON a.id = d.to_account_id
		LEFT JOIN users u ON u.id = a.owner_id
		WHERE 1=1`)
	args := buildDepositFilter(&query, searchTerm, start, end)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)
	fmt.Fprintf(&query, " ORDER BY d.deposit_timestamp DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query deposit history: %w", err)
	}
	defer rows.Close()

	var entries []models.DepositHistoryEntry
	for rows.Next() {
		var e models.DepositHistoryEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.ToAccountID, &e.Amount,
			&e.ProcessedByEmployee, &e.DepositTimestamp, &e.Notes,
			&e.AccountNumber, &e.OwnerUsername); err != nil {
			return nil, fmt.Errorf("scan deposit row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountDepositHistory returns the total rows the same filter would match.
func (s *LedgerService) CountDepositHistory(ctx context.Context, searchTerm string, start, end *time.Time) (int64, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT COUNT(*)
		FROM deposits d
		JOIN accounts a ON a.id = d.to_account_id
		LEFT JOIN users u ON u.id = a.owner_id
		WHERE 1=1`)
	args := buildDepositFilter(&query, searchTerm, start, end)

	var count int64
	if err := s.db.QueryRowContext(ctx, query.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count deposit history: %w", err)
	}
	return count, nil
}

func buildDepositFilter(query *strings.Builder, searchTerm string, start, end *time.Time) []interface{} {
	var args []interface{}
	if term := strings.TrimSpace(searchTerm); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		fmt.Fprintf(query, ` AND (LOWER(a.account_number) LIKE $%d OR LOWER(COALESCE(u.username, '')) LIKE $%d OR LOWER(d.processed_by_employee) LIKE $%d)`,
			len(args), len(args), len(args))
	}
	if start != nil {
		args = append(args, *start)
		fmt.Fprintf(query, " AND d.deposit_timestamp >= $%d", len(args))
	}
	if end != nil {
		args = append(args, end.AddDate(0, 0, 1))
		fmt.Fprintf(query, " AND d.deposit_timestamp < $%d", len(args))
	}
	return args
}

// --- row lock and write helpers shared with the interest engine ---

func resolveAccountID(tx *sql.Tx, accountNumber string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM accounts WHERE account_number = $1`, accountNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve account %q: %w", accountNumber, err)
	}
	return id, nil
}

// lockAccounts acquires FOR UPDATE locks on the given account ids in
// ascending id order, the canonical order that keeps concurrent multi-account
// operations deadlock-free.
func lockAccounts(tx *sql.Tx, ids ...int64) (map[int64]*models.Account, error) {
	ordered := append([]int64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	locked := make(map[int64]*models.Account, len(ordered))
	for _, id := range ordered {
		if _, ok := locked[id]; ok {
			continue
		}
		var a models.Account
		err := tx.QueryRow(`
			SELECT id, account_number, balance, account_type, owner_id
			FROM accounts WHERE id = $1 FOR UPDATE`, id).
			Scan(&a.ID, &a.AccountNumber, &a.Balance, &a.AccountType, &a.OwnerID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("lock account %d: %w", id, err)
		}
		locked[id] = &a
	}
	return locked, nil
}

func updateBalance(tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	if _, err := tx.Exec(`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
		balance, time.Now().UTC(), accountID); err != nil {
		return fmt.Errorf("update balance of account %d: %w", accountID, err)
	}
	return nil
}

func insertTransaction(tx *sql.Tx, t *models.Transaction) error {
	err := tx.QueryRow(`
		INSERT INTO transactions (reference, transaction_type, status, amount, from_account_id, to_account_id,
			transaction_date, description, user_memo, running_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		t.Reference, t.TransactionType, t.Status, t.Amount, t.FromAccountID, t.ToAccountID,
		t.TransactionDate, t.Description, t.UserMemo, t.RunningBalance).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ownerDisplayName resolves the destination owner's first name for the
// transaction description; accounts without an owner fall back to the account
// number.
func ownerDisplayName(tx *sql.Tx, account *models.Account) string {
	if account.OwnerID == nil {
		return account.AccountNumber
	}
	var firstName string
	err := tx.QueryRow(`SELECT first_name FROM users WHERE id = $1`, *account.OwnerID).Scan(&firstName)
	if err != nil || firstName == "" {
		return account.AccountNumber
	}
	return firstName
}

func joinName(first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	return name
}
