package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/models"
)

// Scale of the stored daily accrual amounts, matching the NUMERIC(31,12)
// accrual column. Accrual keeps far more digits than the scale-4 balance so
// repeated daily accruals lose almost nothing before the payout sweep.
const accrualPrecision = 12

// Scale of the intermediate division. Dividing at 20 and then settling to the
// column scale keeps the half-up rounding anchored on the 13th digit instead
// of compounding it into the division itself.
const divisionScale = 20

// balanceScale matches the NUMERIC(19,4) balance columns.
const balanceScale = 4

// InterestService computes daily interest accruals from the rate table and
// sweeps unpaid accruals into account balances. It keeps no state of its own
// beyond the rate table and the accrual log.
type InterestService struct {
	db *sql.DB
}

func NewInterestService(db *sql.DB) *InterestService {
	return &InterestService{db: db}
}

// AccrueDailyInterest computes one InterestAccrual row per eligible account
// for today. Accounts that already have a row for today are skipped, so the
// job is safe to re-run on the same calendar date. Accounts with no
// configured (type, level) rate are skipped silently. Balances are never
// touched here.
func (s *InterestService) AccrueDailyInterest(ctx context.Context) error {
	today := dateOnly(time.Now().UTC())
	daysInYear := decimal.NewFromInt(int64(time.Date(today.Year(), 12, 31, 0, 0, 0, 0, time.UTC).YearDay()))

	rates, err := s.rateMap(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accrual: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT a.id, a.balance, a.account_type, u.account_level
		FROM accounts a
		JOIN users u ON u.id = a.owner_id
		WHERE a.account_type IN ('SAVING', 'CURRENT') AND a.balance > 0`)
	if err != nil {
		return fmt.Errorf("find eligible accounts: %w", err)
	}

	type eligible struct {
		id          int64
		balance     decimal.Decimal
		accountType models.AccountType
		level       models.AccountLevel
	}
	var candidates []eligible
	for rows.Next() {
		var e eligible
		if err := rows.Scan(&e.id, &e.balance, &e.accountType, &e.level); err != nil {
			rows.Close()
			return fmt.Errorf("scan eligible account: %w", err)
		}
		candidates = append(candidates, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate eligible accounts: %w", err)
	}

	log.Printf("[INTEREST] accruing interest for %d eligible accounts on %s",
		len(candidates), today.Format("2006-01-02"))

	accrued := 0
	for _, account := range candidates {
		var existing int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM interest_accruals WHERE account_id = $1 AND accrual_date = $2`,
			account.id, today).Scan(&existing); err != nil {
			return fmt.Errorf("check accrual guard: %w", err)
		}
		if existing > 0 {
			continue
		}

		annualRate, ok := rates[models.InterestRateID{AccountType: account.accountType, AccountLevel: account.level}]
		if !ok {
			continue
		}

		dailyInterest := account.balance.Mul(annualRate).
			DivRound(daysInYear, divisionScale).
			Round(accrualPrecision)
		if _, err := tx.Exec(`
			INSERT INTO interest_accruals (account_id, accrual_date, interest_amount, closing_balance, annual_rate_used, paid_out)
			VALUES ($1, $2, $3, $4, $5, FALSE)`,
			account.id, today, dailyInterest, account.balance, annualRate); err != nil {
			return fmt.Errorf("insert accrual for account %d: %w", account.id, err)
		}
		accrued++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accrual: %w", err)
	}
	log.Printf("[INTEREST] accrual complete: %d new records", accrued)
	return nil
}

// PayoutInterest sweeps every account's unpaid accruals into its balance. The
// summed high-precision amount is truncated (not rounded) to balance
// precision, so a sub-0.0001 residual is dropped each cycle; that is the
// documented payout behavior. Each account is settled in its own transaction
// under its row lock, so one account's failure does not abort the sweep and
// the job coexists with concurrent transfers.
func (s *InterestService) PayoutInterest(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT account_id FROM interest_accruals WHERE paid_out = FALSE`)
	if err != nil {
		return fmt.Errorf("find accounts with unpaid accruals: %w", err)
	}
	var accountIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan unpaid account id: %w", err)
		}
		accountIDs = append(accountIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate unpaid account ids: %w", err)
	}

	var failures int
	for _, accountID := range accountIDs {
		if err := s.payoutAccount(ctx, accountID); err != nil {
			failures++
			log.Printf("[INTEREST] payout failed for account %d: %v", accountID, err)
		}
	}
	log.Printf("[INTEREST] payout complete: %d accounts, %d failures", len(accountIDs), failures)
	if failures > 0 {
		return fmt.Errorf("interest payout: %d of %d accounts failed", failures, len(accountIDs))
	}
	return nil
}

func (s *InterestService) payoutAccount(ctx context.Context, accountID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payout: %w", err)
	}
	defer tx.Rollback()

	accounts, err := lockAccounts(tx, accountID)
	if err != nil {
		return err
	}
	account := accounts[accountID]

	var total decimal.Decimal
	if err := tx.QueryRow(`
		SELECT COALESCE(SUM(interest_amount), 0) FROM interest_accruals
		WHERE account_id = $1 AND paid_out = FALSE`, accountID).Scan(&total); err != nil {
		return fmt.Errorf("sum unpaid accruals: %w", err)
	}

	payout := total.Truncate(balanceScale)
	if !payout.IsPositive() {
		return tx.Commit()
	}

	newBalance := account.Balance.Add(payout)
	if err := updateBalance(tx, accountID, newBalance); err != nil {
		return err
	}

	// Interest originates from the institution, not a peer account.
	record := &models.Transaction{
		Reference:       uuid.NewString(),
		TransactionType: models.TransactionTypeInterestPayout,
		Status:          models.TransactionStatusCompleted,
		Amount:          payout,
		ToAccountID:     &accountID,
		TransactionDate: time.Now().UTC(),
		Description:     "Interest Payout",
		RunningBalance:  newBalance,
	}
	if err := insertTransaction(tx, record); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE interest_accruals SET paid_out = TRUE
		WHERE account_id = $1 AND paid_out = FALSE`, accountID); err != nil {
		return fmt.Errorf("mark accruals paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payout: %w", err)
	}
	log.Printf("[INTEREST] paid %s to account %s", payout.StringFixed(balanceScale), account.AccountNumber)
	return nil
}

// SaveRate inserts or updates the annual rate for one (account type, level)
// pair.
func (s *InterestService) SaveRate(ctx context.Context, rate models.InterestRate) (*models.InterestRate, error) {
	if rate.ID.AccountType == "" || rate.ID.AccountLevel == "" {
		return nil, fmt.Errorf("%w: account type and level are required", models.ErrInvalidAmount)
	}
	if rate.AnnualRate.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate cannot be negative", models.ErrInvalidAmount)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interest_rates (account_type, account_level, annual_rate, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_type, account_level)
		DO UPDATE SET annual_rate = EXCLUDED.annual_rate, description = EXCLUDED.description`,
		rate.ID.AccountType, rate.ID.AccountLevel, rate.AnnualRate, rate.Description)
	if err != nil {
		return nil, fmt.Errorf("save interest rate: %w", err)
	}
	return &rate, nil
}

// ListRates returns every configured rate.
func (s *InterestService) ListRates(ctx context.Context) ([]models.InterestRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_type, account_level, annual_rate, COALESCE(description, '')
		FROM interest_rates ORDER BY account_type, account_level`)
	if err != nil {
		return nil, fmt.Errorf("list interest rates: %w", err)
	}
	defer rows.Close()

	var rates []models.InterestRate
	for rows.Next() {
		var r models.InterestRate
		if err := rows.Scan(&r.ID.AccountType, &r.ID.AccountLevel, &r.AnnualRate, &r.Description); err != nil {
			return nil, fmt.Errorf("scan interest rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func (s *InterestService) rateMap(ctx context.Context) (map[models.InterestRateID]decimal.Decimal, error) {
	rates, err := s.ListRates(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[models.InterestRateID]decimal.Decimal, len(rates))
	for _, r := range rates {
		m[r.ID] = r.AnnualRate
	}
	return m, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
