package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/NITsush45/enter-bank/internal/models"
)

func TestInterestService_AccrueDailyInterest(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInterestService(db)

	rateRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"account_type", "account_level", "annual_rate", "description"}).
			AddRow("SAVING", "STANDARD", "0.05000", "standard saving")
	}

	t.Run("accrues once per account per day", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM interest_rates ORDER BY account_type, account_level`).
			WillReturnRows(rateRows())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`WHERE a.account_type IN \('SAVING', 'CURRENT'\) AND a.balance > 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "account_type", "account_level"}).
				AddRow(1, "1000.0000", "SAVING", "STANDARD").
				AddRow(2, "500.0000", "SAVING", "STANDARD"))

		// Account 1 already accrued today, account 2 has not.
		dbMock.ExpectQuery(`SELECT COUNT\(\*\) FROM interest_accruals WHERE account_id = \$1 AND accrual_date = \$2`).
			WithArgs(int64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		dbMock.ExpectQuery(`SELECT COUNT\(\*\) FROM interest_accruals WHERE account_id = \$1 AND accrual_date = \$2`).
			WithArgs(int64(2), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		dbMock.ExpectExec(`INSERT INTO interest_accruals`).
			WithArgs(int64(2), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		dbMock.ExpectCommit()

		err := service.AccrueDailyInterest(context.Background())
		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("account without a configured rate is skipped", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM interest_rates ORDER BY account_type, account_level`).
			WillReturnRows(rateRows())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`WHERE a.account_type IN \('SAVING', 'CURRENT'\) AND a.balance > 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "account_type", "account_level"}).
				AddRow(3, "1000.0000", "CURRENT", "GOLD"))
		dbMock.ExpectQuery(`SELECT COUNT\(\*\) FROM interest_accruals`).
			WithArgs(int64(3), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		// No INSERT expected.
		dbMock.ExpectCommit()

		err := service.AccrueDailyInterest(context.Background())
		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls the whole run back", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM interest_rates ORDER BY account_type, account_level`).
			WillReturnRows(rateRows())

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`WHERE a.account_type IN \('SAVING', 'CURRENT'\) AND a.balance > 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "account_type", "account_level"}).
				AddRow(2, "500.0000", "SAVING", "STANDARD"))
		dbMock.ExpectQuery(`SELECT COUNT\(\*\) FROM interest_accruals`).
			WithArgs(int64(2), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		dbMock.ExpectExec(`INSERT INTO interest_accruals`).
			WillReturnError(errors.New("disk full"))
		dbMock.ExpectRollback()

		err := service.AccrueDailyInterest(context.Background())
		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestInterestService_PayoutInterest(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInterestService(db)

	t.Run("payout truncates the summed accruals to balance precision", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT DISTINCT account_id FROM interest_accruals WHERE paid_out = FALSE`).
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(2))

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "balance", "account_type", "owner_id"}).
				AddRow(2, "2000100001", "100.0000", "SAVING", 10))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(interest_amount\), 0\) FROM interest_accruals`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("3.000000000003"))
		// 3.000000000003 truncates to 3.0000, never rounds up.
		dbMock.ExpectExec(`UPDATE accounts SET balance`).
			WithArgs(decimal.RequireFromString("103.0000"), sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery(`INSERT INTO transactions`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(120))
		dbMock.ExpectExec(`UPDATE interest_accruals SET paid_out = TRUE`).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		dbMock.ExpectCommit()

		err := service.PayoutInterest(context.Background())
		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("sub-cent totals stay accrued for the next cycle", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT DISTINCT account_id FROM interest_accruals WHERE paid_out = FALSE`).
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(2))

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "balance", "account_type", "owner_id"}).
				AddRow(2, "2000100001", "100.0000", "SAVING", 10))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(interest_amount\), 0\) FROM interest_accruals`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("0.00009999"))
		// Truncated payout is zero: no balance change, no transaction, flags
		// stay unpaid.
		dbMock.ExpectCommit()

		err := service.PayoutInterest(context.Background())
		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("one failing account does not stop the sweep", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT DISTINCT account_id FROM interest_accruals WHERE paid_out = FALSE`).
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(2).AddRow(5))

		// Account 2 fails at the lock.
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).
			WithArgs(int64(2)).
			WillReturnError(errors.New("connection reset"))
		dbMock.ExpectRollback()

		// Account 5 still settles.
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_number", "balance", "account_type", "owner_id"}).
				AddRow(5, "2000100009", "40.0000", "SAVING", 20))
		dbMock.ExpectQuery(`SELECT COALESCE\(SUM\(interest_amount\), 0\) FROM interest_accruals`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("1.50000000000000"))
		dbMock.ExpectExec(`UPDATE accounts SET balance`).
			WithArgs(decimal.RequireFromString("41.5000"), sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery(`INSERT INTO transactions`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(121))
		dbMock.ExpectExec(`UPDATE interest_accruals SET paid_out = TRUE`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := service.PayoutInterest(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 accounts failed")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestInterestService_SaveRate(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInterestService(db)

	t.Run("upserts the rate", func(t *testing.T) {
		dbMock.ExpectExec(`INSERT INTO interest_rates`).
			WithArgs("SAVING", "GOLD", sqlmock.AnyArg(), "gold saving").
			WillReturnResult(sqlmock.NewResult(1, 1))

		saved, err := service.SaveRate(context.Background(), models.InterestRate{
			ID: models.InterestRateID{
				AccountType:  models.AccountTypeSaving,
				AccountLevel: models.AccountLevelGold,
			},
			AnnualRate:  decimal.RequireFromString("0.065"),
			Description: "gold saving",
		})
		assert.NoError(t, err)
		assert.True(t, saved.AnnualRate.Equal(decimal.RequireFromString("0.065")))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		_, err := service.SaveRate(context.Background(), models.InterestRate{
			ID: models.InterestRateID{
				AccountType:  models.AccountTypeSaving,
				AccountLevel: models.AccountLevelGold,
			},
			AnnualRate: decimal.RequireFromString("-0.01"),
		})
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})
}

func TestDailyInterestFormula(t *testing.T) {
	// 10,000.00 at 5% over a 365-day year: 10000 * 0.05 / 365.
	balance := decimal.RequireFromString("10000.00")
	rate := decimal.RequireFromString("0.05")
	days := decimal.NewFromInt(365)

	quotient := balance.Mul(rate).DivRound(days, divisionScale)
	assert.Equal(t, "1.36986301369863013699", quotient.StringFixed(divisionScale))

	daily := quotient.Round(accrualPrecision)
	assert.Equal(t, "1.369863013699", daily.StringFixed(accrualPrecision))
}
