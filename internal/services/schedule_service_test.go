package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/NITsush45/enter-bank/internal/models"
)

func scheduleRow(id int64, status models.ScheduledPaymentStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "from_account_id", "to_account_id", "biller_id",
		"biller_reference", "amount", "frequency", "start_date", "next_execution_date", "end_date",
		"status", "user_memo"}).
		AddRow(id, 10, 2, 5, nil, "", "25.0000", "MONTHLY",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			nil, string(status), "")
}

func TestScheduleService_Schedule(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	users := &MockUserDirectory{}
	billers := &MockBillerDirectory{}
	service := NewScheduleService(db, users, billers)

	start := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	t.Run("transfer schedule starts active on the start date", func(t *testing.T) {
		users.On("FindByUsername", mock.Anything, "amara").Return(activeUser(10, "amara"), nil).Once()

		dbMock.ExpectQuery(`SELECT id, owner_id FROM accounts WHERE account_number = \$1`).
			WithArgs("2000100001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(2, 10))
		dbMock.ExpectQuery(`SELECT id FROM accounts WHERE account_number = \$1`).
			WithArgs("2000100005").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		dbMock.ExpectQuery(`INSERT INTO scheduled_payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))

		payment, err := service.Schedule(context.Background(), "amara", ScheduleRequest{
			FromAccountNumber: "2000100001",
			ToAccountNumber:   "2000100005",
			Amount:            decimal.RequireFromString("25.00"),
			Frequency:         models.FrequencyMonthly,
			StartDate:         start,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(31), payment.ID)
		assert.Equal(t, models.ScheduleStatusActive, payment.Status)
		assert.Equal(t, start, payment.NextExecutionDate)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("both destinations set is ambiguous", func(t *testing.T) {
		billerID := int64(7)
		_, err := service.Schedule(context.Background(), "amara", ScheduleRequest{
			FromAccountNumber: "2000100001",
			ToAccountNumber:   "2000100005",
			BillerID:          &billerID,
			Amount:            decimal.RequireFromString("25.00"),
			Frequency:         models.FrequencyMonthly,
			StartDate:         start,
		})
		assert.ErrorIs(t, err, models.ErrAmbiguousDestination)
	})

	t.Run("no destination set is rejected", func(t *testing.T) {
		_, err := service.Schedule(context.Background(), "amara", ScheduleRequest{
			FromAccountNumber: "2000100001",
			Amount:            decimal.RequireFromString("25.00"),
			Frequency:         models.FrequencyMonthly,
			StartDate:         start,
		})
		assert.ErrorIs(t, err, models.ErrMissingDestination)
	})

	t.Run("bill payment schedule requires a biller reference", func(t *testing.T) {
		users.On("FindByUsername", mock.Anything, "amara").Return(activeUser(10, "amara"), nil).Once()
		billers.On("FindByID", mock.Anything, int64(7)).Return(&models.Biller{
			ID:                7,
			BillerName:        "City Power",
			Status:            models.BillerStatusActive,
			InternalAccountID: 3,
		}, nil).Once()

		dbMock.ExpectQuery(`SELECT id, owner_id FROM accounts WHERE account_number = \$1`).
			WithArgs("2000100001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(2, 10))

		billerID := int64(7)
		_, err := service.Schedule(context.Background(), "amara", ScheduleRequest{
			FromAccountNumber: "2000100001",
			BillerID:          &billerID,
			Amount:            decimal.RequireFromString("25.00"),
			Frequency:         models.FrequencyMonthly,
			StartDate:         start,
		})
		assert.ErrorIs(t, err, models.ErrMissingBillerRef)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("source account must belong to the caller", func(t *testing.T) {
		users.On("FindByUsername", mock.Anything, "amara").Return(activeUser(10, "amara"), nil).Once()

		dbMock.ExpectQuery(`SELECT id, owner_id FROM accounts WHERE account_number = \$1`).
			WithArgs("2000100001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(2, 99))

		_, err := service.Schedule(context.Background(), "amara", ScheduleRequest{
			FromAccountNumber: "2000100001",
			ToAccountNumber:   "2000100005",
			Amount:            decimal.RequireFromString("25.00"),
			Frequency:         models.FrequencyMonthly,
			StartDate:         start,
		})
		assert.ErrorIs(t, err, models.ErrNotAuthorized)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	users.AssertExpectations(t)
	billers.AssertExpectations(t)
}

func TestScheduleService_Lifecycle(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	users := &MockUserDirectory{}
	billers := &MockBillerDirectory{}
	service := NewScheduleService(db, users, billers)

	t.Run("pause an active schedule", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(31), "amara").
			WillReturnRows(scheduleRow(31, models.ScheduleStatusActive))
		dbMock.ExpectExec(`UPDATE scheduled_payments SET status = \$1 WHERE id = \$2`).
			WithArgs("PAUSED", int64(31)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.Pause(context.Background(), "amara", 31))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("pausing a paused schedule conflicts", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(31), "amara").
			WillReturnRows(scheduleRow(31, models.ScheduleStatusPaused))

		err := service.Pause(context.Background(), "amara", 31)
		assert.ErrorIs(t, err, models.ErrScheduleNotActive)
	})

	t.Run("resume only applies to paused schedules", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(31), "amara").
			WillReturnRows(scheduleRow(31, models.ScheduleStatusActive))

		err := service.Resume(context.Background(), "amara", 31)
		assert.ErrorIs(t, err, models.ErrScheduleNotPaused)
	})

	t.Run("cancel deletes a non-terminal schedule", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(31), "amara").
			WillReturnRows(scheduleRow(31, models.ScheduleStatusPaused))
		dbMock.ExpectExec(`DELETE FROM scheduled_payments WHERE id = \$1`).
			WithArgs(int64(31)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.Cancel(context.Background(), "amara", 31))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("terminal schedules cannot be cancelled", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(31), "amara").
			WillReturnRows(scheduleRow(31, models.ScheduleStatusFailed))

		err := service.Cancel(context.Background(), "amara", 31)
		assert.ErrorIs(t, err, models.ErrScheduleTerminal)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM scheduled_payments\s+WHERE id = \$1`).
			WithArgs(int64(404), "amara").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := service.Pause(context.Background(), "amara", 404)
		assert.ErrorIs(t, err, models.ErrScheduleNotFound)
	})
}

func TestScheduleService_Reschedule(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	users := &MockUserDirectory{}
	billers := &MockBillerDirectory{}
	service := NewScheduleService(db, users, billers)

	t.Run("advances one frequency unit", func(t *testing.T) {
		payment := &models.ScheduledPayment{
			ID:                31,
			Frequency:         models.FrequencyMonthly,
			NextExecutionDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
			Status:            models.ScheduleStatusActive,
		}

		dbMock.ExpectExec(`UPDATE scheduled_payments SET next_execution_date = \$1 WHERE id = \$2`).
			WithArgs(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), int64(31)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.Reschedule(context.Background(), payment))
		assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), payment.NextExecutionDate)
	})

	t.Run("completes when the next date passes the end date", func(t *testing.T) {
		endDate := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
		payment := &models.ScheduledPayment{
			ID:                31,
			Frequency:         models.FrequencyMonthly,
			NextExecutionDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
			EndDate:           &endDate,
			Status:            models.ScheduleStatusActive,
		}

		dbMock.ExpectExec(`UPDATE scheduled_payments SET status = \$1 WHERE id = \$2`).
			WithArgs("COMPLETED", int64(31)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, service.Reschedule(context.Background(), payment))
		assert.Equal(t, models.ScheduleStatusCompleted, payment.Status)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestNextExecutionDate(t *testing.T) {
	utc := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("daily and weekly are plain day arithmetic", func(t *testing.T) {
		assert.Equal(t, utc(2026, 3, 1), nextExecutionDate(utc(2026, 2, 28), models.FrequencyDaily))
		assert.Equal(t, utc(2026, 1, 5), nextExecutionDate(utc(2025, 12, 29), models.FrequencyWeekly))
	})

	t.Run("monthly clamps to the last day of a short month", func(t *testing.T) {
		// Jan 31 + 1 month lands on the leap-year Feb 29, not Mar 2/3.
		assert.Equal(t, utc(2024, 2, 29), nextExecutionDate(utc(2024, 1, 31), models.FrequencyMonthly))
		assert.Equal(t, utc(2026, 2, 28), nextExecutionDate(utc(2026, 1, 31), models.FrequencyMonthly))
		assert.Equal(t, utc(2026, 4, 30), nextExecutionDate(utc(2026, 3, 31), models.FrequencyMonthly))
	})

	t.Run("clamped day does not stick for longer months", func(t *testing.T) {
		// A mid-month day passes through unchanged.
		assert.Equal(t, utc(2026, 5, 15), nextExecutionDate(utc(2026, 4, 15), models.FrequencyMonthly))
	})

	t.Run("quarterly and yearly use the same clamping", func(t *testing.T) {
		assert.Equal(t, utc(2026, 11, 30), nextExecutionDate(utc(2026, 8, 31), models.FrequencyQuarterly))
		assert.Equal(t, utc(2025, 2, 28), nextExecutionDate(utc(2024, 2, 29), models.FrequencyYearly))
	})
}
