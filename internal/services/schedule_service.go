package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/models"
)

// ScheduleService owns the recurring payment instruction lifecycle:
// ACTIVE <-> PAUSED, ACTIVE -> COMPLETED (rescheduled past the end date),
// ACTIVE -> FAILED (execution error). COMPLETED and FAILED are terminal.
// Execution itself belongs to the batch runner; this service only stores and
// transitions instructions.
type ScheduleService struct {
	db      *sql.DB
	users   UserDirectory
	billers BillerDirectory
}

func NewScheduleService(db *sql.DB, users UserDirectory, billers BillerDirectory) *ScheduleService {
	return &ScheduleService{db: db, users: users, billers: billers}
}

type ScheduleRequest struct {
	FromAccountNumber string                  `json:"from_account_number" validate:"required,max=30"`
	ToAccountNumber   string                  `json:"to_account_number,omitempty" validate:"max=30"`
	BillerID          *int64                  `json:"biller_id,omitempty"`
	BillerReference   string                  `json:"biller_reference,omitempty" validate:"max=100"`
	Amount            decimal.Decimal         `json:"amount" validate:"required"`
	Frequency         models.PaymentFrequency `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
	StartDate         time.Time               `json:"start_date" validate:"required"`
	EndDate           *time.Time              `json:"end_date,omitempty"`
	UserMemo          string                  `json:"user_memo,omitempty" validate:"max=255"`
}

const scheduleColumns = `id, user_id, from_account_id, to_account_id, biller_id, COALESCE(biller_reference, ''),
	amount, frequency, start_date, next_execution_date, end_date, status, COALESCE(user_memo, '')`

// Schedule validates and persists a new recurring payment instruction with
// status ACTIVE and the first execution on the requested start date. The
// destination must be exactly one of a recipient account or a biller.
func (s *ScheduleService) Schedule(ctx context.Context, username string, req ScheduleRequest) (*models.ScheduledPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	isUserTransfer := strings.TrimSpace(req.ToAccountNumber) != ""
	isBillPayment := req.BillerID != nil
	if isUserTransfer && isBillPayment {
		return nil, models.ErrAmbiguousDestination
	}
	if !isUserTransfer && !isBillPayment {
		return nil, models.ErrMissingDestination
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var fromAccountID int64
	var ownerID sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, owner_id FROM accounts WHERE account_number = $1`,
		req.FromAccountNumber).Scan(&fromAccountID, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve source account: %w", err)
	}
	if !ownerID.Valid || ownerID.Int64 != user.ID {
		return nil, models.ErrNotAuthorized
	}

	payment := models.ScheduledPayment{
		UserID:            user.ID,
		FromAccountID:     fromAccountID,
		Amount:            req.Amount,
		Frequency:         req.Frequency,
		StartDate:         dateOnly(req.StartDate),
		NextExecutionDate: dateOnly(req.StartDate),
		Status:            models.ScheduleStatusActive,
		UserMemo:          req.UserMemo,
	}
	if req.EndDate != nil {
		end := dateOnly(*req.EndDate)
		payment.EndDate = &end
	}

	if isBillPayment {
		biller, err := s.billers.FindByID(ctx, *req.BillerID)
		if err != nil {
			return nil, err
		}
		if biller.Status != models.BillerStatusActive {
			return nil, models.ErrBillerNotActive
		}
		if strings.TrimSpace(req.BillerReference) == "" {
			return nil, models.ErrMissingBillerRef
		}
		payment.BillerID = &biller.ID
		payment.BillerReference = req.BillerReference
	} else {
		var toAccountID int64
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM accounts WHERE account_number = $1`,
			req.ToAccountNumber).Scan(&toAccountID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("resolve destination account: %w", err)
		}
		payment.ToAccountID = &toAccountID
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO scheduled_payments (user_id, from_account_id, to_account_id, biller_id, biller_reference,
			amount, frequency, start_date, next_execution_date, end_date, status, user_memo)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		payment.UserID, payment.FromAccountID, payment.ToAccountID, payment.BillerID, payment.BillerReference,
		payment.Amount, payment.Frequency, payment.StartDate, payment.NextExecutionDate,
		payment.EndDate, payment.Status, payment.UserMemo).Scan(&payment.ID)
	if err != nil {
		return nil, fmt.Errorf("insert scheduled payment: %w", err)
	}

	log.Printf("[SCHEDULE] new %s schedule %d for %s starting %s",
		payment.Frequency, payment.ID, username, payment.StartDate.Format("2006-01-02"))
	return &payment, nil
}

// ListForUser returns the user's ACTIVE and PAUSED schedules ordered by next
// execution date. Terminal schedules are not listed.
func (s *ScheduleService) ListForUser(ctx context.Context, username string) ([]models.ScheduledPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scheduleColumns+` FROM scheduled_payments
		WHERE user_id = (SELECT id FROM users WHERE username = $1)
		AND status IN ('ACTIVE', 'PAUSED')
		ORDER BY next_execution_date`, username)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// Pause transitions an ACTIVE schedule to PAUSED.
func (s *ScheduleService) Pause(ctx context.Context, username string, scheduleID int64) error {
	payment, err := s.findUserSchedule(ctx, username, scheduleID)
	if err != nil {
		return err
	}
	if payment.Status != models.ScheduleStatusActive {
		return models.ErrScheduleNotActive
	}
	return s.setStatus(ctx, scheduleID, models.ScheduleStatusPaused)
}

// Resume transitions a PAUSED schedule back to ACTIVE.
func (s *ScheduleService) Resume(ctx context.Context, username string, scheduleID int64) error {
	payment, err := s.findUserSchedule(ctx, username, scheduleID)
	if err != nil {
		return err
	}
	if payment.Status != models.ScheduleStatusPaused {
		return models.ErrScheduleNotPaused
	}
	return s.setStatus(ctx, scheduleID, models.ScheduleStatusActive)
}

// Cancel hard-deletes a schedule. Terminal schedules cannot be cancelled.
func (s *ScheduleService) Cancel(ctx context.Context, username string, scheduleID int64) error {
	payment, err := s.findUserSchedule(ctx, username, scheduleID)
	if err != nil {
		return err
	}
	if payment.Status == models.ScheduleStatusCompleted || payment.Status == models.ScheduleStatusFailed {
		return models.ErrScheduleTerminal
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduled_payments WHERE id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	log.Printf("[SCHEDULE] schedule %d cancelled by %s", scheduleID, username)
	return nil
}

// FindDuePayments returns every ACTIVE schedule whose next execution date is
// today or earlier: the batch runner's work queue.
func (s *ScheduleService) FindDuePayments(ctx context.Context) ([]models.ScheduledPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scheduleColumns+` FROM scheduled_payments
		WHERE status = 'ACTIVE' AND next_execution_date <= $1
		ORDER BY id`, dateOnly(time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("find due payments: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// Reschedule advances the schedule by one frequency unit after a successful
// execution. If the new date would pass the end date the schedule completes
// instead; the execution date is never advanced on failure.
func (s *ScheduleService) Reschedule(ctx context.Context, payment *models.ScheduledPayment) error {
	next := nextExecutionDate(payment.NextExecutionDate, payment.Frequency)

	if payment.EndDate != nil && next.After(*payment.EndDate) {
		payment.Status = models.ScheduleStatusCompleted
		if _, err := s.db.ExecContext(ctx,
			`UPDATE scheduled_payments SET status = $1 WHERE id = $2`,
			payment.Status, payment.ID); err != nil {
			return fmt.Errorf("complete schedule: %w", err)
		}
		log.Printf("[SCHEDULE] schedule %d completed (end date reached)", payment.ID)
		return nil
	}

	payment.NextExecutionDate = next
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_payments SET next_execution_date = $1 WHERE id = $2`,
		next, payment.ID); err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}
	return nil
}

// MarkFailed transitions the schedule to FAILED and records the reason in the
// memo. A failed schedule is never retried automatically.
func (s *ScheduleService) MarkFailed(ctx context.Context, payment *models.ScheduledPayment, reason string) error {
	payment.Status = models.ScheduleStatusFailed
	payment.UserMemo = fmt.Sprintf("Last attempt on %s failed: %s",
		time.Now().UTC().Format("2006-01-02"), reason)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_payments SET status = $1, user_memo = $2 WHERE id = $3`,
		payment.Status, payment.UserMemo, payment.ID); err != nil {
		return fmt.Errorf("mark schedule failed: %w", err)
	}
	return nil
}

func (s *ScheduleService) findUserSchedule(ctx context.Context, username string, scheduleID int64) (*models.ScheduledPayment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scheduleColumns+` FROM scheduled_payments
		WHERE id = $1 AND user_id = (SELECT id FROM users WHERE username = $2)`,
		scheduleID, username)

	payment, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule %d: %w", scheduleID, err)
	}
	return payment, nil
}

func (s *ScheduleService) setStatus(ctx context.Context, scheduleID int64, status models.ScheduledPaymentStatus) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_payments SET status = $1 WHERE id = $2`, status, scheduleID); err != nil {
		return fmt.Errorf("set schedule status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*models.ScheduledPayment, error) {
	var p models.ScheduledPayment
	err := row.Scan(&p.ID, &p.UserID, &p.FromAccountID, &p.ToAccountID, &p.BillerID, &p.BillerReference,
		&p.Amount, &p.Frequency, &p.StartDate, &p.NextExecutionDate, &p.EndDate, &p.Status, &p.UserMemo)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanSchedules(rows *sql.Rows) ([]models.ScheduledPayment, error) {
	var payments []models.ScheduledPayment
	for rows.Next() {
		p, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// nextExecutionDate adds one frequency unit. Month-relative frequencies clamp
// to the last day of the target month, so a schedule on Jan 31 runs next on
// Feb 29 in a leap year rather than skipping into March.
func nextExecutionDate(current time.Time, frequency models.PaymentFrequency) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return addMonthsClamped(current, 1)
	case models.FrequencyQuarterly:
		return addMonthsClamped(current, 3)
	case models.FrequencyYearly:
		return addMonthsClamped(current, 12)
	default:
		// Unknown frequencies are rejected at scheduling time; treat as daily
		// so a bad row cannot run twice on the same date.
		return current.AddDate(0, 0, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}
