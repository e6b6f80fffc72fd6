package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/NITsush45/enter-bank/internal/models"
)

// ScheduleStore is the slice of the schedule service the runner needs.
type ScheduleStore interface {
	FindDuePayments(ctx context.Context) ([]models.ScheduledPayment, error)
	Reschedule(ctx context.Context, payment *models.ScheduledPayment) error
	MarkFailed(ctx context.Context, payment *models.ScheduledPayment, reason string) error
}

// LedgerExecutor is the slice of the ledger the runner needs.
type LedgerExecutor interface {
	SystemTransfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal, memo string) (*models.Transaction, error)
	SystemBillPayment(ctx context.Context, fromAccountID, billerID int64, billerReference string, amount decimal.Decimal) (*models.Transaction, error)
}

// PaymentRunner executes due scheduled payments through the ledger. Each
// payment is processed independently: a failure marks that schedule FAILED
// and the run continues with the rest.
type PaymentRunner struct {
	schedules ScheduleStore
	ledger    LedgerExecutor
	notifier  Notifier
}

func NewPaymentRunner(schedules ScheduleStore, ledger LedgerExecutor, notifier Notifier) *PaymentRunner {
	return &PaymentRunner{schedules: schedules, ledger: ledger, notifier: notifier}
}

// ExecuteDuePayments is the batch entry point invoked by the scheduler.
func (r *PaymentRunner) ExecuteDuePayments(ctx context.Context) {
	due, err := r.schedules.FindDuePayments(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] failed to load due payments: %v", err)
		return
	}
	if len(due) == 0 {
		log.Println("[SCHEDULER] no due payments to process")
		return
	}
	log.Printf("[SCHEDULER] found %d due payment(s) to process", len(due))

	var succeeded, failed int
	for i := range due {
		payment := &due[i]
		if err := r.executeOne(ctx, payment); err != nil {
			failed++
			log.Printf("[SCHEDULER] payment %d failed: %v", payment.ID, err)
			if markErr := r.schedules.MarkFailed(ctx, payment, err.Error()); markErr != nil {
				log.Printf("[SCHEDULER] could not mark payment %d failed: %v", payment.ID, markErr)
			}
			r.notifier.Dispatch(ctx, Notification{
				Event:      "schedule.failed",
				ScheduleID: payment.ID,
				Amount:     payment.Amount.StringFixed(4),
				Reason:     err.Error(),
			})
			continue
		}

		if err := r.schedules.Reschedule(ctx, payment); err != nil {
			// The money moved; a reschedule failure must not flip the
			// schedule to FAILED or the payment would repeat.
			log.Printf("[SCHEDULER] executed payment %d but reschedule failed: %v", payment.ID, err)
			continue
		}
		succeeded++
	}
	log.Printf("[SCHEDULER] run finished: %d succeeded, %d failed", succeeded, failed)
}

func (r *PaymentRunner) executeOne(ctx context.Context, payment *models.ScheduledPayment) error {
	switch {
	case payment.IsBillPayment():
		_, err := r.ledger.SystemBillPayment(ctx, payment.FromAccountID, *payment.BillerID,
			payment.BillerReference, payment.Amount)
		return err
	case payment.ToAccountID != nil:
		memo := fmt.Sprintf("Recurring transfer (schedule %d)", payment.ID)
		_, err := r.ledger.SystemTransfer(ctx, payment.FromAccountID, *payment.ToAccountID,
			payment.Amount, memo)
		return err
	default:
		return models.ErrMissingDestination
	}
}
