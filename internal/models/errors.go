package models

import "errors"

// Caller-facing failure taxonomy. Each of these means the operation was
// rejected cleanly: no balance was touched and no transaction row written.
// Anything not in this list is an infrastructure error and aborts the
// surrounding database transaction.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrBillerNotFound      = errors.New("biller not found")
	ErrScheduleNotFound    = errors.New("scheduled payment not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrNotAuthorized    = errors.New("caller does not own this resource")
	ErrAccountNotActive = errors.New("account is not active")
	ErrBillerNotActive  = errors.New("biller is not active")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")

	ErrAmbiguousDestination = errors.New("destination must be a recipient account or a biller, not both")
	ErrMissingDestination   = errors.New("a destination account or biller is required")
	ErrMissingBillerRef     = errors.New("a biller reference number is required for bill payments")

	ErrScheduleNotActive = errors.New("only active schedules can be paused")
	ErrScheduleNotPaused = errors.New("only paused schedules can be resumed")
	ErrScheduleTerminal  = errors.New("schedule has already completed or failed")

	ErrGiftAlreadyClaimed = errors.New("welcome gift already claimed")
)

// IsDomainError reports whether err belongs to the caller-facing taxonomy, as
// opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrAccountNotFound, ErrUserNotFound, ErrBillerNotFound, ErrScheduleNotFound,
		ErrTransactionNotFound, ErrNotAuthorized, ErrAccountNotActive, ErrBillerNotActive,
		ErrInsufficientFunds, ErrInvalidAmount, ErrSelfTransfer,
		ErrAmbiguousDestination, ErrMissingDestination, ErrMissingBillerRef,
		ErrScheduleNotActive, ErrScheduleNotPaused, ErrScheduleTerminal, ErrGiftAlreadyClaimed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
