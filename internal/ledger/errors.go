package ledger

import "errors"

// Core errors are returned to the handler layer untranslated; the ledger
// never logs, retries or suppresses on its own.
var (
	// ErrInvalidTransition: the requested status change is not defined by
	// the state machine (e.g. completing a cancelled payment).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyCompleted: completing a payment that is already completed.
	ErrAlreadyCompleted = errors.New("payment already completed")

	// ErrImmutableField: mutating a field locked by a terminal state.
	ErrImmutableField = errors.New("field is immutable once payment is completed")

	// ErrCapacityExceeded: the unit counter change would leave
	// available_units outside 0..total_units.
	ErrCapacityExceeded = errors.New("property unit capacity exceeded")

	// ErrConcurrencyConflict: the row changed between read and write.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrInvariantViolation: stored data fails an entity invariant.
	// Surfaced as a fatal integrity error, never silently corrected.
	ErrInvariantViolation = errors.New("entity invariant violated")

	// ErrOutstandingBalance: deletion blocked while the tenant still owes.
	ErrOutstandingBalance = errors.New("tenant has an outstanding balance")
)
