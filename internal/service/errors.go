package service

import "errors"

// Business failure taxonomy. All of these are recoverable validation errors
// surfaced to the caller; anything else bubbling out of a service is an
// infrastructure failure.
var (
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrMissingCancellationReason = errors.New("cancellation reason is required")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrInvalidOrderState         = errors.New("order is not editable in its current status")
	ErrMissingActor              = errors.New("no resolved actor for audited write")
	ErrUnknownEntity             = errors.New("entity not found")
	ErrInvalidPaymentInput       = errors.New("invalid payment input")
	ErrInvalidQuantity           = errors.New("quantity must be > 0")
	ErrInvalidMovementType       = errors.New("unknown movement type")
	ErrInvalidVerification       = errors.New("unknown verification status")
	ErrConcurrentModification    = errors.New("concurrent modification, please retry")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUser      = errors.New("username or email already exists")
)

// IsBusinessError reports whether err belongs to the validation taxonomy, as
// opposed to an unexpected storage failure.
func IsBusinessError(err error) bool {
	for _, e := range []error{
		ErrInvalidTransition,
		ErrMissingCancellationReason,
		ErrInsufficientStock,
		ErrInvalidOrderState,
		ErrMissingActor,
		ErrUnknownEntity,
		ErrInvalidPaymentInput,
		ErrInvalidQuantity,
		ErrInvalidMovementType,
		ErrInvalidVerification,
		ErrConcurrentModification,
		ErrInvalidCredentials,
		ErrDuplicateUser,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
