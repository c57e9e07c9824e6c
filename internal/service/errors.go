package service

import "errors"

// Sentinel errors returned by the services.  Handlers translate them into
// flash messages and status codes; none of them is fatal.
var (
	// ErrValidation marks a missing or malformed input field.  Concrete
	// errors are *ValidationError values whose message is safe to show.
	ErrValidation = errors.New("validation failed")
	// ErrTurfNotFound is returned for an unknown turf id.
	ErrTurfNotFound = errors.New("turf not found")
	// ErrBookingNotFound is returned for an unknown booking id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrForbidden is returned when the acting user does not own the
	// booking or lacks the administrator flag.
	ErrForbidden = errors.New("forbidden")
	// ErrSlotTaken is returned when a Confirmed booking already holds the
	// slot at commit time.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrQuoteChanged is returned when the amount the user confirmed no
	// longer matches the price derived at commit time.
	ErrQuoteChanged = errors.New("quote changed")
	// ErrAlreadyCancelled is returned when cancelling a booking twice.
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	// ErrUsernameTaken is returned by Register for a duplicate handle.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrInvalidCredentials is returned by Login for an unknown user or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a session token does not resolve
	// to an active session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError carries a user-facing reason.  errors.Is(err,
// ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(reason string) error { return &ValidationError{Reason: reason} }
