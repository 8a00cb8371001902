package booking

import (
	"errors"
	"fmt"
)

// Failure taxonomy of the booking core. Every error below is terminal for
// the current request; none leaves partial state behind.
var (
	// ErrInvalidRequest: malformed input (no seats, duplicate seats, or a
	// concession selection that is not on the cinema's menu). The client
	// must fix and resend.
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrShowingNotFound: the referenced showing does not exist.
	ErrShowingNotFound = errors.New("showing not found")

	// ErrBillNotFound: LoadBooking was asked for a bill that does not exist.
	ErrBillNotFound = errors.New("bill not found")

	// ErrTicketNotFound: check-in was asked for a ticket that does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
)

// SeatUnavailableError reports which seat lost the race. The caller may
// retry with a different seat; the engine never retries on its own.
type SeatUnavailableError struct {
	SeatID int64
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %d is unavailable for this showing", e.SeatID)
}
