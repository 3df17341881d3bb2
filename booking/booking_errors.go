package booking

import "errors"

var ErrBookingNotFound = errors.New("booking not found")

var ErrInvalidBookingState = errors.New("invalid booking state")

var ErrNotAllowed = errors.New("not allowed to perform this operation")

var ErrDatesUnavailable = errors.New("dates unavailable")

var ErrAlreadyCancelled = errors.New("booking is already cancelled")

var ErrInvalidDateRange = errors.New("end date must be after start date")

var ErrInvalidGuestCount = errors.New("guest count must be positive")

var ErrPropertyNotFound = errors.New("property not found")

var ErrCapacityExceeded = errors.New("guest count exceeds property capacity")

var ErrOutsideAvailability = errors.New("dates are outside the property availability window")
