package domain

import "errors"

var (
	ErrInvalidDateRange      = errors.New("check-out must be after check-in")
	ErrCheckInInPast         = errors.New("check-in date is in the past")
	ErrInvalidPriceInput     = errors.New("invalid price input")
	ErrInvalidInput          = errors.New("invalid input")
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomUnavailable       = errors.New("room is not available for these dates")
	ErrCapacityExceeded      = errors.New("guest count exceeds room capacity")
	ErrRoomHasActiveBookings = errors.New("room has active bookings")
	ErrDuplicateRoomNumber   = errors.New("room number already exists")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrForbidden             = errors.New("not allowed to access this booking")
	ErrUnauthorized          = errors.New("authentication required")
	ErrTooLateToCancel       = errors.New("booking can no longer be canceled after check-in")
	ErrInvalidStatus         = errors.New("invalid booking status")
	ErrInvalidTransition     = errors.New("booking status transition not allowed")
)
