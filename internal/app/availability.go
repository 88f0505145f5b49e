package app

import (
	"context"
	"time"

	"hotel_booking/internal/domain"
)

// AvailabilityReader is the slice of the store the checker needs.
type AvailabilityReader interface {
	GetRoom(ctx context.Context, id int64) (domain.Room, error)
	FindConflicting(ctx context.Context, roomID int64, r domain.DateRange, statuses []domain.BookingStatus, turnover bool) ([]domain.Booking, error)
}

type AvailabilityChecker struct {
	repo     AvailabilityReader
	turnover bool
}

func NewAvailabilityChecker(r AvailabilityReader, turnover bool) *AvailabilityChecker {
	return &AvailabilityChecker{repo: r, turnover: turnover}
}

// IsAvailable reports whether no pending or confirmed booking on the room overlaps
// [checkIn, checkOut]. It never mutates anything.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	dr := domain.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return false, err
	}
	if _, err := c.repo.GetRoom(ctx, roomID); err != nil {
		return false, err
	}
	conflicts, err := c.repo.FindConflicting(ctx, roomID, dr, domain.ActiveStatuses, c.turnover)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}
