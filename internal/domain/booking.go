package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCanceled  BookingStatus = "canceled"
	StatusCompleted BookingStatus = "completed"
)

// transitions is the booking state machine. Terminal states map to nothing.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCanceled, StatusCompleted},
	StatusCanceled:  {},
	StatusCompleted: {},
}

// ActiveStatuses are the statuses that hold a room.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// RevenueStatuses are the statuses counted as earned revenue.
var RevenueStatuses = []BookingStatus{StatusConfirmed, StatusCompleted}

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCanceled, StatusCompleted}

func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type Booking struct {
	ID              int64
	Reference       string
	RoomID          int64
	UserID          int64
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	TotalPrice      decimal.Decimal
	SpecialRequests *string
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Guests is the head count the booking occupies the room with.
func (b Booking) Guests() int { return b.Adults + b.Children }

// DateRange is a stay window; CheckOut must be after CheckIn.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() || !r.CheckOut.After(r.CheckIn) {
		return ErrInvalidDateRange
	}
	return nil
}

type BookingsQuery struct {
	UserID *int64
	RoomID *int64
	Status *BookingStatus
	Limit  int
	Offset int
}

type BookingsPage struct {
	Items []Booking
	Total int64
}

// Conflicts reports whether r, the range of an existing booking, blocks candidate.
// With turnover disabled the bounds are inclusive on both ends, so a stay ending on the
// day another begins still conflicts. With turnover enabled the ranges are half-open.
func (r DateRange) Conflicts(candidate DateRange, turnover bool) bool {
	if turnover {
		return r.CheckIn.Before(candidate.CheckOut) && r.CheckOut.After(candidate.CheckIn)
	}
	within := func(t time.Time) bool {
		return !t.Before(candidate.CheckIn) && !t.After(candidate.CheckOut)
	}
	return within(r.CheckIn) ||
		within(r.CheckOut) ||
		(!r.CheckIn.After(candidate.CheckIn) && !r.CheckOut.Before(candidate.CheckOut))
}

// Range returns the booking's stay window.
func (b Booking) Range() DateRange { return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut} }
