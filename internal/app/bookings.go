package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type CreateBookingInput struct {
	RoomID          int64
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	SpecialRequests *string
	PaymentMethod   *string
}

// BookingService owns the booking lifecycle: creation behind an availability gate,
// cancellation and staff status changes.
type BookingService struct {
	store    domain.Store
	cache    domain.Cache
	now      domain.Clock
	turnover bool
}

func NewBookingService(s domain.Store, c domain.Cache, turnover bool, now domain.Clock) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{store: s, cache: c, now: now, turnover: turnover}
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, in CreateBookingInput) (domain.Booking, error) {
	if actor.ID <= 0 {
		return domain.Booking{}, domain.ErrUnauthorized
	}
	if in.Adults < 1 {
		return domain.Booking{}, fmt.Errorf("%w: at least one adult is required", domain.ErrInvalidInput)
	}
	if in.Children < 0 {
		return domain.Booking{}, fmt.Errorf("%w: children cannot be negative", domain.ErrInvalidInput)
	}
	dr := domain.DateRange{CheckIn: in.CheckIn, CheckOut: in.CheckOut}
	if err := dr.Validate(); err != nil {
		return domain.Booking{}, err
	}
	// "today" is taken in the check-in's zone; dates arrive as midnight UTC
	now := s.now().In(in.CheckIn.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if in.CheckIn.Before(today) {
		return domain.Booking{}, domain.ErrCheckInInPast
	}

	nb := domain.Booking{
		Reference:       uuid.NewString(),
		RoomID:          in.RoomID,
		UserID:          actor.ID,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Adults:          in.Adults,
		Children:        in.Children,
		SpecialRequests: in.SpecialRequests,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentUnpaid,
		PaymentMethod:   in.PaymentMethod,
	}

	var created domain.Booking
	err := s.store.WithRoomLock(ctx, in.RoomID, func(ctx context.Context, tx domain.Store) error {
		room, err := tx.GetRoom(ctx, in.RoomID)
		if err != nil {
			return err
		}
		if !room.Available {
			return domain.ErrRoomUnavailable
		}
		if nb.Guests() > room.Capacity {
			return domain.ErrCapacityExceeded
		}

		ok, err := NewAvailabilityChecker(tx, s.turnover).IsAvailable(ctx, in.RoomID, in.CheckIn, in.CheckOut)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRoomUnavailable
		}

		total, err := CalculateTotalPrice(room.Price, in.CheckIn, in.CheckOut)
		if err != nil {
			return err
		}

		nb.TotalPrice = total
		created, err = tx.CreateBooking(ctx, nb)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.invalidateStats(ctx)
	log.Info().
		Int64("booking_id", created.ID).
		Int64("room_id", created.RoomID).
		Int64("user_id", created.UserID).
		Str("total", created.TotalPrice.String()).
		Msg("booking created")
	return created, nil
}

// Quote is the answer to an availability query for a stay window.
type Quote struct {
	Available bool
	Nights    int
	Total     decimal.Decimal
}

// Quote checks availability and prices the stay without holding anything.
func (s *BookingService) Quote(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (Quote, error) {
	ok, err := NewAvailabilityChecker(s.store, s.turnover).IsAvailable(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return Quote{}, err
	}
	total, err := CalculateTotalPrice(room.Price, checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Available: ok && room.Available, Nights: Nights(checkIn, checkOut), Total: total}, nil
}

func (s *BookingService) GetBookingByID(ctx context.Context, id int64, actor domain.Actor) (domain.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !actor.CanAccess(b) {
		return domain.Booking{}, domain.ErrForbidden
	}
	return b, nil
}

// ListBookings returns the actor's own bookings, or any bookings for staff.
func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, q domain.BookingsQuery) (domain.BookingsPage, error) {
	if !actor.Staff() {
		id := actor.ID
		q.UserID = &id
	}
	if q.Status != nil && !q.Status.Valid() {
		return domain.BookingsPage{}, domain.ErrInvalidStatus
	}
	q.Limit = clampLimit(q.Limit)
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.store.ListBookings(ctx, q)
}

// CancelBooking cancels on behalf of the owner or staff. The check-in gate applies to
// every role. Cancelling an already canceled booking returns it unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, id int64, actor domain.Actor) (domain.Booking, error) {
	return s.transition(ctx, id, domain.StatusCanceled, func(b domain.Booking) error {
		if !actor.CanAccess(b) {
			return domain.ErrForbidden
		}
		if b.Status != domain.StatusCanceled && s.now().After(b.CheckIn) {
			return domain.ErrTooLateToCancel
		}
		return nil
	})
}

// UpdateBookingStatus moves a booking along the state machine. Setting the current
// status again is a no-op.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus, actor domain.Actor) (domain.Booking, error) {
	if !actor.Staff() {
		return domain.Booking{}, domain.ErrForbidden
	}
	if !status.Valid() {
		return domain.Booking{}, domain.ErrInvalidStatus
	}
	return s.transition(ctx, id, status, nil)
}

func (s *BookingService) UpdatePayment(ctx context.Context, id int64, p domain.PaymentStatus, method *string, actor domain.Actor) (domain.Booking, error) {
	if !actor.Staff() {
		return domain.Booking{}, domain.ErrForbidden
	}
	if !p.Valid() {
		return domain.Booking{}, fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidInput, p)
	}
	if _, err := s.store.GetBooking(ctx, id); err != nil {
		return domain.Booking{}, err
	}
	if err := s.store.UpdatePayment(ctx, id, p, method); err != nil {
		return domain.Booking{}, err
	}
	s.invalidateStats(ctx)
	return s.store.GetBooking(ctx, id)
}

// transition re-reads the booking under its room lock, applies check, then writes the
// new status if the state machine allows it.
func (s *BookingService) transition(ctx context.Context, id int64, next domain.BookingStatus, check func(domain.Booking) error) (domain.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	changed := false
	err = s.store.WithRoomLock(ctx, b.RoomID, func(ctx context.Context, tx domain.Store) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		if cur.Status == next {
			out = cur
			return nil
		}
		if cur.Status.Terminal() {
			return fmt.Errorf("%w: %s is final", domain.ErrInvalidTransition, cur.Status)
		}
		if !cur.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, cur.Status, next)
		}
		if err := tx.UpdateBookingStatus(ctx, id, next); err != nil {
			return err
		}
		changed = true
		out, err = tx.GetBooking(ctx, id)
		return err
	})
	if err != nil {
		// the lock target is the booking's own room; if that row is gone so is the booking
		if errors.Is(err, domain.ErrRoomNotFound) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, err
	}

	if changed {
		s.invalidateStats(ctx)
		log.Info().
			Int64("booking_id", id).
			Str("from", string(b.Status)).
			Str("to", string(next)).
			Msg("booking status changed")
	}
	return out, nil
}

func (s *BookingService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsKey(s.now().Year())); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

func clampLimit(l int) int {
	if l <= 0 {
		return defaultPageLimit
	}
	if l > maxPageLimit {
		return maxPageLimit
	}
	return l
}
