package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, r Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context, q RoomsQuery) (RoomsPage, error)
	DeleteRoom(ctx context.Context, id int64) error
	// CountActiveBookings counts pending/confirmed bookings of a room checking out after now.
	CountActiveBookings(ctx context.Context, roomID int64, now time.Time) (int64, error)
}

type BookingRepository interface {
	// Write paths
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, s BookingStatus) error
	UpdatePayment(ctx context.Context, id int64, p PaymentStatus, method *string) error

	// Read paths
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, q BookingsQuery) (BookingsPage, error)
	FindConflicting(ctx context.Context, roomID int64, r DateRange, statuses []BookingStatus, turnover bool) ([]Booking, error)
	ListFinished(ctx context.Context, before time.Time, limit int) ([]Booking, error)

	// Aggregates
	CountBookings(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[BookingStatus]int64, error)
	SumRevenue(ctx context.Context, statuses []BookingStatus) (decimal.Decimal, error)
	MonthlyStats(ctx context.Context, year int, statuses []BookingStatus) ([]MonthlyStat, error)
	TopRooms(ctx context.Context, statuses []BookingStatus, limit int) ([]RoomStat, error)
}

// Store is the full persistence port.
type Store interface {
	RoomRepository
	BookingRepository

	// WithRoomLock runs fn in one transaction holding an exclusive lock on the room.
	// Concurrent callers for the same room are serialized. Returns ErrRoomNotFound if
	// the room does not exist.
	WithRoomLock(ctx context.Context, roomID int64, fn func(ctx context.Context, tx Store) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}

// Clock is the source of "now" for temporal rules.
type Clock func() time.Time
