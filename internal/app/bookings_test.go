package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, false)

	b, err := f.bookings.CreateBooking(context.Background(), alice, app.CreateBookingInput{
		RoomID:          f.room.ID,
		CheckIn:         date(6, 1),
		CheckOut:        date(6, 4),
		Adults:          2,
		Children:        1,
		SpecialRequests: ptr("late arrival"),
	})
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, alice.ID, b.UserID)
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, domain.PaymentUnpaid, b.PaymentStatus)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(3000)), "total %s", b.TotalPrice)
	assert.Equal(t, 3, b.Guests())

	got, err := f.bookings.GetBookingByID(context.Background(), b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, b.Reference, got.Reference)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t, false)
	f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	closed := f.addRoom(t, "102", 500, 2)
	require.NoError(t, f.rooms.DeleteRoom(context.Background(), admin, closed.ID))
	unlisted, err := f.rooms.CreateRoom(context.Background(), admin, app.CreateRoomInput{
		Name: "Closed", Price: decimal.NewFromInt(10), Capacity: 2, Available: false, RoomNumber: "103",
	})
	require.NoError(t, err)

	cases := []struct {
		name  string
		actor domain.Actor
		in    app.CreateBookingInput
		want  error
	}{
		{"anonymous", domain.Actor{}, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 1}, domain.ErrUnauthorized},
		{"no adults", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 1), CheckOut: date(7, 2)}, domain.ErrInvalidInput},
		{"negative children", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 1, Children: -1}, domain.ErrInvalidInput},
		{"reversed dates", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 2), CheckOut: date(7, 1), Adults: 1}, domain.ErrInvalidDateRange},
		{"zero nights", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 2), CheckOut: date(7, 2), Adults: 1}, domain.ErrInvalidDateRange},
		{"check-in in the past", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(5, 1), CheckOut: date(5, 3), Adults: 1}, domain.ErrCheckInInPast},
		{"unknown room", bob, app.CreateBookingInput{RoomID: 999, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 1}, domain.ErrRoomNotFound},
		{"deleted room", bob, app.CreateBookingInput{RoomID: closed.ID, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 1}, domain.ErrRoomNotFound},
		{"room not bookable", bob, app.CreateBookingInput{RoomID: unlisted.ID, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 1}, domain.ErrRoomUnavailable},
		{"over capacity", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(7, 1), CheckOut: date(7, 2), Adults: 2, Children: 2}, domain.ErrCapacityExceeded},
		{"overlap", bob, app.CreateBookingInput{RoomID: f.room.ID, CheckIn: date(6, 3), CheckOut: date(6, 5), Adults: 1}, domain.ErrRoomUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bookings.CreateBooking(context.Background(), tc.actor, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	page, err := f.bookings.ListBookings(context.Background(), admin, domain.BookingsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total, "rejected requests must not persist")
}

func TestCreateBooking_TodayIsAllowed(t *testing.T) {
	f := newFixture(t, false)
	// the clock sits at 10:00 on May 20; a stay starting that midnight is still today
	f.book(t, alice, f.room.ID, date(5, 20), date(5, 21))
}

func TestCreateBooking_TodayWithClockBehindUTC(t *testing.T) {
	f := newFixture(t, false)
	eastern := time.FixedZone("EDT", -4*60*60)
	f.now = time.Date(2025, time.May, 20, 9, 0, 0, 0, eastern)

	// request dates are parsed as midnight UTC
	f.book(t, alice, f.room.ID, date(5, 20), date(5, 22))

	// late evening in New York is already the 21st in UTC
	f.now = time.Date(2025, time.May, 20, 22, 0, 0, 0, eastern)
	_, err := f.bookings.CreateBooking(context.Background(), bob, app.CreateBookingInput{
		RoomID: f.room.ID, CheckIn: date(5, 20), CheckOut: date(5, 21), Adults: 1,
	})
	require.ErrorIs(t, err, domain.ErrCheckInInPast)
	assert.NotContains(t, err.Error(), "check-out")
}

func TestCreateBooking_ConcurrentSameDatesOnlyOneWins(t *testing.T) {
	f := newFixture(t, false)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			<-start
			_, err := f.bookings.CreateBooking(context.Background(), domain.Actor{ID: user, Role: domain.RoleGuest}, app.CreateBookingInput{
				RoomID: f.room.ID, CheckIn: date(8, 1), CheckOut: date(8, 5), Adults: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrRoomUnavailable):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(100 + i))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, refused)
}

func TestCreateBooking_InvalidatesStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.stats.BookingStats(ctx)
	require.NoError(t, err)
	require.True(t, f.cache.has("stats:bookings:2025"))

	f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))
	assert.False(t, f.cache.has("stats:bookings:2025"))
}

func TestGetBookingByID_Access(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	_, err := f.bookings.GetBookingByID(ctx, b.ID, bob)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	for _, a := range []domain.Actor{alice, manager, admin} {
		got, err := f.bookings.GetBookingByID(ctx, b.ID, a)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}

	_, err = f.bookings.GetBookingByID(ctx, 999, admin)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestListBookings_GuestsSeeOnlyTheirOwn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))
	f.book(t, bob, f.room.ID, date(6, 10), date(6, 12))
	f.book(t, alice, f.room.ID, date(6, 20), date(6, 22))

	// a guest asking for someone else's bookings still only gets their own
	page, err := f.bookings.ListBookings(ctx, alice, domain.BookingsQuery{UserID: ptr(bob.ID)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, b := range page.Items {
		assert.Equal(t, alice.ID, b.UserID)
	}

	page, err = f.bookings.ListBookings(ctx, manager, domain.BookingsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = f.bookings.ListBookings(ctx, manager, domain.BookingsQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 3, page.Total)

	_, err = f.bookings.ListBookings(ctx, manager, domain.BookingsQuery{Status: ptr(domain.BookingStatus("lost"))})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	_, err := f.bookings.CancelBooking(ctx, b.ID, bob)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.bookings.CancelBooking(ctx, b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)

	// canceling again is a no-op
	again, err := f.bookings.CancelBooking(ctx, b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, again.Status)

	// the dates are free again
	f.book(t, bob, f.room.ID, date(6, 1), date(6, 4))

	_, err = f.bookings.CancelBooking(ctx, 999, alice)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestCancelBooking_TooLateAfterCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))
	f.setStatus(t, b.ID, domain.StatusConfirmed)

	f.now = date(6, 1).Add(time.Hour)

	for _, a := range []domain.Actor{alice, admin} {
		_, err := f.bookings.CancelBooking(ctx, b.ID, a)
		assert.ErrorIs(t, err, domain.ErrTooLateToCancel)
	}

	got, err := f.bookings.GetBookingByID(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestCancelBooking_CompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))
	f.setStatus(t, b.ID, domain.StatusConfirmed)
	f.setStatus(t, b.ID, domain.StatusCompleted)

	_, err := f.bookings.CancelBooking(ctx, b.ID, alice)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorContains(t, err, "completed is final")

	_, err = f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed, admin)
	assert.ErrorContains(t, err, "completed is final")
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	_, err := f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bookings.UpdateBookingStatus(ctx, b.ID, "checked_in", admin)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.bookings.UpdateBookingStatus(ctx, 999, domain.StatusConfirmed, admin)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	// pending cannot skip straight to completed
	_, err = f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusCompleted, manager)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed, manager)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	// same status twice leaves the booking as it was
	f.cache.dels = nil
	same, err := f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed, manager)
	require.NoError(t, err)
	assert.Equal(t, got, same)
	assert.Empty(t, f.cache.dels)

	got = f.setStatus(t, b.ID, domain.StatusCanceled)
	assert.Equal(t, domain.StatusCanceled, got.Status)

	_, err = f.bookings.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdatePayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	_, err := f.bookings.UpdatePayment(ctx, b.ID, domain.PaymentPaid, nil, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bookings.UpdatePayment(ctx, b.ID, "refunded", nil, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.bookings.UpdatePayment(ctx, 999, domain.PaymentPaid, nil, admin)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	got, err := f.bookings.UpdatePayment(ctx, b.ID, domain.PaymentPartial, ptr("card"), admin)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartial, got.PaymentStatus)
	require.NotNil(t, got.PaymentMethod)
	assert.Equal(t, "card", *got.PaymentMethod)

	// a nil method keeps the one on file
	got, err = f.bookings.UpdatePayment(ctx, b.ID, domain.PaymentPaid, nil, manager)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "card", *got.PaymentMethod)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	q, err := f.bookings.Quote(ctx, f.room.ID, date(6, 10), date(6, 12))
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.Equal(t, 2, q.Nights)
	assert.True(t, q.Total.Equal(decimal.NewFromInt(2000)))

	q, err = f.bookings.Quote(ctx, f.room.ID, date(6, 2), date(6, 3))
	require.NoError(t, err)
	assert.False(t, q.Available)

	_, err = f.bookings.Quote(ctx, f.room.ID, date(6, 3), date(6, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestCreateBooking_PropagatesStoreError(t *testing.T) {
	f := newFixture(t, false)
	boom := errors.New("deadlock found")
	svc := app.NewBookingService(failingStore{Store: f.store, err: boom}, nil, false, f.clock)

	_, err := svc.CreateBooking(context.Background(), alice, app.CreateBookingInput{
		RoomID: f.room.ID, CheckIn: date(6, 1), CheckOut: date(6, 4), Adults: 1,
	})
	assert.ErrorIs(t, err, boom)
}
