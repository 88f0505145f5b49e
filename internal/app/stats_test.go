package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func TestBookingStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	cheap := f.addRoom(t, "102", 200, 2)

	confirmed := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4)) // 3000
	completed := f.book(t, bob, cheap.ID, date(7, 10), date(7, 12))  // 400
	canceled := f.book(t, bob, f.room.ID, date(7, 1), date(7, 2))    // 1000, not revenue
	f.book(t, alice, cheap.ID, date(8, 1), date(8, 2))               // pending, not revenue
	second := f.book(t, alice, f.room.ID, date(9, 1), date(9, 2))    // 1000

	f.setStatus(t, confirmed.ID, domain.StatusConfirmed)
	f.setStatus(t, completed.ID, domain.StatusConfirmed)
	f.setStatus(t, completed.ID, domain.StatusCompleted)
	f.setStatus(t, canceled.ID, domain.StatusCanceled)
	f.setStatus(t, second.ID, domain.StatusConfirmed)

	s, err := f.stats.BookingStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2025, s.Year)
	assert.EqualValues(t, 5, s.Total)
	assert.Equal(t, map[domain.BookingStatus]int64{
		domain.StatusPending:   1,
		domain.StatusConfirmed: 2,
		domain.StatusCanceled:  1,
		domain.StatusCompleted: 1,
	}, s.ByStatus)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(4400)), "revenue %s", s.Revenue)

	require.Len(t, s.Monthly, 12)
	assert.Equal(t, 1, s.Monthly[0].Month)
	assert.EqualValues(t, 0, s.Monthly[0].Bookings)
	assert.EqualValues(t, 1, s.Monthly[5].Bookings)
	assert.True(t, s.Monthly[5].Revenue.Equal(decimal.NewFromInt(3000)))
	assert.EqualValues(t, 1, s.Monthly[6].Bookings)
	assert.True(t, s.Monthly[6].Revenue.Equal(decimal.NewFromInt(400)))
	assert.EqualValues(t, 0, s.Monthly[7].Bookings)

	require.NotEmpty(t, s.TopRooms)
	assert.Equal(t, f.room.ID, s.TopRooms[0].RoomID)
	assert.EqualValues(t, 2, s.TopRooms[0].Bookings)
}

func TestBookingStats_EmptyStore(t *testing.T) {
	f := newFixture(t, false)

	s, err := f.stats.BookingStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.True(t, s.Revenue.IsZero())
	assert.Len(t, s.Monthly, 12)
	assert.Len(t, s.ByStatus, len(domain.AllStatuses))
	assert.Empty(t, s.TopRooms)
}

func TestBookingStats_ServedFromCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	b := f.book(t, alice, f.room.ID, date(6, 1), date(6, 4))

	first, err := f.stats.BookingStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ByStatus[domain.StatusPending])

	// writes that bypass the service leave the cached numbers alone
	require.NoError(t, f.store.UpdateBookingStatus(ctx, b.ID, domain.StatusConfirmed))
	cached, err := f.stats.BookingStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.ByStatus[domain.StatusPending])

	// a change through the booking service drops the entry
	f.setStatus(t, b.ID, domain.StatusCanceled)
	fresh, err := f.stats.BookingStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fresh.ByStatus[domain.StatusPending])
	assert.EqualValues(t, 1, fresh.ByStatus[domain.StatusCanceled])
}

type brokenAggregates struct {
	domain.Store
}

func (brokenAggregates) SumRevenue(ctx context.Context, statuses []domain.BookingStatus) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("lock wait timeout")
}

func TestBookingStats_PropagatesStoreError(t *testing.T) {
	f := newFixture(t, false)
	svc := app.NewStatsService(brokenAggregates{f.store}, nil, 0, f.clock)

	_, err := svc.BookingStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum revenue")
}
