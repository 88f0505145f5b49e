package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

// ---- fakes ----

// fakeCache round-trips values through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// ---- fixture ----

var (
	admin   = domain.Actor{ID: 1, Role: domain.RoleAdmin}
	manager = domain.Actor{ID: 2, Role: domain.RoleManager}
	alice   = domain.Actor{ID: 10, Role: domain.RoleGuest}
	bob     = domain.Actor{ID: 11, Role: domain.RoleGuest}
)

// date is midnight UTC of the given day in 2025.
func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	now      time.Time
	store    *memory.Store
	cache    *fakeCache
	bookings *app.BookingService
	rooms    *app.RoomService
	stats    *app.StatsService
	room     domain.Room
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T, turnover bool) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, time.May, 20, 10, 0, 0, 0, time.UTC), cache: &fakeCache{}}
	f.store = memory.New(f.clock)
	f.bookings = app.NewBookingService(f.store, f.cache, turnover, f.clock)
	f.rooms = app.NewRoomService(f.store, f.cache, time.Minute, f.clock)
	f.stats = app.NewStatsService(f.store, f.cache, time.Minute, f.clock)
	f.room = f.addRoom(t, "101", 1000, 3)
	return f
}

func (f *fixture) addRoom(t *testing.T, number string, price int64, capacity int) domain.Room {
	t.Helper()
	r, err := f.rooms.CreateRoom(context.Background(), admin, app.CreateRoomInput{
		Name:       "Room " + number,
		Price:      decimal.NewFromInt(price),
		Capacity:   capacity,
		Type:       "deluxe",
		Available:  true,
		RoomNumber: number,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) book(t *testing.T, who domain.Actor, roomID int64, in, out time.Time) domain.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), who, app.CreateBookingInput{
		RoomID: roomID, CheckIn: in, CheckOut: out, Adults: 1,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) setStatus(t *testing.T, id int64, st domain.BookingStatus) domain.Booking {
	t.Helper()
	b, err := f.bookings.UpdateBookingStatus(context.Background(), id, st, admin)
	require.NoError(t, err)
	return b
}

func ptr[T any](v T) *T { return &v }
