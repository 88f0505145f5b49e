// Package memory is an in-process domain.Store for tests and local runs. Writes made
// inside WithRoomLock are not rolled back when fn fails, and the room lock is not
// reentrant. Acquiring the room lock ignores ctx; cancellation is only seen once the
// lock is held.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	roomLocks   map[int64]*sync.Mutex
	rooms       map[int64]domain.Room
	deleted     map[int64]bool
	bookings    map[int64]domain.Booking
	nextRoom    int64
	nextBooking int64
	now         func() time.Time
}

var _ domain.Store = (*Store)(nil)

func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		roomLocks: map[int64]*sync.Mutex{},
		rooms:     map[int64]domain.Room{},
		deleted:   map[int64]bool{},
		bookings:  map[int64]domain.Booking{},
		now:       now,
	}
}

func (s *Store) WithRoomLock(ctx context.Context, roomID int64, fn func(ctx context.Context, tx domain.Store) error) error {
	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	l, ok := s.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[roomID] = l
	}
	s.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s)
}

// ---- rooms ----

func (s *Store) CreateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rooms {
		if existing.RoomNumber == r.RoomNumber {
			return domain.Room{}, domain.ErrDuplicateRoomNumber
		}
	}
	s.nextRoom++
	r.ID = s.nextRoom
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.rooms[r.ID] = r
	return r, nil
}

func (s *Store) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok || s.deleted[id] {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context, q domain.RoomsQuery) (domain.RoomsPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []domain.Room
	for id, r := range s.rooms {
		if s.deleted[id] {
			continue
		}
		if q.Type != nil && r.Type != *q.Type {
			continue
		}
		if q.MinCapacity != nil && r.Capacity < *q.MinCapacity {
			continue
		}
		if q.AvailableOnly && !r.Available {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RoomNumber != all[j].RoomNumber {
			return all[i].RoomNumber < all[j].RoomNumber
		}
		return all[i].ID < all[j].ID
	})
	return domain.RoomsPage{Items: page(all, q.Limit, q.Offset), Total: int64(len(all))}, nil
}

func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok || s.deleted[id] {
		return domain.ErrRoomNotFound
	}
	s.deleted[id] = true
	return nil
}

func (s *Store) CountActiveBookings(ctx context.Context, roomID int64, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, b := range s.bookings {
		if b.RoomID == roomID && isIn(b.Status, domain.ActiveStatuses) && b.CheckOut.After(now) {
			n++
		}
	}
	return n, nil
}

// ---- bookings ----

func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBooking++
	b.ID = s.nextBooking
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, st domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = st
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	return nil
}

func (s *Store) UpdatePayment(ctx context.Context, id int64, p domain.PaymentStatus, method *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.PaymentStatus = p
	if method != nil {
		m := *method
		b.PaymentMethod = &m
	}
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	return nil
}

func (s *Store) ListBookings(ctx context.Context, q domain.BookingsQuery) (domain.BookingsPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []domain.Booking
	for _, b := range s.bookings {
		if q.UserID != nil && b.UserID != *q.UserID {
			continue
		}
		if q.RoomID != nil && b.RoomID != *q.RoomID {
			continue
		}
		if q.Status != nil && b.Status != *q.Status {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return domain.BookingsPage{Items: page(all, q.Limit, q.Offset), Total: int64(len(all))}, nil
}

func (s *Store) FindConflicting(ctx context.Context, roomID int64, r domain.DateRange, statuses []domain.BookingStatus, turnover bool) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.RoomID == roomID && isIn(b.Status, statuses) && b.Range().Conflicts(r, turnover) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (s *Store) ListFinished(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.StatusConfirmed && b.CheckOut.Before(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckOut.Equal(out[j].CheckOut) {
			return out[i].CheckOut.Before(out[j].CheckOut)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, 0), nil
}

// ---- aggregates ----

func (s *Store) CountBookings(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.bookings)), nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.BookingStatus]int64{}
	for _, b := range s.bookings {
		out[b.Status]++
	}
	return out, nil
}

func (s *Store) SumRevenue(ctx context.Context, statuses []domain.BookingStatus) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, b := range s.bookings {
		if isIn(b.Status, statuses) {
			sum = sum.Add(b.TotalPrice)
		}
	}
	return sum, nil
}

func (s *Store) MonthlyStats(ctx context.Context, year int, statuses []domain.BookingStatus) ([]domain.MonthlyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byMonth := map[int]*domain.MonthlyStat{}
	for _, b := range s.bookings {
		if b.CheckIn.Year() != year || !isIn(b.Status, statuses) {
			continue
		}
		m := int(b.CheckIn.Month())
		st, ok := byMonth[m]
		if !ok {
			st = &domain.MonthlyStat{Month: m, Revenue: decimal.Zero}
			byMonth[m] = st
		}
		st.Bookings++
		st.Revenue = st.Revenue.Add(b.TotalPrice)
	}
	out := make([]domain.MonthlyStat, 0, len(byMonth))
	for _, st := range byMonth {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) TopRooms(ctx context.Context, statuses []domain.BookingStatus, limit int) ([]domain.RoomStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[int64]int64{}
	for _, b := range s.bookings {
		if isIn(b.Status, statuses) {
			counts[b.RoomID]++
		}
	}
	out := make([]domain.RoomStat, 0, len(counts))
	for id, n := range counts {
		r := s.rooms[id]
		out = append(out, domain.RoomStat{RoomID: id, RoomName: r.Name, RoomNumber: r.RoomNumber, Bookings: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bookings != out[j].Bookings {
			return out[i].Bookings > out[j].Bookings
		}
		return out[i].RoomID < out[j].RoomID
	})
	return page(out, limit, 0), nil
}

func isIn(st domain.BookingStatus, set []domain.BookingStatus) bool {
	for _, s := range set {
		if s == st {
			return true
		}
	}
	return false
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
