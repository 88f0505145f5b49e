package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

func roomKey(id int64) string { return fmt.Sprintf("room:%d", id) }

type CreateRoomInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Capacity    int
	Type        string
	Amenities   []string
	Images      []string
	Available   bool
	Floor       *int
	RoomNumber  string
}

type RoomService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
	now      domain.Clock
}

func NewRoomService(s domain.Store, c domain.Cache, ttl time.Duration, now domain.Clock) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{store: s, cache: c, cacheTTL: ttl, now: now}
}

func (s *RoomService) CreateRoom(ctx context.Context, actor domain.Actor, in CreateRoomInput) (domain.Room, error) {
	if !actor.Staff() {
		return domain.Room{}, domain.ErrForbidden
	}
	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.Room{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case strings.TrimSpace(in.RoomNumber) == "":
		return domain.Room{}, fmt.Errorf("%w: room number is required", domain.ErrInvalidInput)
	case in.Price.IsNegative():
		return domain.Room{}, domain.ErrInvalidPriceInput
	case in.Capacity < 1:
		return domain.Room{}, fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
	}
	r, err := s.store.CreateRoom(ctx, domain.Room{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Type:        in.Type,
		Amenities:   in.Amenities,
		Images:      in.Images,
		Available:   in.Available,
		Floor:       in.Floor,
		RoomNumber:  strings.TrimSpace(in.RoomNumber),
	})
	if err != nil {
		return domain.Room{}, err
	}
	log.Info().Int64("room_id", r.ID).Str("number", r.RoomNumber).Msg("room created")
	return r, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	key := roomKey(id)
	var r domain.Room
	if s.cache == nil {
		return s.store.GetRoom(ctx, id)
	}
	if ok, _ := s.cache.Get(ctx, key, &r); ok {
		return r, nil
	}
	// fill under the room lock so a concurrent DeleteRoom cannot be overwritten by a stale Set
	err := s.store.WithRoomLock(ctx, id, func(ctx context.Context, tx domain.Store) error {
		var err error
		if r, err = tx.GetRoom(ctx, id); err != nil {
			return err
		}
		_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return r, nil
}

func (s *RoomService) ListRooms(ctx context.Context, q domain.RoomsQuery) (domain.RoomsPage, error) {
	q.Limit = clampLimit(q.Limit)
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.store.ListRooms(ctx, q)
}

// DeleteRoom retires a room unless a pending or confirmed booking still checks out in
// the future.
func (s *RoomService) DeleteRoom(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.Staff() {
		return domain.ErrForbidden
	}
	err := s.store.WithRoomLock(ctx, id, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.GetRoom(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountActiveBookings(ctx, id, s.now())
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d upcoming", domain.ErrRoomHasActiveBookings, n)
		}
		return tx.DeleteRoom(ctx, id)
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, roomKey(id))
	}
	log.Info().Int64("room_id", id).Msg("room deleted")
	return nil
}
