package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

const topRoomsLimit = 5

func statsKey(year int) string { return fmt.Sprintf("stats:bookings:%d", year) }

// StatsService builds the booking dashboard. Results are cached for ttl and dropped by
// BookingService whenever a booking changes.
type StatsService struct {
	repo     domain.BookingRepository
	cache    domain.Cache
	cacheTTL time.Duration
	now      domain.Clock
}

func NewStatsService(r domain.BookingRepository, c domain.Cache, ttl time.Duration, now domain.Clock) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{repo: r, cache: c, cacheTTL: ttl, now: now}
}

func (s *StatsService) BookingStats(ctx context.Context) (domain.BookingStats, error) {
	year := s.now().Year()
	key := statsKey(year)
	var out domain.BookingStats
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	total, err := s.repo.CountBookings(ctx)
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("count bookings: %w", err)
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("count by status: %w", err)
	}
	revenue, err := s.repo.SumRevenue(ctx, domain.RevenueStatuses)
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("sum revenue: %w", err)
	}
	monthly, err := s.repo.MonthlyStats(ctx, year, domain.RevenueStatuses)
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("monthly stats: %w", err)
	}
	top, err := s.repo.TopRooms(ctx, domain.RevenueStatuses, topRoomsLimit)
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("top rooms: %w", err)
	}

	out = domain.BookingStats{
		Year:     year,
		Total:    total,
		ByStatus: fillStatuses(byStatus),
		Revenue:  revenue,
		Monthly:  fillMonths(monthly),
		TopRooms: top,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// fillStatuses reports every status, zero when absent.
func fillStatuses(in map[domain.BookingStatus]int64) map[domain.BookingStatus]int64 {
	out := make(map[domain.BookingStatus]int64, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		out[st] = in[st]
	}
	return out
}

// fillMonths returns exactly twelve entries, January first.
func fillMonths(in []domain.MonthlyStat) []domain.MonthlyStat {
	out := make([]domain.MonthlyStat, 12)
	for i := range out {
		out[i] = domain.MonthlyStat{Month: i + 1, Revenue: decimal.Zero}
	}
	for _, m := range in {
		if m.Month >= 1 && m.Month <= 12 {
			out[m.Month-1] = m
		}
	}
	return out
}
