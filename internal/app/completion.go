package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/domain"
)

const sweepBatch = 500

// CompleteFinishedStays marks confirmed bookings whose check-out has passed as completed.
// Up to workers bookings are processed at once. It returns how many were completed.
func (s *BookingService) CompleteFinishedStays(ctx context.Context, workers int) (int, error) {
	if workers <= 0 {
		workers = 1
	}
	due, err := s.store.ListFinished(ctx, s.now(), sweepBatch)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var done int64

	for _, b := range due {
		b := b

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := s.transition(ctx, b.ID, domain.StatusCompleted, s.finished); err != nil {
				log.Warn().Int64("booking_id", b.ID).Err(err).Msg("complete stay failed")
				return
			}
			atomic.AddInt64(&done, 1)
		}()
	}

	wg.Wait()
	n := int(atomic.LoadInt64(&done))
	return n, ctx.Err()
}

func (s *BookingService) finished(b domain.Booking) error {
	if b.Status != domain.StatusConfirmed || s.now().Before(b.CheckOut) {
		return domain.ErrInvalidTransition
	}
	return nil
}
