package app

import (
	"time"

	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

const day = 24 * time.Hour

// Nights counts billable nights; a partial day rounds up to a full night.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

func CalculateTotalPrice(rate decimal.Decimal, checkIn, checkOut time.Time) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, domain.ErrInvalidPriceInput
	}
	nights := Nights(checkIn, checkOut)
	if nights == 0 {
		return decimal.Zero, domain.ErrInvalidPriceInput
	}
	return rate.Mul(decimal.NewFromInt(int64(nights))), nil
}
