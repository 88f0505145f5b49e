package app_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func TestCalculateTotalPrice(t *testing.T) {
	cases := []struct {
		name    string
		rate    string
		in, out time.Time
		want    string
		err     error
	}{
		{"three nights", "1000", date(6, 1), date(6, 4), "3000", nil},
		{"one night", "89.99", date(6, 1), date(6, 2), "89.99", nil},
		{"partial day rounds up", "100", date(6, 1), date(6, 2).Add(3 * time.Hour), "200", nil},
		{"free room", "0", date(6, 1), date(6, 3), "0", nil},
		{"same day", "100", date(6, 1), date(6, 1), "", domain.ErrInvalidPriceInput},
		{"reversed", "100", date(6, 4), date(6, 1), "", domain.ErrInvalidPriceInput},
		{"negative rate", "-1", date(6, 1), date(6, 2), "", domain.ErrInvalidPriceInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := app.CalculateTotalPrice(decimal.RequireFromString(tc.rate), tc.in, tc.out)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("want %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("err: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNights(t *testing.T) {
	if n := app.Nights(date(6, 1), date(6, 8)); n != 7 {
		t.Fatalf("want 7, got %d", n)
	}
	if n := app.Nights(date(6, 8), date(6, 1)); n != 0 {
		t.Fatalf("want 0 for reversed range, got %d", n)
	}
}
