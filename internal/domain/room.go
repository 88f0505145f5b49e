package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID          int64
	Name        string
	Description *string
	Price       decimal.Decimal // nightly rate
	Capacity    int
	Type        string
	Amenities   []string
	Images      []string
	Available   bool
	Floor       *int
	RoomNumber  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RoomsQuery struct {
	Type          *string
	MinCapacity   *int
	AvailableOnly bool
	Limit         int
	Offset        int
}

type RoomsPage struct {
	Items []Room
	Total int64
}
