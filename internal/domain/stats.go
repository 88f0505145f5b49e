package domain

import "github.com/shopspring/decimal"

type MonthlyStat struct {
	Month    int // 1..12
	Bookings int64
	Revenue  decimal.Decimal
}

type RoomStat struct {
	RoomID     int64
	RoomName   string
	RoomNumber string
	Bookings   int64
}

type BookingStats struct {
	Year     int
	Total    int64
	ByStatus map[BookingStatus]int64
	Revenue  decimal.Decimal
	Monthly  []MonthlyStat
	TopRooms []RoomStat
}
