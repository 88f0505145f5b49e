package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date (midnight UTC) or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", domain.ErrInvalidDateRange, s)
	}
	return t.UTC(), nil
}

// decodeBody decodes JSON into dst and runs struct validation.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", domain.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ---- requests ----

type createBookingRequest struct {
	RoomID          int64   `json:"room_id" validate:"required,gt=0"`
	CheckIn         string  `json:"check_in" validate:"required"`
	CheckOut        string  `json:"check_out" validate:"required"`
	Adults          int     `json:"adults" validate:"required,min=1"`
	Children        int     `json:"children" validate:"min=0"`
	SpecialRequests *string `json:"special_requests" validate:"omitempty,max=1000"`
	PaymentMethod   *string `json:"payment_method" validate:"omitempty,max=64"`
}

func (req createBookingRequest) toInput() (app.CreateBookingInput, error) {
	in, err := parseDate(req.CheckIn)
	if err != nil {
		return app.CreateBookingInput{}, err
	}
	out, err := parseDate(req.CheckOut)
	if err != nil {
		return app.CreateBookingInput{}, err
	}
	return app.CreateBookingInput{
		RoomID:          req.RoomID,
		CheckIn:         in,
		CheckOut:        out,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   req.PaymentMethod,
	}, nil
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updatePaymentRequest struct {
	PaymentStatus string  `json:"payment_status" validate:"required,oneof=unpaid partial paid"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,max=64"`
}

type createRoomRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity" validate:"required,min=1"`
	Type        string          `json:"type" validate:"omitempty,max=64"`
	Amenities   []string        `json:"amenities" validate:"omitempty,dive,max=64"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
	Available   *bool           `json:"is_available"`
	Floor       *int            `json:"floor"`
	RoomNumber  string          `json:"room_number" validate:"required,max=32"`
}

func (req createRoomRequest) toInput() app.CreateRoomInput {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	typ := req.Type
	if typ == "" {
		typ = "standard"
	}
	return app.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Type:        typ,
		Amenities:   req.Amenities,
		Images:      req.Images,
		Available:   available,
		Floor:       req.Floor,
		RoomNumber:  req.RoomNumber,
	}
}

// ---- responses ----

type bookingResponse struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	RoomID          int64           `json:"room_id"`
	UserID          int64           `json:"user_id"`
	CheckIn         time.Time       `json:"check_in"`
	CheckOut        time.Time       `json:"check_out"`
	Nights          int             `json:"nights"`
	Adults          int             `json:"adults"`
	Children        int             `json:"children"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	SpecialRequests *string         `json:"special_requests,omitempty"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   *string         `json:"payment_method,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		Reference:       b.Reference,
		RoomID:          b.RoomID,
		UserID:          b.UserID,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		Nights:          app.Nights(b.CheckIn, b.CheckOut),
		Adults:          b.Adults,
		Children:        b.Children,
		TotalPrice:      b.TotalPrice,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentMethod:   b.PaymentMethod,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type roomResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	Type        string          `json:"type"`
	Amenities   []string        `json:"amenities"`
	Images      []string        `json:"images"`
	Available   bool            `json:"is_available"`
	Floor       *int            `json:"floor,omitempty"`
	RoomNumber  string          `json:"room_number"`
}

func toRoomResponse(r domain.Room) roomResponse {
	amen, imgs := r.Amenities, r.Images
	if amen == nil {
		amen = []string{}
	}
	if imgs == nil {
		imgs = []string{}
	}
	return roomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Capacity:    r.Capacity,
		Type:        r.Type,
		Amenities:   amen,
		Images:      imgs,
		Available:   r.Available,
		Floor:       r.Floor,
		RoomNumber:  r.RoomNumber,
	}
}

type pageResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type availabilityResponse struct {
	RoomID    int64           `json:"room_id"`
	CheckIn   time.Time       `json:"check_in"`
	CheckOut  time.Time       `json:"check_out"`
	Available bool            `json:"available"`
	Nights    int             `json:"nights"`
	Total     decimal.Decimal `json:"total_price"`
}

type monthlyResponse struct {
	Month    int             `json:"month"`
	Bookings int64           `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type topRoomResponse struct {
	RoomID     int64  `json:"room_id"`
	RoomName   string `json:"room_name"`
	RoomNumber string `json:"room_number"`
	Bookings   int64  `json:"bookings"`
}

type statsResponse struct {
	Year     int               `json:"year"`
	Total    int64             `json:"total"`
	ByStatus map[string]int64  `json:"by_status"`
	Revenue  decimal.Decimal   `json:"revenue"`
	Monthly  []monthlyResponse `json:"monthly"`
	TopRooms []topRoomResponse `json:"top_rooms"`
}

func toStatsResponse(s domain.BookingStats) statsResponse {
	out := statsResponse{
		Year:     s.Year,
		Total:    s.Total,
		ByStatus: make(map[string]int64, len(s.ByStatus)),
		Revenue:  s.Revenue,
		Monthly:  make([]monthlyResponse, 0, len(s.Monthly)),
		TopRooms: make([]topRoomResponse, 0, len(s.TopRooms)),
	}
	for st, n := range s.ByStatus {
		out.ByStatus[string(st)] = n
	}
	for _, m := range s.Monthly {
		out.Monthly = append(out.Monthly, monthlyResponse{Month: m.Month, Bookings: m.Bookings, Revenue: m.Revenue})
	}
	for _, r := range s.TopRooms {
		out.TopRooms = append(out.TopRooms, topRoomResponse(r))
	}
	return out
}
