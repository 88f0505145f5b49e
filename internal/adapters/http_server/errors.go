package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// errorKinds maps domain errors to HTTP. First match wins.
var errorKinds = []struct {
	err    error
	status int
	title  string
	kind   string
}{
	{domain.ErrInvalidDateRange, http.StatusBadRequest, "Invalid Date Range", "invalid_date_range"},
	{domain.ErrCheckInInPast, http.StatusBadRequest, "Check-In In Past", "check_in_in_past"},
	{domain.ErrInvalidPriceInput, http.StatusBadRequest, "Invalid Price", "invalid_price"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "Invalid Status", "invalid_status"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "Invalid Input", "invalid_input"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized", "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden", "forbidden"},
	{domain.ErrRoomNotFound, http.StatusNotFound, "Room Not Found", "room_not_found"},
	{domain.ErrBookingNotFound, http.StatusNotFound, "Booking Not Found", "booking_not_found"},
	{domain.ErrRoomUnavailable, http.StatusConflict, "Room Unavailable", "room_unavailable"},
	{domain.ErrCapacityExceeded, http.StatusConflict, "Capacity Exceeded", "capacity_exceeded"},
	{domain.ErrTooLateToCancel, http.StatusConflict, "Too Late To Cancel", "too_late_to_cancel"},
	{domain.ErrInvalidTransition, http.StatusConflict, "Invalid Transition", "invalid_transition"},
	{domain.ErrRoomHasActiveBookings, http.StatusConflict, "Room Has Active Bookings", "room_has_active_bookings"},
	{domain.ErrDuplicateRoomNumber, http.StatusConflict, "Duplicate Room Number", "duplicate_room_number"},
}

// errorKind is a short label for metrics; "ok" for nil.
func errorKind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError translates a service error. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			writeProblem(w, k.status, k.title, err.Error())
			return
		}
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}
