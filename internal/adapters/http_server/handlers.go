// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	Bookings *app.BookingService
	Rooms    *app.RoomService
	Stats    *app.StatsService
	Auth     TokenVerifier
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/rooms", h.listRooms)
		r.Get("/rooms/{id}", h.getRoom)
		r.Get("/rooms/{id}/availability", h.roomAvailability)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.Auth))
			r.Post("/bookings", h.createBooking)
			r.Get("/bookings", h.listBookings)
			r.Get("/bookings/{id}", h.getBooking)
			r.Post("/bookings/{id}/cancel", h.cancelBooking)

			r.Group(func(r chi.Router) {
				r.Use(RequireStaff)
				r.Post("/rooms", h.createRoom)
				r.Delete("/rooms/{id}", h.deleteRoom)
				r.Patch("/bookings/{id}/status", h.updateBookingStatus)
				r.Patch("/bookings/{id}/payment", h.updatePayment)
				r.Get("/stats/bookings", h.bookingStats)
			})
		})
	})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with a weak ETag, answering 304 when the client already has it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter within [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func actor(r *http.Request) domain.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeBody(w, r, &req); err != nil {
		observability.ObserveBooking("create", errorKind(err))
		writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		observability.ObserveBooking("create", errorKind(err))
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.CreateBooking(r.Context(), actor(r), in)
	observability.ObserveBooking("create", errorKind(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+strconv.FormatInt(b.ID, 10))
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.GetBookingByID(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, toBookingResponse(b))
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 50, 1, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}
	offset, ok := queryInt(r, "offset", 0, 0, 1<<30)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
		return
	}
	q := domain.BookingsQuery{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.BookingStatus(s)
		q.Status = &st
	}
	if v := r.URL.Query().Get("room_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid room_id", "room_id must be a number")
			return
		}
		q.RoomID = &id
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid user_id", "user_id must be a number")
			return
		}
		q.UserID = &id
	}

	page, err := h.Bookings.ListBookings(r.Context(), actor(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := pageResponse[bookingResponse]{Items: make([]bookingResponse, 0, len(page.Items)), Total: page.Total, Limit: limit, Offset: offset}
	for _, b := range page.Items {
		out.Items = append(out.Items, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.CancelBooking(r.Context(), id, actor(r))
	observability.ObserveBooking("cancel", errorKind(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handlers) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.UpdateBookingStatus(r.Context(), id, domain.BookingStatus(req.Status), actor(r))
	observability.ObserveBooking("status", errorKind(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handlers) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.UpdatePayment(r.Context(), id, domain.PaymentStatus(req.PaymentStatus), req.PaymentMethod, actor(r))
	observability.ObserveBooking("payment", errorKind(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 50, 1, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}
	offset, ok := queryInt(r, "offset", 0, 0, 1<<30)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
		return
	}
	q := domain.RoomsQuery{Limit: limit, Offset: offset, AvailableOnly: r.URL.Query().Get("available") == "true"}
	if t := r.URL.Query().Get("type"); t != "" {
		q.Type = &t
	}
	if _, set := r.URL.Query()["guests"]; set {
		n, ok := queryInt(r, "guests", 1, 1, 100)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid guests", "guests must be an integer between 1 and 100")
			return
		}
		q.MinCapacity = &n
	}

	page, err := h.Rooms.ListRooms(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := pageResponse[roomResponse]{Items: make([]roomResponse, 0, len(page.Items)), Total: page.Total, Limit: limit, Offset: offset}
	for _, rm := range page.Items {
		out.Items = append(out.Items, toRoomResponse(rm))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rm, err := h.Rooms.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, toRoomResponse(rm))
}

func (h *Handlers) roomAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := parseDate(r.URL.Query().Get("check_in"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := parseDate(r.URL.Query().Get("check_out"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.Bookings.Quote(r.Context(), id, in, out)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		RoomID:    id,
		CheckIn:   in,
		CheckOut:  out,
		Available: q.Available,
		Nights:    q.Nights,
		Total:     q.Total,
	})
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rm, err := h.Rooms.CreateRoom(r.Context(), actor(r), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/rooms/"+strconv.FormatInt(rm.ID, 10))
	writeJSON(w, http.StatusCreated, toRoomResponse(rm))
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Rooms.DeleteRoom(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- stats ----

func (h *Handlers) bookingStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stats.BookingStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(s))
}
