package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

var _ domain.Store = (*Repo)(nil)

// WithRoomLock opens a READ COMMITTED transaction and takes a row lock on the room
// before calling fn, so check-then-insert sequences on one room never interleave.
// Nested calls reuse the open transaction.
func (r *Repo) WithRoomLock(ctx context.Context, roomID int64, fn func(ctx context.Context, tx domain.Store) error) error {
	if r.tx != nil {
		if err := r.lockRoom(ctx, roomID); err != nil {
			return err
		}
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	txRepo := &Repo{db: r.db, q: tx, tx: tx}

	if err := txRepo.lockRoom(ctx, roomID); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := fn(ctx, txRepo); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *Repo) lockRoom(ctx context.Context, roomID int64) error {
	var id int64
	if err := r.q.QueryRowContext(ctx, lockRoomSQL, roomID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("locking room %d: %w", roomID, err)
	}
	return nil
}

// ---- rooms ----

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	res, err := r.q.ExecContext(ctx, insertRoomSQL,
		rm.Name,
		valStr(rm.Description),
		rm.Price,
		rm.Capacity,
		rm.Type,
		valJSON(rm.Amenities),
		valJSON(rm.Images),
		rm.Available,
		valInt(rm.Floor),
		rm.RoomNumber,
	)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == errDupEntry {
			return domain.Room{}, domain.ErrDuplicateRoomNumber
		}
		return domain.Room{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Room{}, err
	}
	return r.GetRoom(ctx, id)
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	rm, err := scanRoom(r.q.QueryRowContext(ctx, getRoomSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return rm, err
}

func (r *Repo) ListRooms(ctx context.Context, q domain.RoomsQuery) (domain.RoomsPage, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if q.Type != nil {
		where = append(where, "type = ?")
		args = append(args, *q.Type)
	}
	if q.MinCapacity != nil {
		where = append(where, "capacity >= ?")
		args = append(args, *q.MinCapacity)
	}
	if q.AvailableOnly {
		where = append(where, "is_available = TRUE")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms WHERE "+cond, args...).Scan(&total); err != nil {
		return domain.RoomsPage{}, err
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE "+cond+" ORDER BY room_number, id LIMIT ? OFFSET ?",
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return domain.RoomsPage{}, err
	}
	defer rows.Close()

	out := domain.RoomsPage{Total: total}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return domain.RoomsPage{}, err
		}
		out.Items = append(out.Items, rm)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteRoom(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, softDeleteRoomSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (r *Repo) CountActiveBookings(ctx context.Context, roomID int64, now time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, countActiveBookingsSQL, roomID, now).Scan(&n)
	return n, err
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	res, err := r.q.ExecContext(ctx, insertBookingSQL,
		b.Reference,
		b.RoomID,
		b.UserID,
		b.CheckIn,
		b.CheckOut,
		b.Adults,
		b.Children,
		b.TotalPrice,
		valStr(b.SpecialRequests),
		string(b.Status),
		string(b.PaymentStatus),
		valStr(b.PaymentMethod),
	)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("inserting booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, err
	}
	return r.GetBooking(ctx, id)
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, getBookingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *Repo) UpdateBookingStatus(ctx context.Context, id int64, s domain.BookingStatus) error {
	res, err := r.q.ExecContext(ctx, updateBookingStatusSQL, string(s), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *Repo) UpdatePayment(ctx context.Context, id int64, p domain.PaymentStatus, method *string) error {
	_, err := r.q.ExecContext(ctx, updatePaymentSQL, string(p), valStr(method), id)
	return err
}

func (r *Repo) ListBookings(ctx context.Context, q domain.BookingsQuery) (domain.BookingsPage, error) {
	where := []string{"1 = 1"}
	var args []any
	if q.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *q.UserID)
	}
	if q.RoomID != nil {
		where = append(where, "room_id = ?")
		args = append(args, *q.RoomID)
	}
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*q.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE "+cond, args...).Scan(&total); err != nil {
		return domain.BookingsPage{}, err
	}

	items, err := r.queryBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return domain.BookingsPage{}, err
	}
	return domain.BookingsPage{Items: items, Total: total}, nil
}

func (r *Repo) FindConflicting(ctx context.Context, roomID int64, dr domain.DateRange, statuses []domain.BookingStatus, turnover bool) ([]domain.Booking, error) {
	in, sargs := statusIn(statuses)
	args := append([]any{roomID}, sargs...)

	cond := conflictInclusiveSQL
	if turnover {
		cond = conflictTurnoverSQL
		args = append(args, dr.CheckOut, dr.CheckIn)
	} else {
		args = append(args,
			dr.CheckIn, dr.CheckOut,
			dr.CheckIn, dr.CheckOut,
			dr.CheckIn, dr.CheckOut,
		)
	}

	return r.queryBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE room_id = ? AND status IN ("+in+") AND "+cond+" ORDER BY check_in",
		args...,
	)
}

func (r *Repo) ListFinished(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	return r.queryBookings(ctx, listFinishedSQL, before, limit)
}

// ---- aggregates ----

func (r *Repo) CountBookings(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, countBookingsSQL).Scan(&n)
	return n, err
}

func (r *Repo) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	rows, err := r.q.QueryContext(ctx, countByStatusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.BookingStatus]int64{}
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[domain.BookingStatus(s)] = n
	}
	return out, rows.Err()
}

func (r *Repo) SumRevenue(ctx context.Context, statuses []domain.BookingStatus) (decimal.Decimal, error) {
	in, args := statusIn(statuses)
	var sum decimal.Decimal
	err := r.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE status IN ("+in+")", args...,
	).Scan(&sum)
	return sum, err
}

func (r *Repo) MonthlyStats(ctx context.Context, year int, statuses []domain.BookingStatus) ([]domain.MonthlyStat, error) {
	in, sargs := statusIn(statuses)
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(monthlyStatsSQL, in), append([]any{year}, sargs...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MonthlyStat
	for rows.Next() {
		var m domain.MonthlyStat
		if err := rows.Scan(&m.Month, &m.Bookings, &m.Revenue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) TopRooms(ctx context.Context, statuses []domain.BookingStatus, limit int) ([]domain.RoomStat, error) {
	in, sargs := statusIn(statuses)
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(topRoomsSQL, in), append(sargs, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomStat
	for rows.Next() {
		var rs domain.RoomStat
		if err := rows.Scan(&rs.RoomID, &rs.RoomName, &rs.RoomNumber, &rs.Bookings); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// ---- scanning ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var rm domain.Room
	var desc sql.NullString
	var floor sql.NullInt64
	var amenitiesJSON, imagesJSON []byte
	if err := row.Scan(
		&rm.ID,
		&rm.Name,
		&desc,
		&rm.Price,
		&rm.Capacity,
		&rm.Type,
		&amenitiesJSON,
		&imagesJSON,
		&rm.Available,
		&floor,
		&rm.RoomNumber,
		&rm.CreatedAt,
		&rm.UpdatedAt,
	); err != nil {
		return domain.Room{}, err
	}
	if desc.Valid {
		d := desc.String
		rm.Description = &d
	}
	if floor.Valid {
		f := int(floor.Int64)
		rm.Floor = &f
	}
	_ = json.Unmarshal(amenitiesJSON, &rm.Amenities)
	_ = json.Unmarshal(imagesJSON, &rm.Images)
	return rm, nil
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var status, payment string
	var requests, method sql.NullString
	if err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.RoomID,
		&b.UserID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Adults,
		&b.Children,
		&b.TotalPrice,
		&requests,
		&status,
		&payment,
		&method,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(payment)
	if requests.Valid {
		s := requests.String
		b.SpecialRequests = &s
	}
	if method.Valid {
		s := method.String
		b.PaymentMethod = &s
	}
	return b, nil
}

func (r *Repo) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// statusIn returns "?, ?" placeholders and their args for an IN clause.
func statusIn(statuses []domain.BookingStatus) (string, []any) {
	ph := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		ph[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(ph, ", "), args
}
