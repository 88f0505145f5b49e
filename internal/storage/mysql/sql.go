package mysql

const roomColumns = `id, name, description, price, capacity, type, amenities, images, is_available, floor, room_number, created_at, updated_at`

const bookingColumns = `id, reference, room_id, user_id, check_in, check_out, adults, children, total_price,
  special_requests, status, payment_status, payment_method, created_at, updated_at`

const insertRoomSQL = `
INSERT INTO rooms
  (name, description, price, capacity, type, amenities, images, is_available, floor, room_number)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getRoomSQL = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? AND deleted_at IS NULL`

// Locks the room row, deleted or not, for the rest of the transaction.
const lockRoomSQL = `SELECT id FROM rooms WHERE id = ? FOR UPDATE`

const softDeleteRoomSQL = `UPDATE rooms SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`

const countActiveBookingsSQL = `
SELECT COUNT(*)
FROM bookings
WHERE room_id = ?
  AND status IN ('pending', 'confirmed')
  AND check_out > ?
`

const insertBookingSQL = `
INSERT INTO bookings
  (reference, room_id, user_id, check_in, check_out, adults, children, total_price,
   special_requests, status, payment_status, payment_method)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

const updateBookingStatusSQL = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

const updatePaymentSQL = `
UPDATE bookings
SET payment_status = ?,
    payment_method = COALESCE(?, payment_method),
    updated_at     = CURRENT_TIMESTAMP
WHERE id = ?
`

// Inclusive on both bounds: a stay ending the day the candidate begins conflicts.
// Placeholders: candidate in/out twice, then in/out for the enclosing check.
const conflictInclusiveSQL = `
(
     (check_in  BETWEEN ? AND ?)
  OR (check_out BETWEEN ? AND ?)
  OR (check_in <= ? AND check_out >= ?)
)`

// Half-open ranges; same-day turnover allowed. Placeholders: candidate out, candidate in.
const conflictTurnoverSQL = `(check_in < ? AND check_out > ?)`

const listFinishedSQL = `SELECT ` + bookingColumns + `
FROM bookings
WHERE status = 'confirmed' AND check_out < ?
ORDER BY check_out, id
LIMIT ?
`

// -----------------------------------------------------------------------------
// AGGREGATES
// -----------------------------------------------------------------------------

const countBookingsSQL = `SELECT COUNT(*) FROM bookings`

const countByStatusSQL = `SELECT status, COUNT(*) FROM bookings GROUP BY status`

// Buckets by check-in month so revenue lands where the stay starts.
const monthlyStatsSQL = `
SELECT MONTH(check_in) AS m, COUNT(*), COALESCE(SUM(total_price), 0)
FROM bookings
WHERE YEAR(check_in) = ? AND status IN (%s)
GROUP BY m
ORDER BY m
`

const topRoomsSQL = `
SELECT r.id, r.name, r.room_number, COUNT(b.id) AS n
FROM bookings b
JOIN rooms r ON r.id = b.room_id
WHERE b.status IN (%s)
GROUP BY r.id, r.name, r.room_number
ORDER BY n DESC, r.id
LIMIT ?
`
