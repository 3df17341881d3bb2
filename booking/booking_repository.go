package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sqlOverlap is the one SQL rendering of the Overlaps predicate. Both the
// conflict check and the search exclusion query below use it; no other
// overlap condition may appear in any query.
const sqlOverlap = `b.start_date <= @endDate AND b.end_date >= @startDate`

const sqlBookingColumns = `b.id, b.property_id, b.traveler_id, b.start_date, b.end_date,
            b.guest_count, b.total_price, b.status, b.created_at, b.accepted_at, b.cancelled_at`

type Repository struct{ pool *pgxpool.Pool }

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier lets the same queries run on the pool and inside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanBooking(row pgx.Row) (Booking, error) {
	var booking Booking
	err := row.Scan(
		&booking.ID,
		&booking.PropertyID,
		&booking.TravelerID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.GuestCount,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.AcceptedAt,
		&booking.CancelledAt,
	)
	return booking, err
}

func (r *Repository) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	sql := `
			SELECT ` + sqlBookingColumns + `
			FROM bookings b
			WHERE b.id=$1;
		`

	booking, err := scanBooking(r.pool.QueryRow(ctx, sql, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	}

	if err != nil {
		return Booking{}, fmt.Errorf("failed to fetch booking with id %v: %w", id, err)
	}

	return booking, nil
}

func (r *Repository) GetBookingsForTraveler(ctx context.Context, travelerID int64) ([]Booking, error) {
	sql := `
            SELECT ` + sqlBookingColumns + `, p.name
            FROM bookings b
            JOIN properties p ON p.id = b.property_id
            WHERE b.traveler_id=$1
            ORDER BY b.created_at DESC;
        `

	return r.queryBookingsWithProperty(ctx, sql, travelerID)
}

func (r *Repository) GetBookingsForOwner(ctx context.Context, ownerID int64) ([]Booking, error) {
	sql := `
            SELECT ` + sqlBookingColumns + `, p.name
            FROM bookings b
            JOIN properties p ON p.id = b.property_id
            WHERE p.owner_id=$1
            ORDER BY b.created_at DESC;
        `

	return r.queryBookingsWithProperty(ctx, sql, ownerID)
}

func (r *Repository) queryBookingsWithProperty(ctx context.Context, sql string, arg any) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, sql, arg)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}

	defer rows.Close()

	var bookings []Booking

	for rows.Next() {
		var booking Booking
		err := rows.Scan(
			&booking.ID,
			&booking.PropertyID,
			&booking.TravelerID,
			&booking.StartDate,
			&booking.EndDate,
			&booking.GuestCount,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.AcceptedAt,
			&booking.CancelledAt,
			&booking.PropertyName,
		)

		if err != nil {
			return nil, fmt.Errorf("error scanning booking row: %w", err)
		}

		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings rows: %w", err)
	}

	return bookings, nil
}

func (r *Repository) InsertBooking(ctx context.Context, booking Booking) (Booking, error) {
	sql := `
			INSERT INTO bookings(
			property_id, traveler_id, start_date, end_date, guest_count, total_price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at;
		`

	err := r.pool.QueryRow(ctx, sql,
		booking.PropertyID,
		booking.TravelerID,
		booking.StartDate,
		booking.EndDate,
		booking.GuestCount,
		booking.TotalPrice,
		StatusPending,
	).Scan(&booking.ID, &booking.CreatedAt)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to insert booking: %w", err)
	}

	booking.Status = StatusPending

	return booking, nil
}

// HasConflict reports whether any booking for the property in one of the
// blocking statuses overlaps the candidate range. excludeBookingID, when
// non-zero, removes a booking from the comparison so it does not conflict
// with itself at accept time.
func (r *Repository) HasConflict(ctx context.Context, propertyID int64, candidate DateRange, blocking []Status, excludeBookingID int64) (bool, error) {
	return hasConflict(ctx, r.pool, propertyID, candidate, blocking, excludeBookingID)
}

func hasConflict(ctx context.Context, q querier, propertyID int64, candidate DateRange, blocking []Status, excludeBookingID int64) (bool, error) {
	sql := `
			SELECT EXISTS (
				SELECT 1 FROM bookings b
				WHERE b.property_id = @propertyId
				AND b.status = ANY(@blocking)
				AND b.id <> @excludeId
				AND ` + sqlOverlap + `
			);
		`

	statuses := make([]string, 0, len(blocking))
	for _, status := range blocking {
		statuses = append(statuses, string(status))
	}

	var conflict bool
	err := q.QueryRow(ctx, sql, pgx.NamedArgs{
		"propertyId": propertyID,
		"blocking":   statuses,
		"excludeId":  excludeBookingID,
		"startDate":  candidate.Start,
		"endDate":    candidate.End,
	}).Scan(&conflict)

	if err != nil {
		return false, fmt.Errorf("failed to check booking conflicts for property %v: %w", propertyID, err)
	}

	return conflict, nil
}

// ConflictingPropertyIDs returns the ids of properties that have an accepted
// booking overlapping the range. The search filter excludes these from its
// results.
func (r *Repository) ConflictingPropertyIDs(ctx context.Context, candidate DateRange) ([]int64, error) {
	sql := `
			SELECT DISTINCT b.property_id FROM bookings b
			WHERE b.status = @blocking
			AND ` + sqlOverlap + `;
		`

	rows, err := r.pool.Query(ctx, sql, pgx.NamedArgs{
		"blocking":  string(StatusAccepted),
		"startDate": candidate.Start,
		"endDate":   candidate.End,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to fetch conflicting property ids: %w", err)
	}

	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan property id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property id rows: %w", err)
	}

	return ids, nil
}

// AcceptBooking flips a pending booking to accepted. The conflict re-check
// and the status write run in one transaction with the booking row and its
// property row locked, so two accepts racing on overlapping pending bookings
// serialize and the loser fails with ErrDatesUnavailable.
func (r *Repository) AcceptBooking(ctx context.Context, id int64) (Booking, error) {
	tx, err := r.pool.Begin(ctx)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to begin accept transaction: %w", err)
	}

	defer tx.Rollback(ctx)

	sql := `
			SELECT ` + sqlBookingColumns + `
			FROM bookings b
			WHERE b.id=$1
			FOR UPDATE;
		`

	booking, err := scanBooking(tx.QueryRow(ctx, sql, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	}

	if err != nil {
		return Booking{}, fmt.Errorf("failed to fetch booking with id %v: %w", id, err)
	}

	var propertyID int64
	err = tx.QueryRow(ctx, `SELECT id FROM properties WHERE id=$1 FOR UPDATE;`, booking.PropertyID).Scan(&propertyID)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to lock property %v: %w", booking.PropertyID, err)
	}

	if booking.Status != StatusPending {
		return Booking{}, ErrInvalidBookingState
	}

	conflict, err := hasConflict(ctx, tx, booking.PropertyID, booking.Range(), []Status{StatusAccepted}, booking.ID)

	if err != nil {
		return Booking{}, err
	}

	if conflict {
		return Booking{}, ErrDatesUnavailable
	}

	err = tx.QueryRow(ctx, `
			UPDATE bookings
			SET status=$1, accepted_at=now()
			WHERE id=$2
			RETURNING accepted_at;
		`, StatusAccepted, id).Scan(&booking.AcceptedAt)

	if err != nil {
		return Booking{}, fmt.Errorf("failed to accept booking '%v': %w", id, err)
	}

	booking.Status = StatusAccepted

	if err := tx.Commit(ctx); err != nil {
		return Booking{}, fmt.Errorf("failed to commit accept transaction: %w", err)
	}

	return booking, nil
}

// CancelBooking marks a booking cancelled. Cancellation is terminal and
// never re-checked for conflicts since a cancelled booking blocks nothing.
func (r *Repository) CancelBooking(ctx context.Context, id int64) (Booking, error) {
	sql := `
			UPDATE bookings b
			SET status=$1, cancelled_at=now()
			WHERE b.id=$2 AND b.status <> $1
			RETURNING ` + sqlBookingColumns + `;
		`

	booking, err := scanBooking(r.pool.QueryRow(ctx, sql, StatusCancelled, id))

	if errors.Is(err, pgx.ErrNoRows) {
		// Either the booking is gone or a concurrent cancel got there first.
		if _, getErr := r.GetBookingByID(ctx, id); getErr != nil {
			return Booking{}, getErr
		}
		return Booking{}, ErrAlreadyCancelled
	}

	if err != nil {
		return Booking{}, fmt.Errorf("failed to cancel booking '%v': %w", id, err)
	}

	return booking, nil
}

type PropertyBookingCount struct {
	PropertyID int64  `json:"propertyId"`
	Name       string `json:"name"`
	Count      int    `json:"bookingCount"`
}

type OwnerStats struct {
	TotalRevenue  float64               `json:"totalRevenue"`
	TotalBookings int                   `json:"totalBookings"`
	TopProperty   *PropertyBookingCount `json:"topProperty"`
}

// GetOwnerStats aggregates accepted bookings across the owner's properties.
func (r *Repository) GetOwnerStats(ctx context.Context, ownerID int64) (OwnerStats, error) {
	sql := `
		SELECT COALESCE(SUM(b.total_price), 0), COUNT(b.id)
		FROM bookings b
		JOIN properties p ON p.id = b.property_id
		WHERE p.owner_id=$1 AND b.status=$2;
	`

	var stats OwnerStats
	err := r.pool.QueryRow(ctx, sql, ownerID, StatusAccepted).Scan(&stats.TotalRevenue, &stats.TotalBookings)

	if err != nil {
		return OwnerStats{}, fmt.Errorf("failed to fetch owner booking totals: %w", err)
	}

	topSQL := `
		SELECT p.id, p.name, COUNT(*) as booking_count
		FROM bookings b
		JOIN properties p ON p.id = b.property_id
		WHERE p.owner_id=$1 AND b.status=$2
		GROUP BY p.id, p.name
		ORDER BY booking_count DESC
		LIMIT 1;
	`

	var top PropertyBookingCount
	err = r.pool.QueryRow(ctx, topSQL, ownerID, StatusAccepted).Scan(&top.PropertyID, &top.Name, &top.Count)

	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}

	if err != nil {
		return OwnerStats{}, fmt.Errorf("failed to fetch top property: %w", err)
	}

	stats.TopProperty = &top

	return stats, nil
}
