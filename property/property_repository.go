package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roamnest/roamnest-backend/booking"
)

const sqlPropertyColumns = `p.id, p.owner_id, p.name, p.type, p.location, p.city, p.state, p.country,
            p.description, p.image_url, p.price_per_night, p.max_guests, p.available_from, p.available_to, p.created_at`

type Repository struct{ pool *pgxpool.Pool }

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProperty(row pgx.Row) (Property, error) {
	var property Property
	err := row.Scan(
		&property.ID,
		&property.OwnerID,
		&property.Name,
		&property.Type,
		&property.Location,
		&property.City,
		&property.State,
		&property.Country,
		&property.Description,
		&property.ImageURL,
		&property.PricePerNight,
		&property.MaxGuests,
		&property.AvailableFrom,
		&property.AvailableTo,
		&property.CreatedAt,
	)
	return property, err
}

func (r *Repository) GetPropertyByID(ctx context.Context, id int64) (Property, error) {
	sql := `
			SELECT ` + sqlPropertyColumns + `
			FROM properties p
			WHERE p.id=$1;
		`

	property, err := scanProperty(r.pool.QueryRow(ctx, sql, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, booking.ErrPropertyNotFound
	}

	if err != nil {
		return Property{}, fmt.Errorf("failed to fetch property with id %v: %w", id, err)
	}

	return property, nil
}

// GetPropertySnapshot adapts the catalog record to the read contract the
// booking core depends on.
func (r *Repository) GetPropertySnapshot(ctx context.Context, id int64) (booking.PropertySnapshot, error) {
	property, err := r.GetPropertyByID(ctx, id)

	if err != nil {
		return booking.PropertySnapshot{}, err
	}

	return booking.PropertySnapshot{
		ID:            property.ID,
		OwnerID:       property.OwnerID,
		PricePerNight: property.PricePerNight,
		MaxGuests:     property.MaxGuests,
		AvailableFrom: property.AvailableFrom,
		AvailableTo:   property.AvailableTo,
	}, nil
}

type SearchQuery struct {
	Location   string
	Window     booking.DateRange // zero Start/End leave that side unconstrained
	Guests     int
	ExcludeIDs []int64
}

// SearchProperties filters by location text, availability window and
// capacity. Date-conflict exclusion arrives pre-computed in ExcludeIDs so
// the overlap predicate stays defined in one place, in the booking
// repository.
func (r *Repository) SearchProperties(ctx context.Context, query SearchQuery) ([]Property, error) {
	var conditions []string
	args := []any{"%" + query.Location + "%"}

	conditions = append(conditions, `(p.city ILIKE $1 OR p.country ILIKE $1 OR p.location ILIKE $1)`)

	start, end := query.Window.Start, query.Window.End

	switch {
	case !start.IsZero() && !end.IsZero():
		args = append(args, start, end)
		conditions = append(conditions, fmt.Sprintf(`p.available_from <= $%d AND p.available_to >= $%d`, len(args)-1, len(args)))
	case !start.IsZero():
		args = append(args, start)
		conditions = append(conditions, fmt.Sprintf(`p.available_to >= $%d`, len(args)))
	case !end.IsZero():
		args = append(args, end)
		conditions = append(conditions, fmt.Sprintf(`p.available_from <= $%d`, len(args)))
	}

	if len(query.ExcludeIDs) > 0 {
		args = append(args, query.ExcludeIDs)
		conditions = append(conditions, fmt.Sprintf(`NOT (p.id = ANY($%d))`, len(args)))
	}

	if query.Guests > 0 {
		args = append(args, query.Guests)
		conditions = append(conditions, fmt.Sprintf(`p.max_guests >= $%d`, len(args)))
	}

	sql := `
			SELECT ` + sqlPropertyColumns + `
			FROM properties p
			WHERE ` + strings.Join(conditions, "\n			AND ") + `
			ORDER BY p.created_at DESC;
		`

	rows, err := r.pool.Query(ctx, sql, args...)

	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}

	defer rows.Close()

	var properties []Property

	for rows.Next() {
		property, err := scanProperty(rows)

		if err != nil {
			return nil, fmt.Errorf("error scanning property row: %w", err)
		}

		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return properties, nil
}
