package property

import (
	"context"
	"errors"

	"github.com/roamnest/roamnest-backend/booking"
)

var ErrMissingLocation = errors.New("location parameter is required")

type PropertyRepository interface {
	GetPropertyByID(ctx context.Context, id int64) (Property, error)
	SearchProperties(ctx context.Context, query SearchQuery) ([]Property, error)
}

// AvailabilityChecker is the booking core's read side: which properties have
// an accepted booking overlapping the requested dates.
type AvailabilityChecker interface {
	ConflictingPropertyIDs(ctx context.Context, candidate booking.DateRange) ([]int64, error)
}

type Service struct {
	repo    PropertyRepository
	checker AvailabilityChecker
}

func NewService(repo PropertyRepository, checker AvailabilityChecker) *Service {
	return &Service{repo: repo, checker: checker}
}

func (s *Service) FindPropertyByID(ctx context.Context, id int64) (Property, error) {
	return s.repo.GetPropertyByID(ctx, id)
}

type SearchParams struct {
	Location string
	Window   booking.DateRange
	Guests   int
}

// Search returns properties matching the location whose availability window
// covers the requested dates and which have no accepted booking overlapping
// them. With only one side of the window given, the overlap exclusion is
// skipped and only the window is constrained, matching the availability
// semantics of the catalog.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Property, error) {
	if len(params.Location) == 0 {
		return nil, ErrMissingLocation
	}

	if !params.Window.Start.IsZero() && !params.Window.End.IsZero() && !params.Window.Valid() {
		return nil, booking.ErrInvalidDateRange
	}

	query := SearchQuery{
		Location: params.Location,
		Window:   params.Window,
		Guests:   params.Guests,
	}

	if params.Window.Valid() {
		ids, err := s.checker.ConflictingPropertyIDs(ctx, params.Window)

		if err != nil {
			return nil, err
		}

		query.ExcludeIDs = ids
	}

	return s.repo.SearchProperties(ctx, query)
}
