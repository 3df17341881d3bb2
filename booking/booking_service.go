package booking

import (
	"context"
	"time"

	"github.com/roamnest/roamnest-backend/auth"
)

type BookingRepository interface {
	GetBookingByID(ctx context.Context, id int64) (Booking, error)
	GetBookingsForTraveler(ctx context.Context, travelerID int64) ([]Booking, error)
	GetBookingsForOwner(ctx context.Context, ownerID int64) ([]Booking, error)
	InsertBooking(ctx context.Context, booking Booking) (Booking, error)
	HasConflict(ctx context.Context, propertyID int64, candidate DateRange, blocking []Status, excludeBookingID int64) (bool, error)
	AcceptBooking(ctx context.Context, id int64) (Booking, error)
	CancelBooking(ctx context.Context, id int64) (Booking, error)
	GetOwnerStats(ctx context.Context, ownerID int64) (OwnerStats, error)
}

// PropertySnapshot is the immutable view of a property the booking core
// reads at request time. The catalog owns the full record.
type PropertySnapshot struct {
	ID            int64
	OwnerID       int64
	PricePerNight float64
	MaxGuests     int
	AvailableFrom time.Time
	AvailableTo   time.Time
}

type PropertyStore interface {
	GetPropertySnapshot(ctx context.Context, id int64) (PropertySnapshot, error)
}

type Service struct {
	repo       BookingRepository
	properties PropertyStore
}

func NewService(repo BookingRepository, properties PropertyStore) *Service {
	return &Service{repo: repo, properties: properties}
}

type CreateBookingParams struct {
	PropertyID int64
	Range      DateRange
	GuestCount int
}

func (s *Service) CreateBooking(ctx context.Context, travelerID int64, params CreateBookingParams) (Booking, error) {
	if !params.Range.Valid() {
		return Booking{}, ErrInvalidDateRange
	}

	property, err := s.properties.GetPropertySnapshot(ctx, params.PropertyID)

	if err != nil {
		return Booking{}, err
	}

	if params.GuestCount < 1 {
		return Booking{}, ErrInvalidGuestCount
	}

	if params.GuestCount > property.MaxGuests {
		return Booking{}, ErrCapacityExceeded
	}

	if params.Range.Start.Before(property.AvailableFrom) || params.Range.End.After(property.AvailableTo) {
		return Booking{}, ErrOutsideAvailability
	}

	conflict, err := s.repo.HasConflict(ctx, params.PropertyID, params.Range, []Status{StatusAccepted}, 0)

	if err != nil {
		return Booking{}, err
	}

	if conflict {
		return Booking{}, ErrDatesUnavailable
	}

	booking := Booking{
		PropertyID: params.PropertyID,
		TravelerID: travelerID,
		StartDate:  params.Range.Start,
		EndDate:    params.Range.End,
		GuestCount: params.GuestCount,
		// Computed once here, never recomputed on later price changes.
		TotalPrice: float64(Nights(params.Range)) * property.PricePerNight,
	}

	return s.repo.InsertBooking(ctx, booking)
}

// AcceptBooking authorizes the owner, then delegates to the repository,
// which re-runs the conflict check against accepted siblings in the same
// transaction as the status flip. The re-check is what makes the second of
// two racing accepts on overlapping pending bookings fail instead of
// double-booking the property.
func (s *Service) AcceptBooking(ctx context.Context, ownerID, id int64) (Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		return Booking{}, err
	}

	property, err := s.properties.GetPropertySnapshot(ctx, booking.PropertyID)

	if err != nil {
		return Booking{}, err
	}

	if property.OwnerID != ownerID {
		return Booking{}, ErrNotAllowed
	}

	return s.repo.AcceptBooking(ctx, id)
}

// CancelBooking is allowed for the booking's traveler and the property's
// owner, from any status except CANCELLED. No conflict check: cancelling
// only ever frees dates.
func (s *Service) CancelBooking(ctx context.Context, actor auth.Actor, id int64) (Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		return Booking{}, err
	}

	if err := s.authorizeActor(ctx, actor, booking); err != nil {
		return Booking{}, err
	}

	if booking.Status == StatusCancelled {
		return Booking{}, ErrAlreadyCancelled
	}

	return s.repo.CancelBooking(ctx, id)
}

func (s *Service) FindBookingForActor(ctx context.Context, actor auth.Actor, id int64) (Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)

	if err != nil {
		return Booking{}, err
	}

	if err := s.authorizeActor(ctx, actor, booking); err != nil {
		return Booking{}, err
	}

	return booking, nil
}

func (s *Service) BookingsForTraveler(ctx context.Context, travelerID int64) ([]Booking, error) {
	return s.repo.GetBookingsForTraveler(ctx, travelerID)
}

func (s *Service) BookingsForOwner(ctx context.Context, ownerID int64) ([]Booking, error) {
	return s.repo.GetBookingsForOwner(ctx, ownerID)
}

func (s *Service) OwnerStats(ctx context.Context, ownerID int64) (OwnerStats, error) {
	return s.repo.GetOwnerStats(ctx, ownerID)
}

func (s *Service) authorizeActor(ctx context.Context, actor auth.Actor, booking Booking) error {
	switch actor.Role {
	case auth.RoleTraveler:
		if booking.TravelerID != actor.ID {
			return ErrNotAllowed
		}
	case auth.RoleOwner:
		property, err := s.properties.GetPropertySnapshot(ctx, booking.PropertyID)

		if err != nil {
			return err
		}

		if property.OwnerID != actor.ID {
			return ErrNotAllowed
		}
	default:
		return ErrNotAllowed
	}

	return nil
}
