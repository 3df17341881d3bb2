package booking

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"

	// StatusCompleted is a read-time label for accepted bookings whose end
	// date has passed. It is never stored.
	StatusCompleted Status = "COMPLETED"
)

type Booking struct {
	ID          int64      `json:"id"`
	PropertyID  int64      `json:"propertyId"`
	TravelerID  int64      `json:"travelerId"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	GuestCount  int        `json:"guestCount"`
	TotalPrice  float64    `json:"totalPrice"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// PropertyName is filled by listing queries for dashboard views.
	PropertyName string `json:"propertyName,omitempty"`
}

func (b Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// DisplayStatus classifies an accepted booking whose stay is over as
// COMPLETED for read paths. The stored status is unchanged.
func (b Booking) DisplayStatus(now time.Time) Status {
	if b.Status == StatusAccepted && b.EndDate.Before(now) {
		return StatusCompleted
	}
	return b.Status
}

type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}

// Overlaps reports whether two date ranges share at least one calendar day.
// The boundary is inclusive: a range ending on a date conflicts with a range
// starting on that same date, so same-day checkout/checkin counts as a
// conflict. Every overlap decision in the system goes through this predicate
// or the matching SQL condition in the repository.
func Overlaps(a, b DateRange) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

func Nights(r DateRange) int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
