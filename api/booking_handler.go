package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roamnest/roamnest-backend/auth"
	bk "github.com/roamnest/roamnest-backend/booking"
)

type BookingService interface {
	CreateBooking(ctx context.Context, travelerID int64, params bk.CreateBookingParams) (bk.Booking, error)
	AcceptBooking(ctx context.Context, ownerID, id int64) (bk.Booking, error)
	CancelBooking(ctx context.Context, actor auth.Actor, id int64) (bk.Booking, error)
	FindBookingForActor(ctx context.Context, actor auth.Actor, id int64) (bk.Booking, error)
	BookingsForTraveler(ctx context.Context, travelerID int64) ([]bk.Booking, error)
	BookingsForOwner(ctx context.Context, ownerID int64) ([]bk.Booking, error)
	OwnerStats(ctx context.Context, ownerID int64) (bk.OwnerStats, error)
}

type BookingHandler struct {
	service BookingService
}

func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(rg *gin.RouterGroup) {
	travelerOnly := RequireRole(auth.RoleTraveler)
	ownerOnly := RequireRole(auth.RoleOwner)

	rg.POST("/request", travelerOnly, h.Create)
	rg.GET("/traveler", travelerOnly, h.ListForTraveler)
	rg.PUT("/:id/cancel", travelerOnly, h.Cancel)

	rg.GET("/owner", ownerOnly, h.ListForOwner)
	rg.PUT("/owner/:id/accept", ownerOnly, h.Accept)
	rg.PUT("/owner/:id/cancel", ownerOnly, h.Cancel)

	rg.GET("/booking/:id", h.GetByID)
}

type createBookingRequest struct {
	PropertyID int64  `json:"propertyId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	GuestCount int    `json:"guestCount"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)

	var req createBookingRequest

	if err := c.BindJSON(&req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	end, err := time.Parse(time.DateOnly, req.EndDate)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), actor.ID, bk.CreateBookingParams{
		PropertyID: req.PropertyID,
		Range:      bk.DateRange{Start: start, End: end},
		GuestCount: req.GuestCount,
	})

	if err != nil {
		writeBookingError(c, err, "failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, presentBooking(booking))
}

func (h *BookingHandler) Accept(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)
	id, err := bookingID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.service.AcceptBooking(c.Request.Context(), actor.ID, id)

	if err != nil {
		writeBookingError(c, err, "failed to accept booking")
		return
	}

	c.IndentedJSON(http.StatusOK, presentBooking(booking))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)
	id, err := bookingID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), actor, id)

	if err != nil {
		writeBookingError(c, err, "failed to cancel booking")
		return
	}

	c.IndentedJSON(http.StatusOK, presentBooking(booking))
}

func (h *BookingHandler) GetByID(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)
	id, err := bookingID(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.service.FindBookingForActor(c.Request.Context(), actor, id)

	if err != nil {
		writeBookingError(c, err, "failed to fetch booking")
		return
	}

	c.IndentedJSON(http.StatusOK, presentBooking(booking))
}

func (h *BookingHandler) ListForTraveler(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)

	bookings, err := h.service.BookingsForTraveler(c.Request.Context(), actor.ID)

	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}

	c.IndentedJSON(http.StatusOK, presentBookings(bookings))
}

func (h *BookingHandler) ListForOwner(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)

	bookings, err := h.service.BookingsForOwner(c.Request.Context(), actor.ID)

	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve bookings"})
		return
	}

	c.IndentedJSON(http.StatusOK, presentBookings(bookings))
}

func (h *BookingHandler) OwnerAnalytics(c *gin.Context) {
	actor := c.MustGet("actor").(auth.Actor)

	stats, err := h.service.OwnerStats(c.Request.Context(), actor.ID)

	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.IndentedJSON(http.StatusOK, stats)
}

func bookingID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// presentBooking swaps in the derived COMPLETED label for read responses.
func presentBooking(b bk.Booking) bk.Booking {
	b.Status = b.DisplayStatus(time.Now())
	return b
}

func presentBookings(bookings []bk.Booking) []bk.Booking {
	out := make([]bk.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, presentBooking(b))
	}
	return out
}

func writeBookingError(c *gin.Context, err error, fallback string) {
	c.Error(err)

	switch {
	case errors.Is(err, bk.ErrBookingNotFound), errors.Is(err, bk.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bk.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, bk.ErrDatesUnavailable),
		errors.Is(err, bk.ErrAlreadyCancelled),
		errors.Is(err, bk.ErrInvalidBookingState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bk.ErrInvalidDateRange),
		errors.Is(err, bk.ErrInvalidGuestCount),
		errors.Is(err, bk.ErrCapacityExceeded),
		errors.Is(err, bk.ErrOutsideAvailability):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
