package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roamnest/roamnest-backend/api"
	"github.com/roamnest/roamnest-backend/api/mocks"
	"github.com/roamnest/roamnest-backend/auth"
	bk "github.com/roamnest/roamnest-backend/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupBookingRouter mounts the booking routes behind a stub middleware that
// injects the actor directly, bypassing session resolution.
func setupBookingRouter(t *testing.T, service api.BookingService, actor auth.Actor) *gin.Engine {
	t.Helper()
	r := gin.New()

	group := r.Group("/api/v1/bookings")
	group.Use(func(c *gin.Context) {
		c.Set("actor", actor)
	})
	api.NewBookingHandler(service).Register(group)

	return r
}

func perform(r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader

	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)
	return parsed
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

var traveler = auth.Actor{ID: 7, Role: auth.RoleTraveler}
var owner = auth.Actor{ID: 10, Role: auth.RoleOwner}

func TestCreateBookingEndpoint(t *testing.T) {
	request := gin.H{
		"propertyId": 1,
		"startDate":  "2025-08-01",
		"endDate":    "2025-08-04",
		"guestCount": 2,
	}

	t.Run("created", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().CreateBooking(gomock.Any(), int64(7), bk.CreateBookingParams{
			PropertyID: 1,
			Range:      bk.DateRange{Start: day(t, "2025-08-01"), End: day(t, "2025-08-04")},
			GuestCount: 2,
		}).Return(bk.Booking{ID: 42, Status: bk.StatusPending, TotalPrice: 300}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPost, "/api/v1/bookings/request", request)

		require.Equal(t, http.StatusCreated, w.Code)

		var created bk.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, int64(42), created.ID)
		assert.Equal(t, bk.StatusPending, created.Status)
	})

	t.Run("owner role is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		w := perform(setupBookingRouter(t, service, owner), http.MethodPost, "/api/v1/bookings/request", request)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		bad := gin.H{"propertyId": 1, "startDate": "01/08/2025", "endDate": "2025-08-04", "guestCount": 2}
		w := perform(setupBookingRouter(t, service, traveler), http.MethodPost, "/api/v1/bookings/request", bad)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid date format, use YYYY-MM-DD", errorBody(t, w))
	})

	serviceErrors := []struct {
		name   string
		err    error
		status int
	}{
		{"dates unavailable", bk.ErrDatesUnavailable, http.StatusConflict},
		{"invalid range", bk.ErrInvalidDateRange, http.StatusBadRequest},
		{"capacity exceeded", bk.ErrCapacityExceeded, http.StatusBadRequest},
		{"outside availability", bk.ErrOutsideAvailability, http.StatusBadRequest},
		{"property not found", bk.ErrPropertyNotFound, http.StatusNotFound},
	}

	for _, tc := range serviceErrors {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			service := mocks.NewMockBookingService(ctrl)

			service.EXPECT().CreateBooking(gomock.Any(), int64(7), gomock.Any()).Return(bk.Booking{}, tc.err).Times(1)

			w := perform(setupBookingRouter(t, service, traveler), http.MethodPost, "/api/v1/bookings/request", request)

			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.err.Error(), errorBody(t, w))
		})
	}
}

func TestAcceptBookingEndpoint(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().AcceptBooking(gomock.Any(), int64(10), int64(5)).
			Return(bk.Booking{ID: 5, Status: bk.StatusAccepted}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, owner), http.MethodPut, "/api/v1/bookings/owner/5/accept", nil)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("traveler role is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPut, "/api/v1/bookings/owner/5/accept", nil)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	serviceErrors := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", bk.ErrBookingNotFound, http.StatusNotFound},
		{"not the property owner", bk.ErrNotAllowed, http.StatusForbidden},
		{"conflicting accepted booking", bk.ErrDatesUnavailable, http.StatusConflict},
		{"not pending", bk.ErrInvalidBookingState, http.StatusConflict},
	}

	for _, tc := range serviceErrors {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			service := mocks.NewMockBookingService(ctrl)

			service.EXPECT().AcceptBooking(gomock.Any(), int64(10), int64(5)).Return(bk.Booking{}, tc.err).Times(1)

			w := perform(setupBookingRouter(t, service, owner), http.MethodPut, "/api/v1/bookings/owner/5/accept", nil)

			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestCancelBookingEndpoint(t *testing.T) {
	t.Run("traveler cancels", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().CancelBooking(gomock.Any(), traveler, int64(5)).
			Return(bk.Booking{ID: 5, Status: bk.StatusCancelled}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPut, "/api/v1/bookings/5/cancel", nil)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("owner cancels", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().CancelBooking(gomock.Any(), owner, int64(5)).
			Return(bk.Booking{ID: 5, Status: bk.StatusCancelled}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, owner), http.MethodPut, "/api/v1/bookings/owner/5/cancel", nil)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().CancelBooking(gomock.Any(), traveler, int64(5)).Return(bk.Booking{}, bk.ErrAlreadyCancelled).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPut, "/api/v1/bookings/5/cancel", nil)

		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("someone else's booking", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().CancelBooking(gomock.Any(), traveler, int64(5)).Return(bk.Booking{}, bk.ErrNotAllowed).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPut, "/api/v1/bookings/5/cancel", nil)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodPut, "/api/v1/bookings/abc/cancel", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetBookingEndpoint(t *testing.T) {
	t.Run("completed status is derived on read", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		past := bk.Booking{
			ID:        5,
			StartDate: day(t, "2024-01-01"),
			EndDate:   day(t, "2024-01-05"),
			Status:    bk.StatusAccepted,
		}
		service.EXPECT().FindBookingForActor(gomock.Any(), traveler, int64(5)).Return(past, nil).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodGet, "/api/v1/bookings/booking/5", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var got bk.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, bk.StatusCompleted, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().FindBookingForActor(gomock.Any(), traveler, int64(5)).Return(bk.Booking{}, bk.ErrBookingNotFound).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodGet, "/api/v1/bookings/booking/5", nil)

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListBookingsEndpoints(t *testing.T) {
	t.Run("traveler list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().BookingsForTraveler(gomock.Any(), int64(7)).
			Return([]bk.Booking{{ID: 1, Status: bk.StatusPending}, {ID: 2, Status: bk.StatusCancelled}}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, traveler), http.MethodGet, "/api/v1/bookings/traveler", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var got []bk.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("owner list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockBookingService(ctrl)

		service.EXPECT().BookingsForOwner(gomock.Any(), int64(10)).Return([]bk.Booking{}, nil).Times(1)

		w := perform(setupBookingRouter(t, service, owner), http.MethodGet, "/api/v1/bookings/owner", nil)

		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSessionAuthMiddleware(t *testing.T) {
	setupProtected := func(t *testing.T, client auth.AuthClient) *gin.Engine {
		t.Helper()
		r := gin.New()
		r.GET("/protected", api.SessionAuth(client), func(c *gin.Context) {
			actor := c.MustGet("actor").(auth.Actor)
			c.JSON(http.StatusOK, actor)
		})
		return r
	}

	t.Run("missing token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		client := mocks.NewMockAuthClient(ctrl)

		w := perform(setupProtected(t, client), http.MethodGet, "/protected", nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		client := mocks.NewMockAuthClient(ctrl)

		client.EXPECT().ResolveSession(gomock.Any(), "bad-token").Return(auth.Actor{}, auth.ErrInvalidSession).Times(1)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("sessiontoken", "bad-token")
		w := httptest.NewRecorder()
		setupProtected(t, client).ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token resolves the actor", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		client := mocks.NewMockAuthClient(ctrl)

		client.EXPECT().ResolveSession(gomock.Any(), "good-token").Return(traveler, nil).Times(1)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("sessiontoken", "good-token")
		w := httptest.NewRecorder()
		setupProtected(t, client).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var got auth.Actor
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, traveler, got)
	})
}
