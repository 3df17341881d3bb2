package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/roamnest/roamnest-backend/api"
	"github.com/roamnest/roamnest-backend/api/mocks"
	bk "github.com/roamnest/roamnest-backend/booking"
	"github.com/roamnest/roamnest-backend/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupPropertyRouter(t *testing.T, service api.PropertyService) *gin.Engine {
	t.Helper()
	r := gin.New()
	api.NewPropertyHandler(service).Register(r.Group("/api/properties"))
	return r
}

func TestSearchEndpoint(t *testing.T) {

	t.Run("full query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		service.EXPECT().Search(gomock.Any(), property.SearchParams{
			Location: "Lisbon",
			Window:   bk.DateRange{Start: day(t, "2025-07-01"), End: day(t, "2025-07-05")},
			Guests:   2,
		}).Return([]property.Property{{ID: 1}, {ID: 2}}, nil).Times(1)

		w := perform(setupPropertyRouter(t, service), http.MethodGet,
			"/api/properties/search?location=Lisbon&startDate=2025-07-01&endDate=2025-07-05&guests=2", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Count      int                 `json:"count"`
			Properties []property.Property `json:"properties"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
		assert.Len(t, body.Properties, 2)
	})

	t.Run("missing location", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		service.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, property.ErrMissingLocation).Times(1)

		w := perform(setupPropertyRouter(t, service), http.MethodGet, "/api/properties/search", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed startDate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		w := perform(setupPropertyRouter(t, service), http.MethodGet,
			"/api/properties/search?location=Lisbon&startDate=01-07-2025", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inverted window", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		service.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, bk.ErrInvalidDateRange).Times(1)

		w := perform(setupPropertyRouter(t, service), http.MethodGet,
			"/api/properties/search?location=Lisbon&startDate=2025-07-05&endDate=2025-07-01", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetPropertyEndpoint(t *testing.T) {

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		service.EXPECT().FindPropertyByID(gomock.Any(), int64(3)).Return(property.Property{ID: 3, City: "Lisbon"}, nil).Times(1)

		w := perform(setupPropertyRouter(t, service), http.MethodGet, "/api/properties/3", nil)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		service.EXPECT().FindPropertyByID(gomock.Any(), int64(3)).Return(property.Property{}, bk.ErrPropertyNotFound).Times(1)

		w := perform(setupPropertyRouter(t, service), http.MethodGet, "/api/properties/3", nil)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service := mocks.NewMockPropertyService(ctrl)

		w := perform(setupPropertyRouter(t, service), http.MethodGet, "/api/properties/abc", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
