package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	bk "github.com/roamnest/roamnest-backend/booking"
	"github.com/roamnest/roamnest-backend/property"
)

type PropertyService interface {
	FindPropertyByID(ctx context.Context, id int64) (property.Property, error)
	Search(ctx context.Context, params property.SearchParams) ([]property.Property, error)
}

type PropertyHandler struct {
	service PropertyService
}

func NewPropertyHandler(service PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

func (h *PropertyHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/search", h.Search)
	rg.GET("/:id", h.GetByID)
}

func (h *PropertyHandler) Search(c *gin.Context) {
	params := property.SearchParams{Location: c.Query("location")}

	if startQuery := c.Query("startDate"); len(startQuery) != 0 {
		start, err := time.Parse(time.DateOnly, startQuery)

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, use YYYY-MM-DD"})
			return
		}

		params.Window.Start = start
	}

	if endQuery := c.Query("endDate"); len(endQuery) != 0 {
		end, err := time.Parse(time.DateOnly, endQuery)

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate, use YYYY-MM-DD"})
			return
		}

		params.Window.End = end
	}

	if guestsQuery := c.Query("guests"); len(guestsQuery) != 0 {
		guests, err := strconv.Atoi(guestsQuery)

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guests parameter"})
			return
		}

		params.Guests = guests
	}

	properties, err := h.service.Search(c.Request.Context(), params)

	if err != nil {
		if errors.Is(err, property.ErrMissingLocation) || errors.Is(err, bk.ErrInvalidDateRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search properties"})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"count": len(properties), "properties": properties})
}

func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	prop, err := h.service.FindPropertyByID(c.Request.Context(), id)

	if err != nil {
		if errors.Is(err, bk.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch property"})
		return
	}

	c.IndentedJSON(http.StatusOK, prop)
}
