package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// AirportSource resolves airport autocomplete queries.
type AirportSource interface {
	SearchLocations(ctx context.Context, keyword string, limit int) ([]models.Airport, error)
}

type AirportsHandler struct {
	source AirportSource
}

func NewAirportsHandler(source AirportSource) *AirportsHandler {
	return &AirportsHandler{source: source}
}

func (h *AirportsHandler) Autocomplete(c echo.Context) error {
	query := c.QueryParam("query")
	if len(query) < 2 {
		return c.JSON(http.StatusOK, models.AirportsResponse{Airports: []models.Airport{}})
	}

	airports, err := h.source.SearchLocations(c.Request().Context(), query, 10)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "provider_error",
			Message: "Failed to look up airports: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	return c.JSON(http.StatusOK, models.AirportsResponse{Airports: airports})
}
