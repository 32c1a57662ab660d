package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/cache"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/search"
	"github.com/dharmasatrya/flightdeals/internal/store"
	"github.com/dharmasatrya/flightdeals/pkg/currency"
)

type SearchHandler struct {
	orchestrator *search.Orchestrator
	cache        cache.Cache
	store        *store.Store
}

func NewSearchHandler(orch *search.Orchestrator, c cache.Cache, s *store.Store) *SearchHandler {
	return &SearchHandler{
		orchestrator: orch,
		cache:        c,
		store:        s,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if cached, found := h.cache.Get(ctx, req); found {
		return c.JSON(http.StatusOK, models.SearchResponse{
			SearchCriteria: req,
			Metadata: models.SearchMetadata{
				TotalResults: len(cached),
				SearchTimeMs: time.Since(startTime).Milliseconds(),
				CacheHit:     true,
			},
			Deals: cached,
		})
	}

	result, err := h.orchestrator.DiscoverDeals(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "provider_error",
			Message: "Failed to search deals: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	for i := range result.Deals {
		result.Deals[i].PriceFormatted = currency.Format(result.Deals[i].PriceTotal, result.Deals[i].Currency)
	}

	_ = h.cache.Set(ctx, req, result.Deals)

	if h.store != nil {
		if err := h.store.RecordSearch(ctx, req, c.Request().UserAgent(), hashIP(c.RealIP())); err != nil {
			log.Printf("recording search failed: %v", err)
		}
		if err := h.store.SaveDeals(ctx, store.SearchHash(req), result.Deals); err != nil {
			log.Printf("persisting deals failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: req,
		Metadata: models.SearchMetadata{
			TotalResults:     len(result.Deals),
			CandidatesTried:  result.CandidatesTried,
			CandidatesFailed: result.CandidatesFailed,
			SearchTimeMs:     time.Since(startTime).Milliseconds(),
		},
		Deals: result.Deals,
	})
}

func (h *SearchHandler) TopDeals(c echo.Context) error {
	origin := c.QueryParam("origin")
	destination := c.QueryParam("destination")
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		limit = 50
	}

	deals, err := h.store.TopDeals(c.Request().Context(), origin, destination, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to load top deals: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.TopDealsResponse{Deals: deals})
}

func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	digest := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(digest[:])
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
