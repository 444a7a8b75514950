package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/usecase"
	"flightsearch-service/pkg/logger"
)

// SearchService is the consumer-facing surface of the orchestrator.
type SearchService interface {
	StartSearch(ctx context.Context, legs []entity.SearchLeg, passengers entity.PassengerCounts, cabinClass string, directOnly bool) (string, error)
	LoadMore(index int)
	Sections() []entity.Section
	Stop()
}

// Handler exposes the search orchestrator over HTTP. It is a thin
// adapter: starting a search is fire-and-forget, progress is read from
// section snapshots.
type Handler struct {
	service SearchService
	logger  logger.Logger
}

// NewHandler creates a new REST handler
func NewHandler(service SearchService, logger logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the search routes
func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/search", h.startSearch)
	api.GET("/search/sections", h.sections)
	api.POST("/search/sections/:index/more", h.loadMore)
	api.POST("/search/stop", h.stop)
}

func (h *Handler) startSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Adults < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one adult passenger is required")
	}

	legs, err := req.toLegs()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	passengers := entity.PassengerCounts{
		Adults:   req.Adults,
		Children: req.Children,
		Infants:  req.Infants,
	}

	searchID, err := h.service.StartSearch(c.Request().Context(), legs, passengers, req.CabinClass, req.DirectOnly)
	if err != nil {
		if errors.Is(err, usecase.ErrNoLegs) || errors.Is(err, usecase.ErrTooManyLegs) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("Failed to start search", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start search")
	}

	return c.JSON(http.StatusAccepted, searchResponse{SearchID: searchID})
}

func (h *Handler) sections(c echo.Context) error {
	sections := h.service.Sections()
	views := make([]sectionView, len(sections))
	for i, sec := range sections {
		views[i] = toSectionView(sec)
	}
	return c.JSON(http.StatusOK, sectionsResponse{Sections: views})
}

func (h *Handler) loadMore(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "section index must be an integer")
	}

	h.service.LoadMore(index)

	sec, ok := sectionAt(h.service.Sections(), index)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "section not found")
	}
	return c.JSON(http.StatusOK, toSectionView(sec))
}

func (h *Handler) stop(c echo.Context) error {
	h.service.Stop()
	return c.NoContent(http.StatusNoContent)
}

func sectionAt(sections []entity.Section, index int) (entity.Section, bool) {
	if index < 0 || index >= len(sections) {
		return entity.Section{}, false
	}
	return sections[index], true
}
