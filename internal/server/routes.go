package server

import (
	"net/http"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/prices/:homeId", s.PriceHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

type priceResponse struct {
	HomeID     string         `json:"home_id"`
	HomeName   string         `json:"home_name"`
	Price      float64        `json:"price"`
	Level      string         `json:"level"`
	Unit       string         `json:"unit"`
	StartsAt   string         `json:"starts_at"`
	UpdatedAt  string         `json:"updated_at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (s *Server) PriceHandler(c echo.Context) error {
	homeId := c.Param("homeId")
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.PriceSnapshotRequest{HomeID: homeId}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "price: FAIL")
	}
	response, ok := res.(domain.PriceSnapshotResponse)
	if !ok || response.HasResponseError() {
		return c.String(http.StatusNotFound, "price: unknown home")
	}
	if response.Price == nil {
		return c.String(http.StatusServiceUnavailable, "price: no data")
	}
	return c.JSON(http.StatusOK, priceResponse{
		HomeID:     response.HomeID,
		HomeName:   response.HomeName,
		Price:      response.Price.Total,
		Level:      response.Price.Level,
		Unit:       response.Unit,
		StartsAt:   response.Price.StartsAt.Format(time.RFC3339),
		UpdatedAt:  response.UpdatedAt.UTC().Format(time.RFC3339),
		Attributes: response.Attributes,
	})
}
