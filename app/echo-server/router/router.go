package router

import (
	"net/http"

	"cardAdvisor/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler) {
	reco := api.Group("/recommendations")
	reco.GET("", handler.Recommend)
	reco.GET("/stream", handler.Stream)
}

func SetupCardRoutes(api *echo.Group, handler *rest.CardHandler) {
	cards := api.Group("/cards")

	cards.GET("", handler.ListCards)
	cards.GET("/:id", handler.GetCardByID)
}

func SetupOpsRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
