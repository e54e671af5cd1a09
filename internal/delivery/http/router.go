package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check and scrape endpoint
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Dashboard endpoints
		api.Get("/dashboard", handler.GetDashboard)
		api.Get("/dashboard/latest", handler.GetLatestDashboard)
		api.Get("/weather", handler.GetWeather)
		api.Get("/weather/forecast", handler.GetForecast)

		// Prediction endpoints
		api.Post("/predict", handler.Predict)
		api.Get("/predictions/recent", handler.GetRecentPredictions)
		api.Get("/ml/status", handler.GetModelStatus)

		// Advisory chat
		api.Post("/chat", handler.Chat)
	}
}
