package http

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/smartfarmer/backend/internal/domain"
)

// SessionHeader identifies the browser session a request belongs to.
const SessionHeader = "X-Session-ID"

const maxRecentPredictions = 100

// Facade is the orchestration surface the handlers expose.
type Facade interface {
	FetchDashboardSnapshot(ctx context.Context, session, district string, lang domain.Language) (domain.Envelope[domain.DashboardSnapshot], error)
	SubmitPrediction(ctx context.Context, session string, in domain.FarmInput, lang domain.Language) (domain.Envelope[domain.PredictionResult], error)
	SendChatMessage(ctx context.Context, session, text string, actx domain.AdvisoryContext) (domain.Envelope[domain.ChatReply], error)
	CurrentWeather(ctx context.Context, location string) (domain.WeatherSnapshot, error)
	CurrentWeatherAt(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
	Forecast(ctx context.Context, location string, days int) ([]domain.DailyPoint, error)
	RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error)
	ModelStatus(ctx context.Context) domain.ModelStatus
}

// SnapshotCache serves dashboards kept fresh in the background.
type SnapshotCache interface {
	Latest(district string) (domain.Envelope[domain.DashboardSnapshot], bool)
}

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	facade  Facade
	cache   SnapshotCache
	storage HealthChecker
}

// NewHandler creates a new handler
func NewHandler(facade Facade, cache SnapshotCache, storage HealthChecker) *Handler {
	return &Handler{
		facade:  facade,
		cache:   cache,
		storage: storage,
	}
}

type predictRequest struct {
	District string          `json:"district"`
	Year     formNumber      `json:"year"`
	Season   string          `json:"season"`
	Crop     string          `json:"crop"`
	Area     formNumber      `json:"area"`
	SubPlots []subPlotForm   `json:"subPlots"`
	Language domain.Language `json:"language"`
}

type subPlotForm struct {
	Crop string     `json:"crop"`
	Area formNumber `json:"area"`
}

func (r predictRequest) farmInput() domain.FarmInput {
	in := domain.FarmInput{
		District: r.District,
		Year:     int(r.Year),
		Season:   r.Season,
		Crop:     r.Crop,
		Area:     float64(r.Area),
	}
	for _, p := range r.SubPlots {
		in.SubPlots = append(in.SubPlots, domain.SubPlot{Crop: p.Crop, Area: float64(p.Area)})
	}
	return in
}

type chatRequest struct {
	Message  string          `json:"message"`
	Language domain.Language `json:"language"`
	District string          `json:"district"`
	Season   string          `json:"season"`
	Crop     string          `json:"crop"`
	Area     float64         `json:"area"`
	UserID   string          `json:"userId"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	storage := "ok"
	if h.storage != nil {
		if err := h.storage.Health(c.UserContext()); err != nil {
			storage = "unavailable"
		}
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "smart-farmer-backend",
		"version": "1.0.0",
		"storage": storage,
	})
}

// GetDashboard builds a dashboard snapshot for the requested district
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	env, err := h.facade.FetchDashboardSnapshot(c.UserContext(), session(c), c.Query("district"), language(c))
	if err != nil {
		return err
	}
	return c.JSON(env)
}

// GetLatestDashboard returns the background-refreshed snapshot
func (h *Handler) GetLatestDashboard(c *fiber.Ctx) error {
	if h.cache == nil {
		return fiber.NewError(fiber.StatusNotFound, "No refreshed dashboard available")
	}
	env, ok := h.cache.Latest(c.Query("district"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "No refreshed dashboard available")
	}
	return c.JSON(env)
}

// GetWeather returns current weather for a location name, or for lat/lon
// when both are given
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	var (
		weather domain.WeatherSnapshot
		err     error
	)
	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
		if latErr != nil || lonErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon must both be numbers")
		}
		weather, err = h.facade.CurrentWeatherAt(c.UserContext(), lat, lon)
	} else {
		weather, err = h.facade.CurrentWeather(c.UserContext(), c.Query("location"))
	}
	if err != nil {
		return err
	}
	return c.JSON(domain.OK(weather))
}

// GetForecast returns the daily forecast for a location
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	days, err := h.facade.Forecast(c.UserContext(), c.Query("location"), c.QueryInt("days", 5))
	if err != nil {
		return err
	}
	return c.JSON(domain.OK(days))
}

// Predict validates the farm form and returns a yield prediction with advice
func (h *Handler) Predict(c *fiber.Ctx) error {
	var req predictRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	env, err := h.facade.SubmitPrediction(c.UserContext(), session(c), req.farmInput(), req.Language)
	if err != nil {
		return err
	}
	return c.JSON(env)
}

// Chat relays one message to the advisory service
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	env, err := h.facade.SendChatMessage(c.UserContext(), session(c), req.Message, domain.AdvisoryContext{
		Language: req.Language,
		District: req.District,
		Season:   req.Season,
		Crop:     req.Crop,
		Area:     req.Area,
		UserID:   req.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(env)
}

// GetRecentPredictions returns logged predictions, newest first
func (h *Handler) GetRecentPredictions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > maxRecentPredictions {
		limit = 20
	}

	logs, err := h.facade.RecentPredictions(c.UserContext(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch prediction history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}

// GetModelStatus checks the yield prediction service
func (h *Handler) GetModelStatus(c *fiber.Ctx) error {
	return c.JSON(h.facade.ModelStatus(c.UserContext()))
}

// ErrorHandler renders every error as a failed envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := classify(err)
	return c.Status(code).JSON(domain.Fail[struct{}](message))
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSuperseded):
		return fiber.StatusConflict, "Request superseded by a newer one"
	case errors.Is(err, domain.ErrUnknownLocation):
		return fiber.StatusNotFound, "Unknown location"
	case domain.IsAbsorbable(err):
		return fiber.StatusServiceUnavailable, "Weather service unavailable"
	default:
		return fiber.StatusInternalServerError, "Internal Server Error"
	}
}

func session(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(SessionHeader))
}

func language(c *fiber.Ctx) domain.Language {
	return domain.Language(c.Query("lang"))
}
