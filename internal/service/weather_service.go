package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
	"github.com/smartfarmer/backend/pkg/utils"
)

// WeatherService fetches and normalizes conditions from OpenWeather. It never
// substitutes data itself: every failure is returned as a classified error and
// the caller decides whether to simulate.
type WeatherService struct {
	apiKey   string
	baseURL  string
	variant  string
	remote   *remoteClient
	geocoder Geocoder
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewWeatherService creates a weather gateway. The geocoder resolves names
// outside the district table and may be nil.
func NewWeatherService(cfg *config.Config, geocoder Geocoder, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		apiKey:   cfg.OpenWeatherAPIKey,
		baseURL:  cfg.OpenWeatherBaseURL,
		variant:  cfg.WeatherVariant,
		remote:   newRemoteClient("weather", cfg.RemoteTimeout, cfg.WeatherMaxRetries),
		geocoder: geocoder,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// NewWeatherStack wires the weather gateway with a cached OpenWeather geocoder.
func NewWeatherStack(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *WeatherService {
	geo := NewOpenWeatherGeocoder(
		cfg.OpenWeatherAPIKey,
		cfg.OpenWeatherBaseURL,
		newRemoteClient("geocode", cfg.RemoteTimeout, cfg.WeatherMaxRetries),
	)
	return NewWeatherService(cfg, NewCachedGeocoder(geo, cfg.GeocodeCacheSize, metrics), clock, metrics, logger)
}

// GetCurrentWeather returns current conditions for a district or city name.
func (s *WeatherService) GetCurrentWeather(ctx context.Context, key string) (domain.WeatherSnapshot, error) {
	loc, err := s.prepare(ctx, observability.GatewayWeather, key)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	return s.current(ctx, loc, key)
}

// GetWeatherByCoordinates returns current conditions at a point, skipping
// name resolution. The nearest district is attached to the snapshot.
func (s *WeatherService) GetWeatherByCoordinates(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather: %w", domain.NewValidationError("lat", "lat must be within [-90, 90] and lon within [-180, 180]"))
	}
	label := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	if err := s.checkKey(observability.GatewayWeather, label); err != nil {
		return domain.WeatherSnapshot{}, err
	}
	nearest := domain.NearestDistrict(lat, lon)
	loc := domain.Location{District: nearest.District, City: nearest.City, Lat: lat, Lon: lon}
	return s.current(ctx, loc, label)
}

func (s *WeatherService) current(ctx context.Context, loc domain.Location, key string) (domain.WeatherSnapshot, error) {
	var (
		payload providerPayload
		err     error
	)
	start := s.clock.Now()
	switch s.variant {
	case config.WeatherVariantOneCall:
		payload.kind = payloadOneCall
		err = s.remote.getJSON(ctx, s.endpoint("/data/3.0/onecall", loc, nil), &payload.oneCall)
	default:
		payload.kind = payloadFlat
		err = s.remote.getJSON(ctx, s.endpoint("/data/2.5/weather", loc, nil), &payload.flat)
	}
	s.metrics.ObserveDuration(observability.GatewayWeather, s.clock.Since(start).Seconds())

	snap, err := s.finish(payload, loc, err)
	if err != nil {
		s.fail(observability.GatewayWeather, key, err)
		return domain.WeatherSnapshot{}, err
	}
	s.metrics.Observe(observability.GatewayWeather, observability.OutcomeRemote)
	return snap, nil
}

// GetForecast returns up to days daily points, days clamped to [1, 7].
func (s *WeatherService) GetForecast(ctx context.Context, key string, days int) ([]domain.DailyPoint, error) {
	days = int(utils.Clamp(float64(days), 1, domain.DailyPoints))

	loc, err := s.prepare(ctx, observability.GatewayForecast, key)
	if err != nil {
		return nil, err
	}

	var payload providerPayload
	start := s.clock.Now()
	switch s.variant {
	case config.WeatherVariantOneCall:
		payload.kind = payloadOneCall
		err = s.remote.getJSON(ctx, s.endpoint("/data/3.0/onecall", loc, url.Values{"exclude": {"minutely,alerts"}}), &payload.oneCall)
	default:
		payload.kind = payloadForecast
		cnt := url.Values{"cnt": {strconv.Itoa(days * 8)}}
		err = s.remote.getJSON(ctx, s.endpoint("/data/2.5/forecast", loc, cnt), &payload.forecast)
	}
	s.metrics.ObserveDuration(observability.GatewayForecast, s.clock.Since(start).Seconds())

	snap, err := s.finish(payload, loc, err)
	if err != nil {
		s.fail(observability.GatewayForecast, key, err)
		return nil, err
	}
	s.metrics.Observe(observability.GatewayForecast, observability.OutcomeRemote)

	if len(snap.Daily) > days {
		return snap.Daily[:days], nil
	}
	return snap.Daily, nil
}

// prepare checks credentials before any network I/O and resolves the location.
func (s *WeatherService) prepare(ctx context.Context, gateway, key string) (domain.Location, error) {
	if err := s.checkKey(gateway, key); err != nil {
		return domain.Location{}, err
	}
	loc, err := s.resolve(ctx, key)
	if err != nil {
		s.fail(gateway, key, err)
		return domain.Location{}, err
	}
	return loc, nil
}

func (s *WeatherService) checkKey(gateway, key string) error {
	if s.apiKey != "" {
		return nil
	}
	s.logger.Info("weather provider not configured, skipping remote call", zap.String("location", key))
	s.metrics.Observe(gateway, observability.OutcomeUnavailable)
	return fmt.Errorf("weather: %w", domain.ErrConfigurationMissing)
}

// resolve maps a location key to coordinates via the district table, falling
// back to one geocoding call.
func (s *WeatherService) resolve(ctx context.Context, key string) (domain.Location, error) {
	if loc, ok := domain.LookupLocation(key); ok {
		return loc, nil
	}
	if s.geocoder == nil || key == "" {
		return domain.Location{}, fmt.Errorf("weather: %q: %w", key, domain.ErrUnknownLocation)
	}
	return s.geocoder.Geocode(ctx, key)
}

func (s *WeatherService) finish(payload providerPayload, loc domain.Location, err error) (domain.WeatherSnapshot, error) {
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	snap, err := normalizeWeather(payload, loc)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = s.clock.Now()
	}
	return snap, nil
}

func (s *WeatherService) fail(gateway, key string, err error) {
	s.logger.Warn("weather provider unavailable",
		zap.String("gateway", gateway),
		zap.String("location", key),
		zap.Error(err),
	)
	s.metrics.Observe(gateway, observability.OutcomeUnavailable)
}

func (s *WeatherService) endpoint(path string, loc domain.Location, extra url.Values) string {
	params := url.Values{
		"lat":   {strconv.FormatFloat(loc.Lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(loc.Lon, 'f', 4, 64)},
		"appid": {s.apiKey},
		"units": {"metric"},
	}
	for k, v := range extra {
		params[k] = v
	}
	return s.baseURL + path + "?" + params.Encode()
}

// payloadKind tags which provider shape a providerPayload carries.
type payloadKind int

const (
	payloadFlat payloadKind = iota
	payloadOneCall
	payloadForecast
)

// providerPayload is the intermediate form of every provider response shape.
// Exactly one pointer matching kind is set.
type providerPayload struct {
	kind     payloadKind
	flat     *flatPayload
	oneCall  *oneCallPayload
	forecast *forecastPayload
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// flatPayload is the /data/2.5/weather shape.
type flatPayload struct {
	Dt   int64 `json:"dt"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"`
	Name       string  `json:"name"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// oneCallPayload is the nested current/hourly/daily shape.
type oneCallPayload struct {
	Current *struct {
		Dt         int64          `json:"dt"`
		Temp       float64        `json:"temp"`
		Humidity   int            `json:"humidity"`
		Pressure   int            `json:"pressure"`
		UVI        *float64       `json:"uvi"`
		Visibility float64        `json:"visibility"`
		WindSpeed  float64        `json:"wind_speed"`
		Weather    []owmCondition `json:"weather"`
	} `json:"current"`
	Hourly []struct {
		Dt       int64          `json:"dt"`
		Temp     float64        `json:"temp"`
		Humidity int            `json:"humidity"`
		Pop      float64        `json:"pop"`
		Weather  []owmCondition `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Humidity int            `json:"humidity"`
		Pop      float64        `json:"pop"`
		Weather  []owmCondition `json:"weather"`
	} `json:"daily"`
}

// forecastPayload is the /data/2.5/forecast 3-hour step shape.
type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
			Pressure int     `json:"pressure"`
		} `json:"main"`
		Weather    []owmCondition `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Visibility float64 `json:"visibility"`
		Pop        float64 `json:"pop"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// normalizeWeather translates any provider shape into a WeatherSnapshot.
// Forecast-only shapes fill the current fields from their first step.
func normalizeWeather(p providerPayload, loc domain.Location) (domain.WeatherSnapshot, error) {
	snap := domain.WeatherSnapshot{District: loc.District, City: loc.City}

	switch p.kind {
	case payloadFlat:
		f := p.flat
		if f == nil || f.Main == nil || len(f.Weather) == 0 {
			return snap, fmt.Errorf("weather: missing main or weather block: %w", domain.ErrMalformedResponse)
		}
		if f.Name != "" {
			snap.City = f.Name
		}
		snap.Country = f.Sys.Country
		snap.Temperature = roundInt(f.Main.Temp)
		snap.Humidity = f.Main.Humidity
		snap.Pressure = f.Main.Pressure
		snap.Wind = windKmh(f.Wind.Speed)
		snap.Visibility = f.Visibility / 1000
		setCondition(&snap, f.Weather)
		snap.Timestamp = unixTime(f.Dt)

	case payloadOneCall:
		o := p.oneCall
		if o == nil || o.Current == nil || len(o.Current.Weather) == 0 {
			return snap, fmt.Errorf("weather: missing current block: %w", domain.ErrMalformedResponse)
		}
		c := o.Current
		snap.Temperature = roundInt(c.Temp)
		snap.Humidity = c.Humidity
		snap.Pressure = c.Pressure
		snap.Wind = windKmh(c.WindSpeed)
		snap.Visibility = c.Visibility / 1000
		snap.UVIndex = c.UVI
		setCondition(&snap, c.Weather)
		snap.Timestamp = unixTime(c.Dt)

		for i, h := range o.Hourly {
			if i == domain.HourlyPoints {
				break
			}
			cond := conditionOf(h.Weather)
			snap.Hourly = append(snap.Hourly, domain.HourlyPoint{
				Time:                     unixTime(h.Dt),
				Temperature:              roundInt(h.Temp),
				Humidity:                 h.Humidity,
				Condition:                cond.Main,
				Icon:                     domain.ConditionIcon(cond.Main),
				PrecipitationProbability: roundInt(h.Pop * 100),
			})
		}
		for i, d := range o.Daily {
			if i == domain.DailyPoints {
				break
			}
			cond := conditionOf(d.Weather)
			snap.Daily = append(snap.Daily, domain.DailyPoint{
				Date:                     unixTime(d.Dt),
				TempMin:                  roundInt(d.Temp.Min),
				TempMax:                  roundInt(d.Temp.Max),
				Humidity:                 d.Humidity,
				Condition:                cond.Main,
				Description:              cond.Description,
				Icon:                     domain.ConditionIcon(cond.Main),
				PrecipitationProbability: roundInt(d.Pop * 100),
			})
		}

	case payloadForecast:
		f := p.forecast
		if f == nil || len(f.List) == 0 || len(f.List[0].Weather) == 0 {
			return snap, fmt.Errorf("weather: empty forecast list: %w", domain.ErrMalformedResponse)
		}
		if f.City.Name != "" {
			snap.City = f.City.Name
		}
		snap.Country = f.City.Country
		first := f.List[0]
		snap.Temperature = roundInt(first.Main.Temp)
		snap.Humidity = first.Main.Humidity
		snap.Pressure = first.Main.Pressure
		snap.Wind = windKmh(first.Wind.Speed)
		snap.Visibility = first.Visibility / 1000
		setCondition(&snap, first.Weather)
		snap.Timestamp = unixTime(first.Dt)
		snap.Daily = aggregateDaily(f)

	default:
		return snap, fmt.Errorf("weather: unknown payload kind %d: %w", p.kind, domain.ErrMalformedResponse)
	}

	return snap, nil
}

// dayBucket accumulates 3-hour steps that fall on one local calendar day.
type dayBucket struct {
	date               time.Time
	min, max           float64
	humiditySum, steps int
	pop                float64
	cond               owmCondition
}

// aggregateDaily folds 3-hour steps into days in the city's local time. A day
// takes the condition of its step nearest to midday.
func aggregateDaily(f *forecastPayload) []domain.DailyPoint {
	zone := time.FixedZone("local", f.City.Timezone)
	buckets := make(map[string]*dayBucket)
	middayDist := make(map[string]int)

	for _, step := range f.List {
		t := time.Unix(step.Dt, 0).In(zone)
		key := t.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{
				date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, zone),
				min:  step.Main.TempMin,
				max:  step.Main.TempMax,
			}
			buckets[key] = b
			middayDist[key] = math.MaxInt
		}
		b.min = math.Min(b.min, step.Main.TempMin)
		b.max = math.Max(b.max, step.Main.TempMax)
		b.humiditySum += step.Main.Humidity
		b.steps++
		b.pop = math.Max(b.pop, step.Pop)
		if dist := absInt(t.Hour() - 12); dist < middayDist[key] {
			middayDist[key] = dist
			b.cond = conditionOf(step.Weather)
		}
	}

	days := make([]*dayBucket, 0, len(buckets))
	for _, b := range buckets {
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	out := make([]domain.DailyPoint, 0, len(days))
	for _, b := range days {
		out = append(out, domain.DailyPoint{
			Date:                     b.date,
			TempMin:                  roundInt(b.min),
			TempMax:                  roundInt(b.max),
			Humidity:                 b.humiditySum / b.steps,
			Condition:                b.cond.Main,
			Description:              b.cond.Description,
			Icon:                     domain.ConditionIcon(b.cond.Main),
			PrecipitationProbability: roundInt(b.pop * 100),
		})
	}
	return out
}

func setCondition(snap *domain.WeatherSnapshot, conds []owmCondition) {
	c := conditionOf(conds)
	snap.Condition = c.Main
	snap.Description = c.Description
	snap.Icon = domain.ConditionIcon(c.Main)
}

func conditionOf(conds []owmCondition) owmCondition {
	if len(conds) == 0 {
		return owmCondition{}
	}
	return conds[0]
}

// windKmh converts a provider speed in m/s to whole km/h.
func windKmh(ms float64) int {
	return roundInt(ms * 3.6)
}

// roundInt rounds halves toward positive infinity, so -2.5 becomes -2.
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
