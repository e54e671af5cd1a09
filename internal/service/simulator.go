package service

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/pkg/utils"
)

// RandSource yields uniform values in [0, 1).
type RandSource interface {
	Float64() float64
}

// Fallback notes attached to envelopes built from simulated data.
const (
	NoteSimulatedPrediction = "Using simulated prediction due to API unavailability"
	NoteSimulatedWeather    = "Using simulated weather data due to API unavailability"
	NoteStaticAdvice        = "Using offline advice due to advisory service unavailability"
)

const (
	excellentYieldRemark = "Excellent yield potential! Maintain current practices and consider expanding area next season."
	belowAverageRemark   = "Below average yield predicted. Consider soil testing and improved fertilization."
	kharifRemark         = "Keep field drains open during heavy monsoon spells to prevent waterlogging."
	rabiRemark           = "Plan irrigation around residual soil moisture and canal water schedules."
	cropRemarksPerCrop   = 2
)

var cropRecommendations = map[string][]string{
	"Rice": {
		"Ensure proper water management during flowering stage",
		"Apply balanced NPK fertilizers as per soil test",
		"Monitor for brown plant hopper and stem borer",
	},
	"Wheat": {
		"Timely sowing is crucial for good yield",
		"Apply irrigation at critical growth stages",
		"Watch for rust diseases and aphid attacks",
	},
	"Maize": {
		"Maintain proper plant spacing for better yield",
		"Apply nitrogen in split doses",
		"Control fall armyworm if detected",
	},
}

var (
	simulatedConditions = []string{"Sunny", "Partly Cloudy", "Cloudy"}
	nutrientLevels      = []string{"Low", "Medium", "High"}
)

// Simulator synthesizes plausible predictions, prices and weather from the
// baseline tables plus bounded randomness. All draws go through one source so a
// fixed seed reproduces every output.
type Simulator struct {
	mu    sync.Mutex
	rnd   RandSource
	clock clockwork.Clock
}

// NewSimulator creates a simulator drawing from rnd.
func NewSimulator(rnd RandSource, clock clockwork.Clock) *Simulator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Simulator{rnd: rnd, clock: clock}
}

// NewSeededSimulator creates a simulator over math/rand. A zero seed is
// replaced by the current time.
func NewSeededSimulator(seed int64, clock clockwork.Clock) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSimulator(rand.New(rand.NewSource(seed)), clock)
}

func (s *Simulator) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// pick chooses one element of pool uniformly.
func (s *Simulator) pick(pool []string) string {
	i := int(s.draw() * float64(len(pool)))
	return pool[int(utils.Clamp(float64(i), 0, float64(len(pool)-1)))]
}

// yieldPerHa returns round(avg × season × district × factor) with factor in [0.8, 1.2).
func (s *Simulator) yieldPerHa(crop, season, district string) float64 {
	factor := 0.8 + s.draw()*0.4
	return math.Round(domain.BaselineFor(crop).Avg *
		domain.SeasonMultiplier(season) *
		domain.DistrictMultiplier(district) *
		factor)
}

// SimulateYield synthesizes a single-plot prediction.
func (s *Simulator) SimulateYield(crop, season, district string, area float64) domain.YieldPrediction {
	return s.SimulatePrediction(domain.FarmInput{
		District: district,
		Season:   season,
		Crop:     crop,
		Area:     area,
	})
}

// SimulatePrediction synthesizes a prediction for a single- or multi-plot input.
func (s *Simulator) SimulatePrediction(in domain.FarmInput) domain.YieldPrediction {
	crop := in.PrimaryCrop()
	if crop == "" {
		crop = domain.DefaultCrop
	}
	area := in.TotalArea()

	var (
		perHa, totalYield, comparative, ratio float64
		plots                                 []domain.SubPlotResult
	)
	if !in.MultiPlot() {
		perHa = s.yieldPerHa(crop, in.Season, in.District)
		totalYield = math.Round(perHa * area)
		comparative = domain.ComparativePercentage(crop, perHa)
		ratio = perHa / domain.BaselineFor(crop).Avg
	} else {
		plots = make([]domain.SubPlotResult, 0, len(in.SubPlots))
		var expected float64
		for _, p := range in.SubPlots {
			y := s.yieldPerHa(p.Crop, in.Season, in.District)
			t := math.Round(y * p.Area)
			plots = append(plots, domain.SubPlotResult{Crop: p.Crop, Area: p.Area, YieldPerHa: y, TotalYield: t})
			totalYield += t
			expected += domain.BaselineFor(p.Crop).Avg * p.Area
		}
		perHa = utils.RoundTo(totalYield/area, 1)
		comparative = utils.RoundTo((totalYield-expected)/expected*100, 1)
		ratio = totalYield / expected
	}

	return domain.YieldPrediction{
		Crop:                  crop,
		District:              in.District,
		Season:                in.Season,
		Year:                  in.Year,
		Area:                  area,
		PredictedYield:        perHa,
		TotalYield:            totalYield,
		ComparativePercentage: comparative,
		Confidence:            s.Confidence(),
		Recommendations:       recommendations(crop, in.Season, ratio),
		SubPlotResults:        plots,
		Factors: domain.Factors{
			District: in.District,
			Season:   in.Season,
			Crop:     crop,
			Year:     in.Year,
			Area:     area,
		},
		MarketPrice:     s.MarketPrice(crop),
		ExpectedRevenue: s.ExpectedRevenue(crop, totalYield),
		IsMock:          true,
	}
}

// Confidence returns a score in [75, 95].
func (s *Simulator) Confidence() int {
	return int(math.Round(75 + s.draw()*20))
}

// MarketPrice returns the crop's base price varied by up to ±10%.
func (s *Simulator) MarketPrice(crop string) int {
	variation := 0.9 + s.draw()*0.2
	return int(math.Round(float64(domain.BasePrice(crop)) * variation))
}

// ExpectedRevenue multiplies totalYield by a freshly sampled market price.
func (s *Simulator) ExpectedRevenue(crop string, totalYield float64) int64 {
	price := decimal.NewFromInt(int64(s.MarketPrice(crop)))
	return decimal.NewFromFloat(totalYield).Mul(price).Round(0).IntPart()
}

// Recommendations lists advice for a predicted per-hectare yield.
func (s *Simulator) Recommendations(crop, season string, predictedYield float64) []string {
	return recommendations(crop, season, predictedYield/domain.BaselineFor(crop).Avg)
}

// recommendations takes the yield as a ratio of the expected baseline.
func recommendations(crop, season string, ratio float64) []string {
	var recs []string
	switch {
	case ratio > 1.1:
		recs = append(recs, excellentYieldRemark)
	case ratio < 0.9:
		recs = append(recs, belowAverageRemark)
	}

	specific, ok := cropRecommendations[crop]
	if !ok {
		specific = cropRecommendations[domain.DefaultCrop]
	}
	recs = append(recs, specific[:cropRemarksPerCrop]...)

	switch season {
	case domain.SeasonKharif:
		recs = append(recs, kharifRemark)
	case domain.SeasonRabi:
		recs = append(recs, rabiRemark)
	}
	return recs
}

// SimulateWeather synthesizes current conditions for a location.
func (s *Simulator) SimulateWeather(loc domain.Location) domain.WeatherSnapshot {
	temp := 28 + int(s.draw()*8)
	humidity := 60 + int(s.draw()*20)
	wind := 10 + int(s.draw()*10)
	condition := s.pick(simulatedConditions)

	return domain.WeatherSnapshot{
		District:    loc.District,
		City:        loc.City,
		Temperature: temp,
		Humidity:    humidity,
		Wind:        wind,
		Condition:   condition,
		Description: condition,
		Icon:        domain.DefaultWeatherIcon,
		Timestamp:   s.clock.Now(),
		IsMock:      true,
	}
}

// SimulateSoilHealth synthesizes soil indicators: pH in [6.5, 7.3] and
// nutrient levels from Low, Medium and High.
func (s *Simulator) SimulateSoilHealth() domain.SoilHealth {
	return domain.SoilHealth{
		PH:         utils.RoundTo(6.5+s.draw()*0.8, 1),
		Nitrogen:   s.pick(nutrientLevels),
		Phosphorus: s.pick(nutrientLevels),
		Potassium:  s.pick(nutrientLevels),
	}
}
