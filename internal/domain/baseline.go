package domain

import "github.com/smartfarmer/backend/pkg/utils"

// YieldRange is the historical yield per hectare for a crop.
type YieldRange struct {
	Min float64
	Max float64
	Avg float64
}

// DefaultCrop supplies the baseline, price and recommendations for any crop
// outside the tables below.
const DefaultCrop = "Rice"

// Multipliers applied when a season or district has no entry.
const (
	DefaultSeasonMultiplier   = 1.0
	DefaultDistrictMultiplier = 0.9
)

var cropBaselines = map[string]YieldRange{
	"Rice":       {Min: 20, Max: 45, Avg: 32},
	"Wheat":      {Min: 15, Max: 35, Avg: 25},
	"Maize":      {Min: 25, Max: 55, Avg: 40},
	"Pulses":     {Min: 8, Max: 18, Avg: 12},
	"Oilseeds":   {Min: 10, Max: 25, Avg: 18},
	"Sugarcane":  {Min: 400, Max: 800, Avg: 600},
	"Jute":       {Min: 15, Max: 30, Avg: 22},
	"Vegetables": {Min: 150, Max: 400, Avg: 275},
	"Groundnut":  {Min: 12, Max: 28, Avg: 20},
	"Millets":    {Min: 8, Max: 20, Avg: 14},
}

var seasonMultipliers = map[string]float64{
	SeasonKharif: 1.0,
	SeasonRabi:   0.9,
	SeasonSummer: 0.8,
}

var districtMultipliers = map[string]float64{
	"Cuttack":    1.1,
	"Khordha":    1.05,
	"Puri":       1.0,
	"Ganjam":     0.95,
	"Sambalpur":  0.9,
	"Mayurbhanj": 0.85,
	"Koraput":    0.8,
}

var basePrices = map[string]int{
	"Rice":       2000,
	"Wheat":      2100,
	"Maize":      1800,
	"Pulses":     5000,
	"Oilseeds":   4500,
	"Sugarcane":  300,
	"Vegetables": 1500,
	"Groundnut":  5200,
}

// SeasonCrops is the selectable crop vocabulary per season.
var SeasonCrops = map[string][]string{
	SeasonKharif: {"Rice", "Maize", "Arhar/Tur", "Moong", "Urad", "Groundnut",
		"Sesamum", "Niger", "Castor", "Sunflower", "Jute", "Sugarcane"},
	SeasonRabi: {"Wheat", "Gram", "Lentil", "Field Pea", "Linseed", "Mustard",
		"Sunflower", "Safflower", "Onion", "Garlic"},
	SeasonSummer: {"Groundnut", "Maize", "Sunflower", "Watermelon", "Muskmelon",
		"Cucumber", "Bitter Gourd", "Ridge Gourd"},
}

// BaselineFor returns the crop's yield range, defaulting to Rice.
func BaselineFor(crop string) YieldRange {
	if b, ok := cropBaselines[crop]; ok {
		return b
	}
	return cropBaselines[DefaultCrop]
}

// HasBaseline reports whether the crop has its own baseline entry.
func HasBaseline(crop string) bool {
	_, ok := cropBaselines[crop]
	return ok
}

// SeasonMultiplier returns the season's multiplier, defaulting to 1.0.
func SeasonMultiplier(season string) float64 {
	if m, ok := seasonMultipliers[season]; ok {
		return m
	}
	return DefaultSeasonMultiplier
}

// DistrictMultiplier returns the district's multiplier, defaulting to 0.9.
func DistrictMultiplier(district string) float64 {
	if m, ok := districtMultipliers[district]; ok {
		return m
	}
	return DefaultDistrictMultiplier
}

// BasePrice returns the crop's base market price per unit, defaulting to Rice.
func BasePrice(crop string) int {
	if p, ok := basePrices[crop]; ok {
		return p
	}
	return basePrices[DefaultCrop]
}

// ComparativePercentage is the deviation of a per-hectare yield from the
// crop's baseline average, in percent rounded to one decimal.
func ComparativePercentage(crop string, yieldPerHa float64) float64 {
	avg := BaselineFor(crop).Avg
	return utils.RoundTo((yieldPerHa-avg)/avg*100, 1)
}
