package utils

import (
	"math"
)

const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometers between two
// lat/lon points. Used to attach the nearest district to geocoded places.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	sinLat, sinLon := math.Sin(dLat/2), math.Sin(dLon/2)
	a := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLon*sinLon

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Clamp limits value to [lo, hi], e.g. a forecast horizon to 1..7 days.
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// RoundTo rounds half away from zero at the given decimal places, as used
// for per-hectare yields and comparative percentages.
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
