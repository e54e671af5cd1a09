package domain

import (
	"sort"
	"strings"

	"github.com/smartfarmer/backend/pkg/utils"
)

// Location maps a district to its display city and coordinates.
type Location struct {
	District string  `json:"district"`
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// locations covers every district offered by the UI.
var locations = map[string]Location{
	"Angul":         {District: "Angul", City: "Angul", Lat: 20.8400, Lon: 85.1000},
	"Balangir":      {District: "Balangir", City: "Balangir", Lat: 20.7100, Lon: 83.4800},
	"Bhadrak":       {District: "Bhadrak", City: "Bhadrak", Lat: 21.0500, Lon: 86.5000},
	"Boudh":         {District: "Boudh", City: "Boudh", Lat: 20.8400, Lon: 84.3200},
	"Cuttack":       {District: "Cuttack", City: "Cuttack", Lat: 20.4625, Lon: 85.8830},
	"Dhenkanal":     {District: "Dhenkanal", City: "Dhenkanal", Lat: 20.6600, Lon: 85.6000},
	"Gajapati":      {District: "Gajapati", City: "Paralakhemundi", Lat: 18.7800, Lon: 84.0900},
	"Ganjam":        {District: "Ganjam", City: "Berhampur", Lat: 19.3150, Lon: 84.7941},
	"Jagatsinghpur": {District: "Jagatsinghpur", City: "Jagatsinghpur", Lat: 20.2600, Lon: 86.1700},
	"Jajpur":        {District: "Jajpur", City: "Jajpur", Lat: 20.8500, Lon: 86.3300},
	"Jharsuguda":    {District: "Jharsuguda", City: "Jharsuguda", Lat: 21.8600, Lon: 84.0100},
	"Kalahandi":     {District: "Kalahandi", City: "Bhawanipatna", Lat: 19.9100, Lon: 83.1700},
	"Kandhamal":     {District: "Kandhamal", City: "Phulbani", Lat: 20.4700, Lon: 84.2300},
	"Kendrapara":    {District: "Kendrapara", City: "Kendrapara", Lat: 20.5000, Lon: 86.4200},
	"Keonjhar":      {District: "Keonjhar", City: "Keonjhar", Lat: 21.6300, Lon: 85.5800},
	"Khordha":       {District: "Khordha", City: "Bhubaneswar", Lat: 20.2961, Lon: 85.8245},
	"Koraput":       {District: "Koraput", City: "Koraput", Lat: 18.8100, Lon: 82.7100},
	"Malkangiri":    {District: "Malkangiri", City: "Malkangiri", Lat: 18.3500, Lon: 81.8900},
	"Mayurbhanj":    {District: "Mayurbhanj", City: "Baripada", Lat: 21.9300, Lon: 86.7300},
	"Nabarangpur":   {District: "Nabarangpur", City: "Nabarangpur", Lat: 19.2300, Lon: 82.5500},
	"Nayagarh":      {District: "Nayagarh", City: "Nayagarh", Lat: 20.1300, Lon: 85.1000},
	"Nuapada":       {District: "Nuapada", City: "Nuapada", Lat: 20.8100, Lon: 82.5400},
	"Puri":          {District: "Puri", City: "Puri", Lat: 19.8135, Lon: 85.8312},
	"Rayagada":      {District: "Rayagada", City: "Rayagada", Lat: 19.1700, Lon: 83.4200},
	"Sambalpur":     {District: "Sambalpur", City: "Sambalpur", Lat: 21.4700, Lon: 83.9700},
	"Subarnapur":    {District: "Subarnapur", City: "Subarnapur", Lat: 20.8300, Lon: 83.9200},
	"Sundargarh":    {District: "Sundargarh", City: "Rourkela", Lat: 22.2600, Lon: 84.8500},
}

// LookupLocation resolves a district or display-city name, case-insensitively.
func LookupLocation(key string) (Location, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Location{}, false
	}
	if loc, ok := locations[key]; ok {
		return loc, true
	}
	for _, loc := range locations {
		if strings.EqualFold(loc.District, key) || strings.EqualFold(loc.City, key) {
			return loc, true
		}
	}
	return Location{}, false
}

// Districts returns the canonical district names in alphabetical order.
func Districts() []string {
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NearestDistrict returns the district closest to the given coordinates.
func NearestDistrict(lat, lon float64) Location {
	var (
		best     Location
		bestDist = -1.0
	)
	for _, name := range Districts() {
		loc := locations[name]
		d := utils.Haversine(lat, lon, loc.Lat, loc.Lon)
		if bestDist < 0 || d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best
}
