package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLocation(t *testing.T) {
	tests := []struct {
		key      string
		district string
		ok       bool
	}{
		{"Cuttack", "Cuttack", true},
		{"  khordha ", "Khordha", true},
		{"Bhubaneswar", "Khordha", true},
		{"rourkela", "Sundargarh", true},
		{"", "", false},
		{"Atlantis", "", false},
	}
	for _, tt := range tests {
		loc, ok := LookupLocation(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.district, loc.District, tt.key)
	}
}

func TestDistrictsSorted(t *testing.T) {
	d := Districts()
	require.Len(t, d, len(locations))
	assert.Equal(t, "Angul", d[0])
	assert.IsNonDecreasing(t, d)
}

func TestNearestDistrict(t *testing.T) {
	// Konark sits in Puri district.
	assert.Equal(t, "Puri", NearestDistrict(19.8876, 86.0945).District)
	assert.Equal(t, "Cuttack", NearestDistrict(20.47, 85.88).District)
}

func TestBaselineDefaults(t *testing.T) {
	assert.Equal(t, BaselineFor("Rice"), BaselineFor("Quinoa"))
	assert.False(t, HasBaseline("Quinoa"))
	assert.Equal(t, 1.0, SeasonMultiplier("Monsoon"))
	assert.Equal(t, 0.9, SeasonMultiplier(SeasonRabi))
	assert.Equal(t, 0.9, DistrictMultiplier("Boudh"))
	assert.Equal(t, 1.1, DistrictMultiplier("Cuttack"))
	assert.Equal(t, 2000, BasePrice("Jute"))
	assert.Equal(t, 5200, BasePrice("Groundnut"))
}

func TestComparativePercentage(t *testing.T) {
	assert.Equal(t, 12.5, ComparativePercentage("Rice", 36))
	assert.Equal(t, -50.0, ComparativePercentage("Maize", 20))
	assert.Equal(t, 0.0, ComparativePercentage("Unknown", 32))
}

func TestFarmInput(t *testing.T) {
	single := FarmInput{District: "Puri", Season: SeasonKharif, Crop: "Rice", Area: 2.5}
	assert.False(t, single.MultiPlot())
	assert.Equal(t, 2.5, single.TotalArea())
	assert.Equal(t, "Rice", single.PrimaryCrop())

	multi := FarmInput{District: "Puri", Season: SeasonKharif, SubPlots: []SubPlot{{Crop: "Maize", Area: 1}, {Crop: "Rice", Area: 0.5}}}
	assert.True(t, multi.MultiPlot())
	assert.Equal(t, 1.5, multi.TotalArea())
	assert.Equal(t, "Maize", multi.PrimaryCrop())
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageHindi, ParseLanguage(" HI "))
	assert.Equal(t, LanguageOdia, ParseLanguage("or"))
	assert.Equal(t, LanguageEnglish, ParseLanguage("fr"))
	assert.Equal(t, LanguageEnglish, ParseLanguage(""))
}

func TestEnvelope(t *testing.T) {
	ok := OK(42)
	assert.True(t, ok.Success)
	assert.False(t, ok.Simulated())
	assert.Equal(t, 42, *ok.Data)

	fb := Fallback("x", "simulated")
	assert.True(t, fb.Success)
	assert.True(t, fb.Simulated())

	fail := Fail[int]("district is required")
	assert.False(t, fail.Success)
	assert.Nil(t, fail.Data)
}

func TestErrorTaxonomy(t *testing.T) {
	err := fmt.Errorf("yield: %w", NewValidationError("district", "district is required"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "yield: district is required", err.Error())
	assert.False(t, IsAbsorbable(err))

	for _, e := range []error{ErrConfigurationMissing, ErrRemoteUnavailable, ErrMalformedResponse, ErrUnknownLocation} {
		assert.True(t, IsAbsorbable(fmt.Errorf("wrapped: %w", e)), e.Error())
	}
	assert.False(t, IsAbsorbable(ErrSuperseded))
	assert.False(t, IsAbsorbable(errors.New("other")))
}

func TestConditionIcon(t *testing.T) {
	assert.Equal(t, "🌧️", ConditionIcon("Rain"))
	assert.Equal(t, DefaultWeatherIcon, ConditionIcon("Tornado"))
}

func TestSeasonCropsResolveToBaselines(t *testing.T) {
	rice := BaselineFor(DefaultCrop)
	for season, crops := range SeasonCrops {
		_, known := seasonMultipliers[season]
		assert.True(t, known, "season %s has its own multiplier", season)
		require.NotEmpty(t, crops, season)
		for _, crop := range crops {
			b := BaselineFor(crop)
			if HasBaseline(crop) {
				assert.Equal(t, cropBaselines[crop], b, crop)
			} else {
				assert.Equal(t, rice, b, "%s falls back to the %s baseline", crop, DefaultCrop)
			}
			assert.Positive(t, BasePrice(crop), crop)
			assert.Greater(t, b.Avg, 0.0, crop)
		}
	}
}
