package domain

// Seasons offered by the prediction form.
const (
	SeasonKharif = "Kharif"
	SeasonRabi   = "Rabi"
	SeasonSummer = "Summer"
)

// SubPlot is a portion of the field planted with one crop
type SubPlot struct {
	Crop string  `json:"crop" validate:"required"`
	Area float64 `json:"area" validate:"gt=0"`
}

// FarmInput represents the prediction form submission
type FarmInput struct {
	District string    `json:"district" validate:"required"`
	Year     int       `json:"year,omitempty"`
	Season   string    `json:"season" validate:"required"`
	Crop     string    `json:"crop,omitempty"`
	Area     float64   `json:"area,omitempty"`
	SubPlots []SubPlot `json:"subPlots,omitempty" validate:"dive"`
}

// MultiPlot reports whether the input describes a divided field.
func (in FarmInput) MultiPlot() bool {
	return len(in.SubPlots) > 0
}

// TotalArea is the single-plot area or the sum of all sub-plot areas.
func (in FarmInput) TotalArea() float64 {
	if !in.MultiPlot() {
		return in.Area
	}
	var total float64
	for _, p := range in.SubPlots {
		total += p.Area
	}
	return total
}

// PrimaryCrop is the crop used for the top-level figures of a prediction.
func (in FarmInput) PrimaryCrop() string {
	if in.Crop != "" || !in.MultiPlot() {
		return in.Crop
	}
	return in.SubPlots[0].Crop
}

// Factors echoes the inputs a prediction was computed from
type Factors struct {
	District string  `json:"district"`
	Season   string  `json:"season"`
	Crop     string  `json:"crop"`
	Year     int     `json:"year,omitempty"`
	Area     float64 `json:"area"`
}

// SubPlotResult is the per-sub-plot share of a prediction
type SubPlotResult struct {
	Crop       string  `json:"crop"`
	Area       float64 `json:"area"`
	YieldPerHa float64 `json:"yieldPerHa"`
	TotalYield float64 `json:"totalYield"`
}

// YieldPrediction represents a normalized crop-yield prediction
type YieldPrediction struct {
	Crop                  string          `json:"crop"`
	District              string          `json:"district"`
	Season                string          `json:"season"`
	Year                  int             `json:"year,omitempty"`
	Area                  float64         `json:"area"`
	PredictedYield        float64         `json:"predictedYield"`
	TotalYield            float64         `json:"totalYield"`
	ComparativePercentage float64         `json:"comparativePercentage"`
	Confidence            int             `json:"confidence"`
	MarketPrice           int             `json:"marketPrice"`
	ExpectedRevenue       int64           `json:"expectedRevenue"`
	Recommendations       []string        `json:"recommendations"`
	SubPlotResults        []SubPlotResult `json:"subPlotResults,omitempty"`
	Factors               Factors         `json:"factors"`
	IsMock                bool            `json:"is_mock"`
}

// Model availability states reported by the yield prediction gateway.
const (
	ModelOnline       = "online"
	ModelOffline      = "offline"
	ModelUnconfigured = "unconfigured"
)

// ModelStatus is the result of probing the prediction endpoint
type ModelStatus struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}
