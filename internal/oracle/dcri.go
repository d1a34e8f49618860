// Package oracle computes the dynamic crop risk index (DCRI): a normalized
// score in [0,1000] derived from disease progression, weather stress, and
// soil condition. The scheduled refresh pushes fresh scores through the
// pricing engine for every tracked crop.
package oracle

import "math"

// Component caps: disease contributes up to 400 points, climate and soil up
// to 300 each.
const (
	maxDiseaseScore = 400.0
	maxClimateScore = 300.0
	maxSoilScore    = 300.0
)

type Weather struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	WindSpeed   float64 `json:"wind_speed"`
}

type Soil struct {
	PH       float64 `json:"ph"`
	Moisture float64 `json:"moisture"`
	Nitrogen float64 `json:"nitrogen"`
}

// Observation is the full oracle input set for one crop, recorded alongside
// the resulting price update.
type Observation struct {
	DiseasePct float64 `json:"disease_pct"`
	Weather    Weather `json:"weather"`
	Soil       Soil    `json:"soil"`
	Score      int64   `json:"score"`
}

// DefaultWeather is used when the weather provider is unreachable.
func DefaultWeather() Weather {
	return Weather{Temperature: 25.0, Humidity: 60.0, Rainfall: 10.0, WindSpeed: 12.0}
}

// DefaultSoil is used when the soil provider is unreachable.
func DefaultSoil() Soil {
	return Soil{PH: 6.5, Moisture: 50.0, Nitrogen: 30.0}
}

// Score computes the DCRI. diseasePct is a fraction in [0,1]. Stress terms
// measure distance from the crop comfort point (25°C, 60% humidity, moderate
// rain, pH 6.5, 50% moisture); each component is capped before the sum is
// clamped to [0,1000].
func Score(diseasePct float64, w Weather, s Soil) int64 {
	diseaseScore := diseasePct * maxDiseaseScore

	tempStress := math.Abs(w.Temperature-25) * 5
	humidityStress := math.Abs(w.Humidity-60) * 2
	rainfallStress := math.Max(0, w.Rainfall-30) * 3
	climateScore := math.Min(maxClimateScore, tempStress+humidityStress+rainfallStress)

	phStress := math.Abs(s.PH-6.5) * 50
	moistureStress := math.Abs(s.Moisture-50) * 3
	soilScore := math.Min(maxSoilScore, phStress+moistureStress)

	total := int64(diseaseScore + climateScore + soilScore)
	if total < 0 {
		return 0
	}
	if total > 1000 {
		return 1000
	}
	return total
}
