package oracle

import "testing"

func TestScore(t *testing.T) {
	cases := []struct {
		name       string
		diseasePct float64
		weather    Weather
		soil       Soil
		want       int64
	}{
		{
			name:    "comfort point, no disease",
			weather: Weather{Temperature: 25, Humidity: 60, Rainfall: 10},
			soil:    Soil{PH: 6.5, Moisture: 50},
			want:    0,
		},
		{
			name:       "defaults only carry disease",
			diseasePct: 0.3,
			weather:    DefaultWeather(),
			soil:       DefaultSoil(),
			want:       120,
		},
		{
			name:       "full disease at comfort point",
			diseasePct: 1.0,
			weather:    Weather{Temperature: 25, Humidity: 60, Rainfall: 10},
			soil:       Soil{PH: 6.5, Moisture: 50},
			want:       400,
		},
		{
			name:    "climate stress is capped at 300",
			weather: Weather{Temperature: 45, Humidity: 10, Rainfall: 90},
			soil:    Soil{PH: 6.5, Moisture: 50},
			want:    300,
		},
		{
			name:    "soil stress adds up",
			weather: Weather{Temperature: 25, Humidity: 60, Rainfall: 10},
			soil:    Soil{PH: 7.5, Moisture: 60},
			want:    80,
		},
		{
			name:    "rainfall under threshold is free",
			weather: Weather{Temperature: 25, Humidity: 60, Rainfall: 30},
			soil:    Soil{PH: 6.5, Moisture: 50},
			want:    0,
		},
		{
			name:       "everything bad clamps to 1000",
			diseasePct: 1.0,
			weather:    Weather{Temperature: 50, Humidity: 0, Rainfall: 200},
			soil:       Soil{PH: 2, Moisture: 100},
			want:       1000,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.diseasePct, tc.weather, tc.soil); got != tc.want {
				t.Fatalf("Score=%d want=%d", got, tc.want)
			}
		})
	}
}
