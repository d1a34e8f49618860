package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWeatherParsesCurrentBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.URL.Query().Get("latitude"); got != "51.5" {
			t.Errorf("latitude=%s", got)
		}
		w.Write([]byte(`{"current":{"temperature_2m":18.4,"relative_humidity_2m":72,"precipitation":2.5,"wind_speed_10m":14.1}}`))
	}))
	defer srv.Close()

	c := &Client{WeatherBaseURL: srv.URL}
	w, err := c.Weather(context.Background(), 51.5, -0.1)
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if w.Temperature != 18.4 || w.Humidity != 72 || w.Rainfall != 2.5 || w.WindSpeed != 14.1 {
		t.Fatalf("weather=%+v", w)
	}
}

func TestWeatherFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{WeatherBaseURL: srv.URL}
	w, err := c.Weather(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("want error on 502")
	}
	if w != DefaultWeather() {
		t.Fatalf("fallback=%+v want defaults", w)
	}
}

func TestSoilDataScalesUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties":{"layers":[
			{"name":"phh2o","depths":[{"values":{"mean":58}}]},
			{"name":"nitrogen","depths":[{"values":{"mean":240}}]},
			{"name":"cec","depths":[{"values":{"mean":120}}]}
		]}}`))
	}))
	defer srv.Close()

	c := &Client{SoilBaseURL: srv.URL}
	s, err := c.SoilData(context.Background(), 40.0, -3.7)
	if err != nil {
		t.Fatalf("soil: %v", err)
	}
	if s.PH != 5.8 || s.Nitrogen != 24 {
		t.Fatalf("soil=%+v want ph=5.8 nitrogen=24", s)
	}
	// Moisture has no provider layer and keeps its default.
	if s.Moisture != DefaultSoil().Moisture {
		t.Fatalf("moisture=%v want default", s.Moisture)
	}
}

func TestDriftDiseaseStaysInRange(t *testing.T) {
	for _, start := range []float64{0, 0.001, 0.5, 0.999, 1} {
		v := start
		for i := 0; i < 1000; i++ {
			v = driftDisease(v)
			if v < 0 || v > 1 {
				t.Fatalf("drift left range: %v (start %v)", v, start)
			}
		}
	}
}
