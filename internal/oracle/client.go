package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Client fetches external weather and soil observations. Both providers are
// free, keyless APIs; any failure falls back to default values so a provider
// outage never blocks the risk refresh.
type Client struct {
	HTTP           *http.Client
	WeatherBaseURL string
	SoilBaseURL    string
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		Rainfall    float64 `json:"precipitation"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

func (c *Client) Weather(ctx context.Context, lat, lon float64) (Weather, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m")
	q.Set("timezone", "auto")

	var out openMeteoResponse
	if err := c.getJSON(ctx, c.WeatherBaseURL+"/v1/forecast?"+q.Encode(), &out); err != nil {
		return DefaultWeather(), err
	}
	return Weather{
		Temperature: out.Current.Temperature,
		Humidity:    out.Current.Humidity,
		Rainfall:    out.Current.Rainfall,
		WindSpeed:   out.Current.WindSpeed,
	}, nil
}

type soilGridsResponse struct {
	Properties struct {
		Layers []struct {
			Name   string `json:"name"`
			Depths []struct {
				Values struct {
					Mean float64 `json:"mean"`
				} `json:"values"`
			} `json:"depths"`
		} `json:"layers"`
	} `json:"properties"`
}

func (c *Client) SoilData(ctx context.Context, lat, lon float64) (Soil, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("property", "nitrogen,phh2o,cec")
	q.Set("depth", "0-5cm")
	q.Set("value", "mean")

	var out soilGridsResponse
	if err := c.getJSON(ctx, c.SoilBaseURL+"/soilgrids/v2.0/properties/query?"+q.Encode(), &out); err != nil {
		return DefaultSoil(), err
	}

	soil := DefaultSoil()
	for _, layer := range out.Properties.Layers {
		if len(layer.Depths) == 0 {
			continue
		}
		switch layer.Name {
		case "phh2o":
			// pH is reported as pH*10.
			soil.PH = layer.Depths[0].Values.Mean / 10
		case "nitrogen":
			soil.Nitrogen = layer.Depths[0].Values.Mean / 10
		}
	}
	return soil, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
