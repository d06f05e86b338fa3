package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toyprojects/weather-proxy/internal/models"
)

// Upstream payload shapes. Current weather carries city, country, timezone
// and sunrise/sunset at the top level (under sys); the forecast shape moves
// city metadata under a "city" object and has no sunrise/sunset per entry.
// The nested weather[0]/main/wind blocks are shared between both.

type conditionPayload struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainPayload struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
}

type windPayload struct {
	Speed float64 `json:"speed"`
}

type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
	Weather  []conditionPayload `json:"weather"`
	Main     mainPayload        `json:"main"`
	Wind     windPayload        `json:"wind"`
	Dt       int64              `json:"dt"`
	Timezone int                `json:"timezone"`
}

type forecastPayload struct {
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
	List []struct {
		Weather []conditionPayload `json:"weather"`
		Main    mainPayload        `json:"main"`
		Wind    windPayload        `json:"wind"`
		Dt      int64              `json:"dt"`
	} `json:"list"`
}

// parseCurrent converts a current-weather payload into one WeatherRecord.
// A missing city name or empty weather array is a parse failure; the caller
// surfaces it as a generic upstream error.
func parseCurrent(body []byte) (models.WeatherRecord, error) {
	var p currentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.WeatherRecord{}, fmt.Errorf("decode current weather: %w", err)
	}
	if p.Name == "" {
		return models.WeatherRecord{}, fmt.Errorf("current weather: missing city name")
	}
	if len(p.Weather) == 0 {
		return models.WeatherRecord{}, fmt.Errorf("current weather: empty weather array")
	}

	return models.NewWeatherRecord(
		p.Name,
		p.Sys.Country,
		toCondition(p.Weather[0]),
		toMeasurements(p.Main, p.Wind),
		p.Dt,
		p.Timezone,
		p.Sys.Sunrise,
		p.Sys.Sunset,
	), nil
}

// parseForecast converts a forecast payload into at most maxEntries records,
// in upstream order. City name and timezone come from the city object and are
// shared by every entry; entries have no sunrise/sunset.
func parseForecast(body []byte, maxEntries int) ([]models.WeatherRecord, error) {
	var p forecastPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if p.City.Name == "" {
		return nil, fmt.Errorf("forecast: missing city name")
	}

	n := len(p.List)
	if n > maxEntries {
		n = maxEntries
	}
	records := make([]models.WeatherRecord, 0, n)
	for i := 0; i < n; i++ {
		entry := p.List[i]
		if len(entry.Weather) == 0 {
			return nil, fmt.Errorf("forecast: entry %d has empty weather array", i)
		}
		records = append(records, models.NewWeatherRecord(
			p.City.Name,
			p.City.Country,
			toCondition(entry.Weather[0]),
			toMeasurements(entry.Main, entry.Wind),
			entry.Dt,
			p.City.Timezone,
			nil,
			nil,
		))
	}
	return records, nil
}

func toCondition(c conditionPayload) models.Condition {
	return models.Condition{
		ID:          c.ID,
		Group:       strings.ToLower(c.Main),
		Description: c.Description,
		Icon:        c.Icon,
	}
}

func toMeasurements(m mainPayload, w windPayload) models.Measurements {
	return models.Measurements{
		Temp:      m.Temp,
		FeelsLike: m.FeelsLike,
		TempMin:   m.TempMin,
		TempMax:   m.TempMax,
		Humidity:  m.Humidity,
		WindSpeed: w.Speed,
	}
}
