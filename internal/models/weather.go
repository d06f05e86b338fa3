package models

import (
	"math"
	"time"
)

// TimeUnknown is rendered for optional temporal fields that the upstream
// response does not carry (forecast entries have no sunrise/sunset). Using a
// sentinel keeps records safe for direct JSON serialization.
const TimeUnknown = "unknown"

const (
	observedLayout  = "02 Jan 2006, 03:04 PM"
	timeOfDayLayout = "03:04 PM"
)

// WeatherRecord is the canonical, normalized form of one upstream weather
// observation. All measurements are rounded integers in the unit system the
// caller requested. Records are constructed once per upstream response (or
// per forecast entry) and not mutated afterward.
type WeatherRecord struct {
	CityName string `json:"cityName"`
	Country  string `json:"country"`

	WeatherID          int    `json:"weatherId"`
	WeatherGroup       string `json:"weatherGroup"`
	WeatherDescription string `json:"weatherDescription"`
	WeatherIcon        string `json:"weatherIcon"`

	Temperature   int `json:"temperature"`
	TempFeelsLike int `json:"tempFeelsLike"`
	MinTemp       int `json:"minTemp"`
	MaxTemp       int `json:"maxTemp"`
	Humidity      int `json:"humidity"`
	WindSpeed     int `json:"windSpeed"`

	ObservedAt        int64  `json:"observedAt"`
	FormattedDateTime string `json:"formattedDateTime"`
	Sunrise           string `json:"sunrise"`
	Sunset            string `json:"sunset"`
}

// Measurements carries the raw floating-point readings from the upstream
// payload. Rounding happens exactly once, inside NewWeatherRecord, to avoid
// compounding rounding error.
type Measurements struct {
	Temp      float64
	FeelsLike float64
	TempMin   float64
	TempMax   float64
	Humidity  int
	WindSpeed float64
}

// Condition carries the upstream weather[0] fields.
type Condition struct {
	ID          int
	Group       string
	Description string
	Icon        string
}

// NewWeatherRecord builds a WeatherRecord from raw upstream values.
// unix is the observation instant in Unix seconds; tzOffset is the response's
// own UTC offset in seconds east, used for all local-time formatting (never
// the server's zone). sunrise/sunset are Unix seconds, or nil when the
// payload has none (forecast entries).
func NewWeatherRecord(cityName, country string, cond Condition, m Measurements, unix int64, tzOffset int, sunrise, sunset *int64) WeatherRecord {
	zone := time.FixedZone("", tzOffset)
	return WeatherRecord{
		CityName:           cityName,
		Country:            country,
		WeatherID:          cond.ID,
		WeatherGroup:       cond.Group,
		WeatherDescription: cond.Description,
		WeatherIcon:        cond.Icon,
		Temperature:        roundHalfAway(m.Temp),
		TempFeelsLike:      roundHalfAway(m.FeelsLike),
		MinTemp:            roundHalfAway(m.TempMin),
		MaxTemp:            roundHalfAway(m.TempMax),
		Humidity:           m.Humidity,
		WindSpeed:          roundHalfAway(m.WindSpeed),
		ObservedAt:         unix,
		FormattedDateTime:  time.Unix(unix, 0).In(zone).Format(observedLayout),
		Sunrise:            formatTimeOfDay(sunrise, zone),
		Sunset:             formatTimeOfDay(sunset, zone),
	}
}

// LocalHour returns the hour of the observation instant in the record's own
// timezone, recovered from the formatted timestamp.
func (r WeatherRecord) LocalHour() int {
	t, err := time.Parse(observedLayout, r.FormattedDateTime)
	if err != nil {
		return 12
	}
	return t.Hour()
}

// roundHalfAway rounds to the nearest integer, halves away from zero
// (26.5 -> 27, -0.5 -> -1). math.Round implements exactly that.
func roundHalfAway(f float64) int {
	return int(math.Round(f))
}

// formatTimeOfDay renders a Unix instant as local time-of-day only,
// or TimeUnknown when the instant is absent.
func formatTimeOfDay(unix *int64, zone *time.Location) string {
	if unix == nil {
		return TimeUnknown
	}
	return time.Unix(*unix, 0).In(zone).Format(timeOfDayLayout)
}
