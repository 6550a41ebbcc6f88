// Package citydata holds the decoded /weather-aqi response.
//
// Optional numeric fields are pointers so that a missing field and a zero value stay distinguishable;
// the panel formats them differently.
package citydata

import (
	"encoding/json"
	"fmt"
)

type Result struct {
	// Error is the text of a top-level "error" field; empty when the field is absent or falsy.
	Error           string           `json:"-"`
	City            string           `json:"city,omitempty"`
	Country         string           `json:"country,omitempty"`
	State           string           `json:"state,omitempty"`
	LocalTime       string           `json:"localTime,omitempty"`
	Timezone        string           `json:"timezone,omitempty"`
	Sunrise         string           `json:"sunrise,omitempty"`
	Sunset          string           `json:"sunset,omitempty"`
	AQI             *AQI             `json:"aqi,omitempty"`
	Weather         *Weather         `json:"weather,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	Nearby          []NearbyCity     `json:"nearby,omitempty"`

	// Raw is the exact response body the result was decoded from.
	Raw json.RawMessage `json:"-"`
}

type AQI struct {
	Value      *float64           `json:"value,omitempty"`
	Components map[string]float64 `json:"components,omitempty"`
	History    []HistoryPoint     `json:"history,omitempty"`
}

type HistoryPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

type Weather struct {
	Temperature              *float64 `json:"temperature,omitempty"`
	Description              string   `json:"description,omitempty"`
	FeelsLike                *float64 `json:"feels_like,omitempty"`
	Humidity                 *float64 `json:"humidity,omitempty"`
	WindSpeed                *float64 `json:"wind_speed,omitempty"`
	CloudCover               *float64 `json:"cloud_cover,omitempty"`
	DewPoint                 *float64 `json:"dew_point,omitempty"`
	Visibility               *float64 `json:"visibility,omitempty"`
	Precipitation            *float64 `json:"precipitation,omitempty"`
	PrecipitationProbability *float64 `json:"precipitation_probability,omitempty"`
	Pressure                 *float64 `json:"pressure,omitempty"`
	PressureTrend            string   `json:"pressure_trend,omitempty"`
	Code                     *int     `json:"code,omitempty"`
}

type Recommendations struct {
	Health        string `json:"health,omitempty"`
	Activity      string `json:"activity,omitempty"`
	Clothing      string `json:"clothing,omitempty"`
	IsSafeOutside bool   `json:"is_safe_outside,omitempty"`
}

type NearbyCity struct {
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Distance *float64 `json:"distance,omitempty"`
}

// Decode parses body and keeps a copy of it in Raw.
func Decode(body []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(body, &r); err != nil {
		return Result{}, err
	}
	var probe struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return Result{}, err
	}
	r.Error = errorText(probe.Error)
	r.Raw = append(json.RawMessage(nil), body...)
	return r, nil
}

func errorText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 {
			return ""
		}
	}
	return fmt.Sprint(v)
}
