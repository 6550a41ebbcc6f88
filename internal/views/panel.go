package views

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"airweather-map/internal/citydata"
)

const (
	NoData          = "Data not available"
	NoPollutantData = "No data available"
	NoNearbyCities  = "No nearby cities found"
	EnableLocation  = "Enable location"
	maxNearby       = 5
)

// Input is what the panel needs besides the payload.
type Input struct {
	Lat float64
	Lon float64
	// DistanceKM is nil when the user's position is unknown.
	DistanceKM *float64
	Now        time.Time
}

// PanelView is the city panel, formatted and ready to bind to a template.
type PanelView struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	State       string  `json:"state"`
	Coordinates string  `json:"coordinates"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`

	LocalTime string `json:"local_time"`
	LocalDate string `json:"local_date"`
	Timezone  string `json:"timezone"`
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`

	Distance        string `json:"distance"`
	DistanceFromYou string `json:"distance_from_you"`
	DistanceKnown   bool   `json:"distance_known"`

	AQI             AQIView             `json:"aqi"`
	Weather         WeatherView         `json:"weather"`
	Recommendations RecommendationsView `json:"recommendations"`
	Nearby          []NearbyView        `json:"nearby"`

	Updated string `json:"updated"`
}

type AQIView struct {
	Value        string          `json:"value"`
	Label        string          `json:"label"`
	Color        string          `json:"color"`
	Level        int             `json:"level"`
	GaugePercent float64         `json:"gauge_percent"`
	Pollutants   []PollutantView `json:"pollutants"`
	History      []HistoryView   `json:"history"`
}

type PollutantView struct {
	Key    string `json:"key"`
	Symbol string `json:"symbol"`
	Value  string `json:"value"`
	Unit   string `json:"unit"`
}

type HistoryView struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type WeatherView struct {
	Temperature              string    `json:"temperature"`
	Description              string    `json:"description"`
	FeelsLike                string    `json:"feels_like"`
	Humidity                 string    `json:"humidity"`
	WindSpeed                string    `json:"wind_speed"`
	CloudCover               string    `json:"cloud_cover"`
	DewPoint                 string    `json:"dew_point"`
	Visibility               string    `json:"visibility"`
	Precipitation            string    `json:"precipitation"`
	PrecipitationProbability string    `json:"precipitation_probability"`
	Pressure                 string    `json:"pressure"`
	Trend                    TrendView `json:"pressure_trend"`
	Icon                     string    `json:"icon"`
}

type TrendView struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Text  string `json:"text"`
}

type RecommendationsView struct {
	Health   string     `json:"health"`
	Activity string     `json:"activity"`
	Clothing string     `json:"clothing"`
	Safety   SafetyView `json:"safety"`
}

type SafetyView struct {
	Safe  bool   `json:"safe"`
	Text  string `json:"text"`
	Icon  string `json:"icon"`
	Class string `json:"class"`
}

type NearbyView struct {
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	Distance string  `json:"distance"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// SelectionJSON is the POST /api/v1/selections body that activates this city.
func (n NearbyView) SelectionJSON() string {
	b, _ := json.Marshal(struct {
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Label  string  `json:"label"`
		Source string  `json:"source"`
	}{n.Lat, n.Lon, n.Name, "nearby"})
	return string(b)
}

// AQILevel is one band of the US AQI scale.
type AQILevel struct {
	Label string
	Color string
	Level int
}

func LevelFor(aqi float64) AQILevel {
	switch {
	case aqi <= 50:
		return AQILevel{Label: "Good", Color: "#00E400", Level: 1}
	case aqi <= 100:
		return AQILevel{Label: "Moderate", Color: "#FFFF00", Level: 2}
	case aqi <= 150:
		return AQILevel{Label: "Unhealthy for Sensitive Groups", Color: "#FF7E00", Level: 3}
	case aqi <= 200:
		return AQILevel{Label: "Unhealthy", Color: "#FF0000", Level: 4}
	case aqi <= 300:
		return AQILevel{Label: "Very Unhealthy", Color: "#8B4C39", Level: 5}
	default:
		return AQILevel{Label: "Hazardous", Color: "#8B0000", Level: 6}
	}
}

// pollutants lists the displayed components in panel order.
var pollutants = []struct{ key, symbol string }{
	{"pm2_5", "PM2.5"},
	{"pm10", "PM10"},
	{"co", "CO"},
	{"no2", "NO₂"},
	{"so2", "SO₂"},
	{"o3", "O₃"},
}

// WeatherIcon maps a WMO weather code to a Font Awesome class. A missing code shows a cloud.
func WeatherIcon(code *int) string {
	if code == nil {
		return "fa-cloud"
	}
	c := *code
	switch {
	case c == 0:
		return "fa-sun"
	case c == 1 || c == 2:
		return "fa-cloud-sun"
	case c == 3:
		return "fa-cloud"
	case c >= 45 && c <= 48:
		return "fa-smog"
	case c >= 51 && c <= 55:
		return "fa-cloud-rain"
	case c >= 61 && c <= 65:
		return "fa-cloud-showers-heavy"
	case c >= 71 && c <= 77:
		return "fa-snowflake"
	case c >= 80 && c <= 82:
		return "fa-cloud-rain"
	case c >= 85 && c <= 86:
		return "fa-snowflake"
	case c >= 95:
		return "fa-cloud-bolt"
	default:
		return "fa-cloud"
	}
}

func PressureTrend(trend string) TrendView {
	switch trend {
	case "rising":
		return TrendView{Icon: "fa-arrow-up", Color: "#4CAF50", Text: "Rising"}
	case "falling":
		return TrendView{Icon: "fa-arrow-down", Color: "#FF4444", Text: "Falling"}
	default:
		return TrendView{Icon: "fa-minus", Color: "#FFC107", Text: "Stable"}
	}
}

// Render formats a lookup result for the panel. It has no side effects.
func Render(r citydata.Result, in Input) PanelView {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	v := PanelView{
		City:        orDefault(r.City, "Unknown"),
		Country:     orDefault(r.Country, "--"),
		State:       r.State,
		Coordinates: fmt.Sprintf("%.4f°, %.4f°", in.Lat, in.Lon),
		Lat:         in.Lat,
		Lon:         in.Lon,
		Timezone:    orDefault(r.Timezone, "UTC"),
		Sunrise:     orDefault(r.Sunrise, "--:--"),
		Sunset:      orDefault(r.Sunset, "--:--"),
		Updated:     "Updated: " + now.Format("3:04:05 PM"),
	}

	local := parseTime(r.LocalTime, now.Location())
	if local.IsZero() {
		local = now
	}
	v.LocalTime = local.Format("03:04 PM")
	v.LocalDate = local.Format("Mon, Jan 2")

	if in.DistanceKM != nil {
		d := fmt.Sprintf("%.1f km", *in.DistanceKM)
		v.Distance = d
		v.DistanceFromYou = d + " from you"
		v.DistanceKnown = true
	} else {
		v.Distance = "-- km"
		v.DistanceFromYou = EnableLocation
	}

	v.AQI = renderAQI(r.AQI, now.Location())
	v.Weather = renderWeather(r.Weather)
	v.Recommendations = renderRecommendations(r.Recommendations)
	v.Nearby = renderNearby(r.Nearby)
	return v
}

func renderAQI(a *citydata.AQI, loc *time.Location) AQIView {
	var value float64
	if a != nil && a.Value != nil {
		value = *a.Value
	}
	level := LevelFor(value)
	view := AQIView{
		Value:        number(value),
		Label:        level.Label,
		Color:        level.Color,
		Level:        level.Level,
		GaugePercent: min(value/300*100, 100),
	}
	if a == nil {
		return view
	}
	for _, p := range pollutants {
		val, ok := a.Components[p.key]
		if !ok || val <= 0 {
			continue
		}
		view.Pollutants = append(view.Pollutants, PollutantView{
			Key:    p.key,
			Symbol: p.symbol,
			Value:  fmt.Sprintf("%.1f", val),
			Unit:   "μg/m³",
		})
	}
	for _, h := range a.History {
		label := h.Time
		if t := parseTime(h.Time, loc); !t.IsZero() {
			label = strconv.Itoa(t.Hour()) + ":00"
		}
		view.History = append(view.History, HistoryView{Label: label, Value: h.Value})
	}
	return view
}

func renderWeather(w *citydata.Weather) WeatherView {
	if w == nil {
		w = &citydata.Weather{}
	}
	view := WeatherView{
		Temperature:              formatOr(w.Temperature, "%.1f", "", "--"),
		Description:              orDefault(w.Description, "--"),
		FeelsLike:                formatOr(w.FeelsLike, "%.1f", "°C", "--°C"),
		Humidity:                 numberOr(w.Humidity, "%", "--%"),
		CloudCover:               numberOr(w.CloudCover, "%", "--%"),
		DewPoint:                 formatOr(w.DewPoint, "%.1f", "°C", "--°C"),
		Visibility:               formatOr(w.Visibility, "%.1f", " km", "-- km"),
		Precipitation:            formatOr(w.Precipitation, "%.1f", " mm", "-- mm"),
		PrecipitationProbability: numberOr(w.PrecipitationProbability, "%", "--%"),
		Pressure:                 formatOr(w.Pressure, "%.0f", " hPa", "-- hPa"),
		Trend:                    PressureTrend(w.PressureTrend),
		Icon:                     WeatherIcon(w.Code),
	}
	if w.WindSpeed != nil {
		// m/s to km/h
		view.WindSpeed = fmt.Sprintf("%.1f km/h", *w.WindSpeed*3.6)
	} else {
		view.WindSpeed = "-- km/h"
	}
	return view
}

func renderRecommendations(r *citydata.Recommendations) RecommendationsView {
	if r == nil {
		r = &citydata.Recommendations{}
	}
	view := RecommendationsView{
		Health:   orDefault(r.Health, NoData),
		Activity: orDefault(r.Activity, NoData),
		Clothing: orDefault(r.Clothing, NoData),
	}
	if r.IsSafeOutside {
		view.Safety = SafetyView{Safe: true, Text: "Safe to go outside", Icon: "fa-check-circle", Class: "safe"}
	} else {
		view.Safety = SafetyView{Text: "Caution advised", Icon: "fa-exclamation-triangle", Class: "unsafe"}
	}
	return view
}

func renderNearby(cities []citydata.NearbyCity) []NearbyView {
	if len(cities) > maxNearby {
		cities = cities[:maxNearby]
	}
	out := make([]NearbyView, 0, len(cities))
	for _, c := range cities {
		d := "--"
		if c.Distance != nil {
			d = number(*c.Distance)
		}
		out = append(out, NearbyView{Name: c.Name, Country: c.Country, Distance: d + " km", Lat: c.Lat, Lon: c.Lon})
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime accepts RFC 3339 and offset-less ISO timestamps. Offset-less values are read in loc.
// It returns the zero time when s does not parse.
func parseTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numberOr(v *float64, suffix, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return number(*v) + suffix
}

func formatOr(v *float64, format, suffix, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf(format, *v) + suffix
}
