package views

import (
	"encoding/json"
	"testing"
	"time"

	"airweather-map/internal/citydata"
)

func f64(v float64) *float64 { return &v }
func code(v int) *int        { return &v }

var testNow = time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)

func TestRender_EmptyResultUsesPlaceholders(t *testing.T) {
	v := Render(citydata.Result{}, Input{Lat: 1.23456, Lon: -2, Now: testNow})

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"city", v.City, "Unknown"},
		{"country", v.Country, "--"},
		{"state", v.State, ""},
		{"coordinates", v.Coordinates, "1.2346°, -2.0000°"},
		{"timezone", v.Timezone, "UTC"},
		{"sunrise", v.Sunrise, "--:--"},
		{"sunset", v.Sunset, "--:--"},
		{"local time falls back to now", v.LocalTime, "03:04 PM"},
		{"local date", v.LocalDate, "Sun, Jun 1"},
		{"distance", v.Distance, "-- km"},
		{"distance hint", v.DistanceFromYou, EnableLocation},
		{"aqi value", v.AQI.Value, "0"},
		{"aqi label", v.AQI.Label, "Good"},
		{"temperature", v.Weather.Temperature, "--"},
		{"description", v.Weather.Description, "--"},
		{"feels like", v.Weather.FeelsLike, "--°C"},
		{"humidity", v.Weather.Humidity, "--%"},
		{"wind", v.Weather.WindSpeed, "-- km/h"},
		{"cloud cover", v.Weather.CloudCover, "--%"},
		{"dew point", v.Weather.DewPoint, "--°C"},
		{"visibility", v.Weather.Visibility, "-- km"},
		{"precipitation", v.Weather.Precipitation, "-- mm"},
		{"precipitation probability", v.Weather.PrecipitationProbability, "--%"},
		{"pressure", v.Weather.Pressure, "-- hPa"},
		{"trend", v.Weather.Trend.Text, "Stable"},
		{"icon", v.Weather.Icon, "fa-cloud"},
		{"health", v.Recommendations.Health, NoData},
		{"activity", v.Recommendations.Activity, NoData},
		{"clothing", v.Recommendations.Clothing, NoData},
		{"safety", v.Recommendations.Safety.Text, "Caution advised"},
		{"updated", v.Updated, "Updated: 3:04:05 PM"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
			}
		})
	}
	if len(v.AQI.Pollutants) != 0 || len(v.Nearby) != 0 || len(v.AQI.History) != 0 {
		t.Errorf("expected empty lists, got %+v / %+v / %+v", v.AQI.Pollutants, v.Nearby, v.AQI.History)
	}
	if v.DistanceKnown {
		t.Error("DistanceKnown = true, want false")
	}
}

func TestRender_FullResult(t *testing.T) {
	r := citydata.Result{
		City:      "Tokyo",
		Country:   "JP",
		State:     "Tokyo",
		LocalTime: "2025-06-01T21:15:00+09:00",
		Timezone:  "Asia/Tokyo",
		Sunrise:   "04:25",
		Sunset:    "18:52",
		AQI: &citydata.AQI{
			Value: f64(150),
			Components: map[string]float64{
				"o3": 60.04, "pm2_5": 35.55, "nh3": 4, "co": 0, "no2": 12,
			},
			History: []citydata.HistoryPoint{
				{Time: "2025-06-01T09:00:00Z", Value: 110},
				{Time: "not a time", Value: 99},
			},
		},
		Weather: &citydata.Weather{
			Temperature:              f64(0),
			Description:              "clear sky",
			FeelsLike:                f64(21.26),
			Humidity:                 f64(64),
			WindSpeed:                f64(5),
			CloudCover:               f64(12.5),
			DewPoint:                 f64(14.04),
			Visibility:               f64(10),
			Precipitation:            f64(0.25),
			PrecipitationProbability: f64(30),
			Pressure:                 f64(1013.6),
			PressureTrend:            "falling",
			Code:                     code(0),
		},
		Recommendations: &citydata.Recommendations{Health: "Sensitive groups should limit exertion", IsSafeOutside: true},
		Nearby: []citydata.NearbyCity{
			{Name: "Yokohama", Country: "JP", Distance: f64(27.5)},
			{Name: "Kawasaki", Country: "JP", Distance: f64(18)},
			{Name: "Chiba", Country: "JP"},
			{Name: "Saitama", Country: "JP", Distance: f64(24)},
			{Name: "Sagamihara", Country: "JP", Distance: f64(40)},
			{Name: "Hachioji", Country: "JP", Distance: f64(41)},
		},
	}

	v := Render(r, Input{Lat: 35.6762, Lon: 139.6503, DistanceKM: f64(9262.44), Now: testNow})

	if v.LocalTime != "09:15 PM" || v.LocalDate != "Sun, Jun 1" {
		t.Errorf("local time = %q %q, want 09:15 PM Sun, Jun 1", v.LocalTime, v.LocalDate)
	}
	if v.Distance != "9262.4 km" || v.DistanceFromYou != "9262.4 km from you" || !v.DistanceKnown {
		t.Errorf("distance = %q / %q / %v", v.Distance, v.DistanceFromYou, v.DistanceKnown)
	}
	if v.AQI.Value != "150" || v.AQI.Label != "Unhealthy for Sensitive Groups" || v.AQI.Color != "#FF7E00" || v.AQI.Level != 3 {
		t.Errorf("aqi = %+v", v.AQI)
	}
	if v.AQI.GaugePercent != 50 {
		t.Errorf("GaugePercent = %v, want 50", v.AQI.GaugePercent)
	}

	wantPollutants := []PollutantView{
		{Key: "pm2_5", Symbol: "PM2.5", Value: "35.5", Unit: "μg/m³"},
		{Key: "no2", Symbol: "NO₂", Value: "12.0", Unit: "μg/m³"},
		{Key: "o3", Symbol: "O₃", Value: "60.0", Unit: "μg/m³"},
	}
	if len(v.AQI.Pollutants) != len(wantPollutants) {
		t.Fatalf("pollutants = %+v, want %+v", v.AQI.Pollutants, wantPollutants)
	}
	for i, want := range wantPollutants {
		if v.AQI.Pollutants[i] != want {
			t.Errorf("pollutant[%d] = %+v, want %+v", i, v.AQI.Pollutants[i], want)
		}
	}

	if len(v.AQI.History) != 2 || v.AQI.History[0].Label != "9:00" || v.AQI.History[1].Label != "not a time" {
		t.Errorf("history = %+v", v.AQI.History)
	}

	w := v.Weather
	weather := []struct{ got, want string }{
		{w.Temperature, "0.0"},
		{w.Description, "clear sky"},
		{w.FeelsLike, "21.3°C"},
		{w.Humidity, "64%"},
		{w.WindSpeed, "18.0 km/h"},
		{w.CloudCover, "12.5%"},
		{w.DewPoint, "14.0°C"},
		{w.Visibility, "10.0 km"},
		{w.Precipitation, "0.2 mm"},
		{w.PrecipitationProbability, "30%"},
		{w.Pressure, "1014 hPa"},
		{w.Icon, "fa-sun"},
	}
	for i, c := range weather {
		if c.got != c.want {
			t.Errorf("weather[%d] = %q, want %q", i, c.got, c.want)
		}
	}
	if w.Trend != (TrendView{Icon: "fa-arrow-down", Color: "#FF4444", Text: "Falling"}) {
		t.Errorf("trend = %+v", w.Trend)
	}

	rec := v.Recommendations
	if rec.Health != "Sensitive groups should limit exertion" || rec.Activity != NoData {
		t.Errorf("recommendations = %+v", rec)
	}
	if rec.Safety != (SafetyView{Safe: true, Text: "Safe to go outside", Icon: "fa-check-circle", Class: "safe"}) {
		t.Errorf("safety = %+v", rec.Safety)
	}

	if len(v.Nearby) != 5 {
		t.Fatalf("nearby = %d entries, want 5", len(v.Nearby))
	}
	if v.Nearby[0].Distance != "27.5 km" || v.Nearby[2].Distance != "-- km" || v.Nearby[4].Name != "Sagamihara" {
		t.Errorf("nearby = %+v", v.Nearby)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		aqi   float64
		label string
		level int
	}{
		{0, "Good", 1},
		{50, "Good", 1},
		{51, "Moderate", 2},
		{100, "Moderate", 2},
		{150, "Unhealthy for Sensitive Groups", 3},
		{200, "Unhealthy", 4},
		{300, "Very Unhealthy", 5},
		{301, "Hazardous", 6},
	}
	for _, tt := range tests {
		got := LevelFor(tt.aqi)
		if got.Label != tt.label || got.Level != tt.level {
			t.Errorf("LevelFor(%v) = %+v, want %s/%d", tt.aqi, got, tt.label, tt.level)
		}
	}
}

func TestRender_GaugeCapped(t *testing.T) {
	v := Render(citydata.Result{AQI: &citydata.AQI{Value: f64(450)}}, Input{Now: testNow})
	if v.AQI.GaugePercent != 100 {
		t.Errorf("GaugePercent = %v, want 100", v.AQI.GaugePercent)
	}
}

func TestWeatherIcon(t *testing.T) {
	tests := []struct {
		code *int
		want string
	}{
		{nil, "fa-cloud"},
		{code(0), "fa-sun"},
		{code(2), "fa-cloud-sun"},
		{code(3), "fa-cloud"},
		{code(45), "fa-smog"},
		{code(53), "fa-cloud-rain"},
		{code(63), "fa-cloud-showers-heavy"},
		{code(75), "fa-snowflake"},
		{code(81), "fa-cloud-rain"},
		{code(86), "fa-snowflake"},
		{code(95), "fa-cloud-bolt"},
		{code(99), "fa-cloud-bolt"},
		{code(60), "fa-cloud"},
	}
	for _, tt := range tests {
		if got := WeatherIcon(tt.code); got != tt.want {
			t.Errorf("WeatherIcon(%v) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestPressureTrend(t *testing.T) {
	if got := PressureTrend("rising"); got.Text != "Rising" || got.Icon != "fa-arrow-up" || got.Color != "#4CAF50" {
		t.Errorf("rising = %+v", got)
	}
	if got := PressureTrend("sideways"); got.Text != "Stable" || got.Icon != "fa-minus" {
		t.Errorf("unknown trend = %+v", got)
	}
}

func TestNearbyView_SelectionJSON(t *testing.T) {
	n := NearbyView{Name: "Lyon", Lat: 45.76, Lon: 4.83}
	var got map[string]any
	if err := json.Unmarshal([]byte(n.SelectionJSON()), &got); err != nil {
		t.Fatalf("SelectionJSON() not JSON: %v", err)
	}
	if got["label"] != "Lyon" || got["source"] != "nearby" || got["lat"] != 45.76 || got["lon"] != 4.83 {
		t.Errorf("SelectionJSON() = %v", got)
	}
}
