package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/twmccart/watchface1/internal/weather"
)

// DefaultOpenWeatherURL is the current-weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// breakerOpenTimeout is how long the breaker short-circuits after tripping.
// It must stay below the device polling interval.
const breakerOpenTimeout = 30 * time.Second

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	return newOpenWeatherProvider(client, apiKey, baseURL, breakerOpenTimeout)
}

func newOpenWeatherProvider(client *http.Client, apiKey, baseURL string, openTimeout time.Duration) *OpenWeatherProvider {
	// Only transport errors and 5xx responses count as failures (see doRequest).
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current fetches the current weather at the given coordinates.
func (p *OpenWeatherProvider) Current(ctx context.Context, at weather.Coordinates) (weather.Sample, error) {
	if p.apiKey == "" {
		return weather.Sample{}, fmt.Errorf("%w: openweather api key is not configured", ErrFetch)
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Sample{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	body, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Sample{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return ParseCurrentWeather(body)
}

type owmCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrent struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		TempMin  *float64 `json:"temp_min"`
		TempMax  *float64 `json:"temp_max"`
	} `json:"main"`
	Sys *struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
	// Decoded separately so a malformed array only drops the condition.
	Weather json.RawMessage `json:"weather"`
	Name    string          `json:"name"`
}

// ParseCurrentWeather decodes an OpenWeatherMap current-weather body.
// Invalid JSON yields weather.ErrParse; missing main/sys values yield
// weather.ErrMalformedSample. A missing or malformed weather array only
// drops the condition information.
func ParseCurrentWeather(body []byte) (weather.Sample, error) {
	var payload owmCurrent
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Sample{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}

	m, s := payload.Main, payload.Sys
	if m == nil || s == nil {
		return weather.Sample{}, fmt.Errorf("%w: main or sys object missing", weather.ErrMalformedSample)
	}
	if m.Temp == nil || m.Humidity == nil || m.TempMin == nil || m.TempMax == nil {
		return weather.Sample{}, fmt.Errorf("%w: main.temp/humidity/temp_min/temp_max required", weather.ErrMalformedSample)
	}
	if s.Sunrise == nil || s.Sunset == nil {
		return weather.Sample{}, fmt.Errorf("%w: sys.sunrise/sunset required", weather.ErrMalformedSample)
	}

	sample := weather.Sample{
		TemperatureC: *m.Temp,
		HumidityPct:  *m.Humidity,
		TempMinC:     *m.TempMin,
		TempMaxC:     *m.TempMax,
		Sunrise:      *s.Sunrise,
		Sunset:       *s.Sunset,
		PlaceName:    payload.Name,
	}

	if cond, ok := firstCondition(payload.Weather); ok {
		sample.Icon = cond.Icon
		sample.ConditionText = cond.Main
		if sample.ConditionText == "" {
			sample.ConditionText = cond.Description
		}
		sample.ConditionID = cond.ID
	}

	return sample, nil
}

func firstCondition(raw json.RawMessage) (owmCondition, bool) {
	if len(raw) == 0 {
		return owmCondition{}, false
	}
	var items []owmCondition
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return owmCondition{}, false
	}
	return items[0], true
}
