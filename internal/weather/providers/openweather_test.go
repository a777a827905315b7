package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/twmccart/watchface1/internal/weather"
)

const clearDayBody = `{
	"main": {"temp": 21.4, "humidity": 55, "temp_min": 18.6, "temp_max": 23.2},
	"sys": {"sunrise": 1700000000, "sunset": 1700030000},
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
	"name": "Testville"
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenWeatherProvider(&http.Client{Timeout: 5 * time.Second}, "test-key", srv.URL)
}

func TestCurrentBuildsQuery(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "40.7128" || q.Get("lon") != "-74.006" {
			t.Errorf("unexpected coordinates: %s", r.URL.RawQuery)
		}
		if q.Get("units") != "metric" {
			t.Errorf("expected metric units, got %q", q.Get("units"))
		}
		if q.Get("appid") != "test-key" {
			t.Errorf("expected appid, got %q", q.Get("appid"))
		}
		_, _ = w.Write([]byte(clearDayBody))
	})

	s, err := p.Current(context.Background(), weather.Coordinates{Lat: 40.7128, Lon: -74.006})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TemperatureC != 21.4 || s.Sunrise != 1700000000 || s.Sunset != 1700030000 {
		t.Fatalf("unexpected sample: %+v", s)
	}
	if s.Icon != "01d" || s.ConditionText != "Clear" || s.ConditionID != 800 || s.PlaceName != "Testville" {
		t.Fatalf("unexpected condition fields: %+v", s)
	}
}

func TestCurrentServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Current(context.Background(), weather.Coordinates{})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestCurrentUnauthorized(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	})

	_, err := p.Current(context.Background(), weather.Coordinates{})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestCurrentIssuesSingleRequest(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := p.Current(context.Background(), weather.Coordinates{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", calls)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	for i := 0; i < 8; i++ {
		_, err := p.Current(context.Background(), weather.Coordinates{})
		if !errors.Is(err, ErrFetch) || errors.Is(err, errCircuitOpen) {
			t.Fatalf("request %d: expected plain fetch error, got %v", i, err)
		}
	}
	if calls.Load() != 8 {
		t.Fatalf("expected every request to reach the upstream, got %d", calls.Load())
	}
}

func TestBreakerRecoversAfterOpenWindow(t *testing.T) {
	var calls atomic.Int32
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(clearDayBody))
	}))
	t.Cleanup(srv.Close)

	p := newOpenWeatherProvider(&http.Client{Timeout: 5 * time.Second}, "test-key", srv.URL, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		if _, err := p.Current(context.Background(), weather.Coordinates{}); err == nil {
			t.Fatalf("request %d: expected error", i)
		}
	}

	healthy.Store(true)
	if _, err := p.Current(context.Background(), weather.Coordinates{}); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected open breaker to fail fast, got %v", err)
	}
	if calls.Load() != 5 {
		t.Fatalf("expected open breaker to skip the upstream, got %d calls", calls.Load())
	}

	time.Sleep(100 * time.Millisecond)
	s, err := p.Current(context.Background(), weather.Coordinates{})
	if err != nil {
		t.Fatalf("expected recovery after the open window, got %v", err)
	}
	if s.PlaceName != "Testville" || calls.Load() != 6 {
		t.Fatalf("unexpected recovery: sample %+v, calls %d", s, calls.Load())
	}
}

func TestCurrentWithoutKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", "")
	if _, err := p.Current(context.Background(), weather.Coordinates{}); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestParseCurrentWeatherErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"not json", `not-json`, weather.ErrParse},
		{"truncated", `{"main":`, weather.ErrParse},
		{"no main", `{"sys":{"sunrise":1,"sunset":2}}`, weather.ErrMalformedSample},
		{"no sys", `{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3}}`, weather.ErrMalformedSample},
		{"no temp", `{"main":{"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2}}`, weather.ErrMalformedSample},
		{"no sunset", `{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1}}`, weather.ErrMalformedSample},
	}

	for _, tc := range cases {
		if _, err := ParseCurrentWeather([]byte(tc.body)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestParseCurrentWeatherDegradesCondition(t *testing.T) {
	bodies := []string{
		`{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2}}`,
		`{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2},"weather":[]}`,
		`{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2},"weather":"oops"}`,
		`{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2},"weather":null}`,
	}

	for _, body := range bodies {
		s, err := ParseCurrentWeather([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if s.Icon != "" || s.ConditionText != "" || s.ConditionID != 0 {
			t.Fatalf("%s: expected no condition information, got %+v", body, s)
		}
		m := weather.Encode(s)
		if m.SkyCond == nil || *m.SkyCond != 0 {
			t.Fatalf("%s: expected default sky condition", body)
		}
	}
}

func TestParseCurrentWeatherDescriptionFallback(t *testing.T) {
	body := `{"main":{"temp":1,"humidity":2,"temp_min":0,"temp_max":3},"sys":{"sunrise":1,"sunset":2},"weather":[{"description":"light rain"}]}`
	s, err := ParseCurrentWeather([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ConditionText != "light rain" {
		t.Fatalf("expected description fallback, got %q", s.ConditionText)
	}
}
