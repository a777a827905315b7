package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Transport.Kind != "log" || cfg.HTTP.Port != 8080 || cfg.MQTT.TopicPrefix != "watchface" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OpenWeather.Timeout != 10*time.Second || cfg.Sim.Interval != 30*time.Minute {
		t.Fatalf("unexpected durations %v %v", cfg.OpenWeather.Timeout, cfg.Sim.Interval)
	}
	if !cfg.TestMode() {
		t.Fatalf("an empty api key should enable test mode")
	}
	if cfg.FixedCoordinates() != nil {
		t.Fatalf("no fixed coordinates expected")
	}
	if cfg.ServerAddr() != ":8080" || cfg.SettingsURL() != "http://localhost:8080/settings" {
		t.Fatalf("unexpected addresses %s %s", cfg.ServerAddr(), cfg.SettingsURL())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WATCHFACE_OPENWEATHER_APIKEY", "abc123")
	t.Setenv("WATCHFACE_LOCATION_LAT", "48.8566")
	t.Setenv("WATCHFACE_LOCATION_LON", "2.3522")
	t.Setenv("WATCHFACE_TRANSPORT_KIND", "mqtt")
	t.Setenv("WATCHFACE_LOG_LEVEL", "debug")
	t.Setenv("WATCHFACE_HTTP_PUBLICURL", "https://watch.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TestMode() {
		t.Fatalf("a real key should disable test mode")
	}
	c := cfg.FixedCoordinates()
	if c == nil || c.Lat != 48.8566 || c.Lon != 2.3522 {
		t.Fatalf("unexpected coordinates %v", c)
	}
	if cfg.Transport.Kind != "mqtt" || cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SettingsURL() != "https://watch.example.com/settings" {
		t.Fatalf("unexpected settings url %s", cfg.SettingsURL())
	}
}

func TestPlaceholderKeyIsTestMode(t *testing.T) {
	cfg := &Config{OpenWeather: OpenWeatherConfig{APIKey: "<your-api-key>"}}
	if !cfg.TestMode() {
		t.Fatalf("placeholder key should enable test mode")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"latitude out of range": {"WATCHFACE_LOCATION_LAT": "91", "WATCHFACE_LOCATION_LON": "0"},
		"lat without lon":       {"WATCHFACE_LOCATION_LAT": "10"},
		"unknown transport":     {"WATCHFACE_TRANSPORT_KIND": "carrier-pigeon"},
		"serial without device": {"WATCHFACE_TRANSPORT_KIND": "serial"},
		"bad qos":               {"WATCHFACE_MQTT_QOS": "3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}
