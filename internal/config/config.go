package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/twmccart/watchface1/internal/weather"
)

// Config is the immutable process configuration.
type Config struct {
	App         AppConfig
	OpenWeather OpenWeatherConfig
	Location    LocationConfig
	Geocoder    GeocoderConfig
	Store       StoreConfig
	Transport   TransportConfig
	MQTT        MQTTConfig
	Serial      SerialConfig
	HTTP        HTTPConfig
	Log         LogConfig
	Sim         SimConfig
}

type AppConfig struct {
	Env string `validate:"oneof=dev prod test"`
}

type OpenWeatherConfig struct {
	// APIKey left empty, or a "<placeholder>", switches the companion to test mode.
	APIKey  string
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type LocationConfig struct {
	Lat     *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `validate:"omitempty,gte=-180,lte=180"`
	City    string
	Country string
}

type GeocoderConfig struct {
	APIKey  string
	Timeout time.Duration `validate:"gt=0"`
}

type StoreConfig struct {
	// Path of the SQLite database; ":memory:" keeps settings in memory.
	Path string `validate:"required"`
}

type TransportConfig struct {
	Kind string `validate:"oneof=mqtt serial log"`
}

type MQTTConfig struct {
	Broker      string `validate:"required"`
	Port        int    `validate:"gt=0,lte=65535"`
	ClientID    string `validate:"required"`
	TopicPrefix string `validate:"required"`
	QoS         int    `validate:"gte=0,lte=2"`
}

type SerialConfig struct {
	Device      string
	Baud        int           `validate:"gt=0"`
	ReadTimeout time.Duration `validate:"gt=0"`
}

type HTTPConfig struct {
	Port int `validate:"gt=0,lte=65535"`
	// PublicURL is where the device can reach the settings page.
	PublicURL string
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn warning error"`
}

// SimConfig drives the device emulator.
type SimConfig struct {
	Interval time.Duration `validate:"gt=0"`
	Cooldown time.Duration `validate:"gte=0"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("openweather.apikey", "")
	v.SetDefault("openweather.baseurl", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("openweather.timeout", "10s")
	v.SetDefault("location.city", "")
	v.SetDefault("location.country", "")
	v.SetDefault("geocoder.apikey", "")
	v.SetDefault("geocoder.timeout", "10s")
	v.SetDefault("store.path", "watchface.db")
	v.SetDefault("transport.kind", "log")
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.clientid", "watchface-companion")
	v.SetDefault("mqtt.topicprefix", "watchface")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("serial.device", "")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.readtimeout", "1s")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.publicurl", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("sim.interval", "30m")
	v.SetDefault("sim.cooldown", "1m")
}

// Load reads .env, config.yaml and WATCHFACE_* environment variables, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvPrefix("WATCHFACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Optional keys have no default, so AutomaticEnv alone never sees them.
	_ = v.BindEnv("location.lat")
	_ = v.BindEnv("location.lon")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.Location.Lat == nil) != (c.Location.Lon == nil) {
		return fmt.Errorf("invalid configuration: location.lat and location.lon must be set together")
	}
	switch c.Transport.Kind {
	case "serial":
		if c.Serial.Device == "" {
			return fmt.Errorf("invalid configuration: serial.device is required for the serial transport")
		}
	}
	return nil
}

// TestMode reports whether weather should be replaced by the fixed fallback.
func (c *Config) TestMode() bool {
	key := strings.TrimSpace(c.OpenWeather.APIKey)
	return key == "" || strings.HasPrefix(key, "<")
}

// FixedCoordinates returns the configured position, or nil when the
// position should come from geolocation.
func (c *Config) FixedCoordinates() *weather.Coordinates {
	if c.Location.Lat == nil || c.Location.Lon == nil {
		return nil
	}
	return &weather.Coordinates{Lat: *c.Location.Lat, Lon: *c.Location.Lon}
}

// LogLevel parses Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServerAddr returns the listen address in the form ":port".
func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

// SettingsURL is the absolute settings page address announced to the device.
func (c *Config) SettingsURL() string {
	base := strings.TrimRight(c.HTTP.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	return base + "/settings"
}
