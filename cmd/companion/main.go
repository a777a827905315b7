package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/twmccart/watchface1/internal/api/http"
	"github.com/twmccart/watchface1/internal/config"
	"github.com/twmccart/watchface1/internal/dispatch"
	"github.com/twmccart/watchface1/internal/geo"
	"github.com/twmccart/watchface1/internal/logging"
	"github.com/twmccart/watchface1/internal/settings"
	"github.com/twmccart/watchface1/internal/store"
	"github.com/twmccart/watchface1/internal/transport"
	"github.com/twmccart/watchface1/internal/weather"
	"github.com/twmccart/watchface1/internal/weather/providers"
)

var version = "dev"

const appName = "watchface-companion"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg, version, appName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		log.Error("failed to open settings store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	prefs := settings.NewSynchronizer(kv, log.With("component", "settings"))

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.OpenWeather.Timeout,
	}
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeather.APIKey, cfg.OpenWeather.BaseURL)
	service := weather.NewService(provider, log.With("component", "weather"))

	var locator geo.Locator
	if cfg.FixedCoordinates() == nil && !cfg.TestMode() {
		g, err := geo.NewGeocoder(cfg.Geocoder.APIKey, cfg.Location.City, cfg.Location.Country)
		if err != nil {
			log.Warn("geolocation disabled", "error", err)
		} else {
			locator = g
		}
	}

	link := newLink(cfg, log.With("component", "transport"))
	defer link.close()

	ctrl := dispatch.NewController(service, locator, prefs, link.sender, dispatch.Options{
		TestMode:         cfg.TestMode(),
		FixedCoordinates: cfg.FixedCoordinates(),
		GeoTimeout:       cfg.Geocoder.Timeout,
	}, log.With("component", "dispatch"))

	if link.onInbound != nil {
		link.onInbound(ctrl.HandleInbound)
	}
	link.start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"state":   ctrl.State().String(),
		})
	})

	httpapi.RegisterRoutes(app, ctrl, prefs)

	go func() {
		log.Info("http server listening", "addr", cfg.ServerAddr(), "settings", cfg.SettingsURL())
		if err := app.Listen(cfg.ServerAddr()); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	go ctrl.Start(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("companion stopped")
}

type deviceLink struct {
	sender    transport.Sender
	onInbound func(transport.InboundHandler)
	start     func(ctx context.Context)
	close     func()
}

// newLink builds the configured device transport. Nothing is opened until
// start; messages sent before the link is up fail with ErrTransport.
func newLink(cfg *config.Config, log *slog.Logger) deviceLink {
	switch cfg.Transport.Kind {
	case "mqtt":
		m := transport.NewMQTT(transport.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			Port:        cfg.MQTT.Port,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		}, transport.RoleCompanion, log)

		return deviceLink{
			sender:    m,
			onInbound: m.OnInbound,
			start: func(ctx context.Context) {
				connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
				defer cancel()
				if err := m.Connect(connectCtx); err != nil {
					log.Error("mqtt connect failed, retrying in background", "error", err)
				}
			},
			close: m.Close,
		}

	case "serial":
		s := transport.NewSerial(transport.SerialConfig{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.Serial.ReadTimeout,
		}, transport.RoleCompanion, log)

		return deviceLink{
			sender:    s,
			onInbound: s.OnInbound,
			start:     func(ctx context.Context) { go s.Run(ctx) },
			close:     s.Close,
		}

	default:
		return deviceLink{
			sender: transport.NewLogSender(log),
			start:  func(context.Context) {},
			close:  func() {},
		}
	}
}
