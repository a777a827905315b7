// Command watchsim emulates the watch side of the link: it polls the
// companion for weather on a schedule and logs every message it receives.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmccart/watchface1/internal/config"
	"github.com/twmccart/watchface1/internal/logging"
	"github.com/twmccart/watchface1/internal/message"
	"github.com/twmccart/watchface1/internal/scheduler"
	"github.com/twmccart/watchface1/internal/transport"
	"github.com/twmccart/watchface1/internal/weather"
)

var version = "dev"

const appName = "watchsim"

type deviceLink interface {
	scheduler.Requester
	OnDownlink(h transport.DownlinkHandler)
	Close()
}

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

	var link deviceLink
	switch cfg.Transport.Kind {
	case "mqtt":
		m := transport.NewMQTT(transport.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			Port:        cfg.MQTT.Port,
			ClientID:    cfg.MQTT.ClientID + "-sim",
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		}, transport.RoleDevice, log)
		m.OnDownlink(func(_ context.Context, msg message.Message) { show(log, msg) })

		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := m.Connect(connectCtx)
		cancel()
		if err != nil {
			log.Error("mqtt connect failed", "error", err)
			os.Exit(1)
		}
		link = m

	case "serial":
		s := transport.NewSerial(transport.SerialConfig{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.Serial.ReadTimeout,
		}, transport.RoleDevice, log)
		s.OnDownlink(func(_ context.Context, msg message.Message) { show(log, msg) })
		go s.Run(ctx)
		link = s

	default:
		log.Error("watchsim needs the mqtt or serial transport", "transport", cfg.Transport.Kind)
		os.Exit(1)
	}
	defer link.Close()

	sched := scheduler.New(link, cfg.Sim.Interval, cfg.Sim.Cooldown, log.With("component", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	<-ctx.Done()
	log.Info("watchsim stopped")
}

// show logs a received message the way the watch face would render it.
func show(log *slog.Logger, m message.Message) {
	attrs := []any{"fields", len(m.Fields())}
	if m.Temp != nil {
		attrs = append(attrs, "temp_c", *m.Temp)
	}
	if m.TempMin != nil && m.TempMax != nil {
		attrs = append(attrs, "range", []int{*m.TempMin, *m.TempMax})
	}
	if m.Humidity != nil {
		attrs = append(attrs, "humidity", *m.Humidity)
	}
	if m.SkyCond != nil {
		attrs = append(attrs, "sky", weather.SkyCondition(*m.SkyCond).String())
	}
	if m.SkyIcon != nil {
		attrs = append(attrs, "icon", *m.SkyIcon)
	}
	if m.Sunrise != nil && m.Sunset != nil {
		attrs = append(attrs,
			"sunrise", time.Unix(*m.Sunrise, 0).Format(time.Kitchen),
			"sunset", time.Unix(*m.Sunset, 0).Format(time.Kitchen),
		)
	}
	if m.CityName != nil {
		attrs = append(attrs, "city", *m.CityName)
	}
	if m.DarkMode != nil {
		attrs = append(attrs, "dark_mode", *m.DarkMode)
	}
	log.Info("watch received message", attrs...)
}
