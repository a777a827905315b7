package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/twmccart/watchface1/internal/geo"
	"github.com/twmccart/watchface1/internal/message"
	"github.com/twmccart/watchface1/internal/settings"
	"github.com/twmccart/watchface1/internal/transport"
	"github.com/twmccart/watchface1/internal/weather"
)

// State is the controller's position in the weather cycle.
type State int

const (
	Idle State = iota
	Fetching
	Delivered
	FallbackDelivered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Delivered:
		return "delivered"
	case FallbackDelivered:
		return "fallback_delivered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNoLocation is returned when neither fixed coordinates nor a locator
// are available.
var ErrNoLocation = errors.New("no location source configured")

// Fetcher returns an encoded weather message for a position.
type Fetcher interface {
	Fetch(ctx context.Context, at weather.Coordinates) (message.Message, error)
}

// Preferences is the settings side of the controller.
type Preferences interface {
	Stored(ctx context.Context) (settings.Preference, bool)
	HandleClose(ctx context.Context, raw string) (message.Message, error)
}

// Options tunes a Controller.
type Options struct {
	// TestMode sends the fixed fallback message instead of fetching.
	TestMode bool
	// FixedCoordinates, when set, take precedence over the locator.
	FixedCoordinates *weather.Coordinates
	// GeoTimeout bounds one locator call. Zero means geo.DefaultTimeout.
	GeoTimeout time.Duration
	// Now is the clock used for the fallback message.
	Now func() time.Time
}

// Controller reacts to lifecycle and device events and pushes messages to
// the device. Handlers never fail the caller because of the device link.
type Controller struct {
	fetcher Fetcher
	locator geo.Locator
	prefs   Preferences
	sender  transport.Sender
	opts    Options
	logger  *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewController wires a Controller. locator may be nil when fixed
// coordinates are configured or test mode is on.
func NewController(fetcher Fetcher, locator geo.Locator, prefs Preferences, sender transport.Sender, opts Options, logger *slog.Logger) *Controller {
	if opts.GeoTimeout <= 0 {
		opts.GeoTimeout = geo.DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		fetcher: fetcher,
		locator: locator,
		prefs:   prefs,
		sender:  sender,
		opts:    opts,
		logger:  logger,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start runs the first weather cycle and then pushes the display preference.
// The preference is sent whatever the outcome of the weather cycle.
func (c *Controller) Start(ctx context.Context) {
	c.logger.Info("companion ready", "test_mode", c.opts.TestMode)

	c.Refresh(ctx)

	p, stored := c.prefs.Stored(ctx)
	source := "default"
	if stored {
		source = "storage"
	}
	c.logger.Info("pushing display preference", "dark_mode", p.DarkMode, "source", source)
	c.send(ctx, settings.EncodePreference(p))
}

// Refresh runs one weather cycle and returns the state it ended in.
func (c *Controller) Refresh(ctx context.Context) State {
	log := c.logger.With("cycle", uuid.NewString())

	if c.opts.TestMode {
		log.Info("test mode, sending fallback weather")
		c.sendWith(ctx, log, weather.Fallback(c.opts.Now()))
		c.setState(FallbackDelivered)
		return FallbackDelivered
	}

	at, err := c.resolve(ctx)
	if err != nil {
		log.Warn("could not determine location", "error", err)
		c.setState(Idle)
		return Idle
	}

	c.setState(Fetching)
	log.Info("requesting weather", "coords", at.String())

	m, err := c.fetcher.Fetch(ctx, at)
	if err != nil {
		log.Error("weather update failed", "error", err)
		c.setState(Idle)
		return Idle
	}

	c.sendWith(ctx, log, m)
	c.setState(Delivered)
	return Delivered
}

func (c *Controller) resolve(ctx context.Context) (weather.Coordinates, error) {
	if c.opts.FixedCoordinates != nil {
		return *c.opts.FixedCoordinates, nil
	}
	if c.locator == nil {
		return weather.Coordinates{}, ErrNoLocation
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.GeoTimeout)
	defer cancel()
	return c.locator.Locate(ctx)
}

// HandleInbound refreshes when the device asks for it and ignores anything else.
func (c *Controller) HandleInbound(ctx context.Context, in message.Inbound) {
	if !in.RefreshRequested() {
		c.logger.Debug("ignoring device message", "keys", len(in))
		return
	}
	c.logger.Info("device requested weather")
	c.Refresh(ctx)
}

// HandleSettingsClosed applies a settings close event and sends the
// resulting preference. Decode errors are returned and nothing is sent.
func (c *Controller) HandleSettingsClosed(ctx context.Context, raw string) error {
	m, err := c.prefs.HandleClose(ctx, raw)
	if err != nil {
		c.logger.Warn("ignoring settings response", "error", err)
		return err
	}
	c.send(ctx, m)
	return nil
}

func (c *Controller) send(ctx context.Context, m message.Message) {
	c.sendWith(ctx, c.logger, m)
}

func (c *Controller) sendWith(ctx context.Context, log *slog.Logger, m message.Message) {
	if err := c.sender.Send(ctx, m); err != nil {
		log.Error("error sending message to device", "error", err)
		return
	}
	log.Debug("message handed to device link", "fields", len(m.Fields()))
}
