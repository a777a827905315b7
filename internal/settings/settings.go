package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/twmccart/watchface1/internal/message"
	"github.com/twmccart/watchface1/internal/store"
)

// Key is the persistence key of the dark-mode preference.
const Key = "dark_mode"

var (
	// ErrDecode is returned for a close event that is not {"D": 0|1}.
	ErrDecode = errors.New("malformed settings close event")

	errNoStore = errors.New("no settings store configured")
)

// Preference is the display preference synchronized with the device.
type Preference struct {
	DarkMode bool `json:"darkMode"`
}

// DefaultPreference applies when nothing has been stored yet.
var DefaultPreference = Preference{DarkMode: true}

func (p Preference) storedValue() string {
	if p.DarkMode {
		return "1"
	}
	return "0"
}

// Store is the key-value persistence the synchronizer needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Synchronizer owns the dark-mode preference.
type Synchronizer struct {
	store  Store
	logger *slog.Logger
}

// NewSynchronizer creates a Synchronizer. A nil store behaves as an empty
// one: Load returns the default and Save fails.
func NewSynchronizer(s Store, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{store: s, logger: logger}
}

// Load returns the stored preference, or DefaultPreference when nothing
// usable is stored. It never fails.
func (s *Synchronizer) Load(ctx context.Context) Preference {
	p, _ := s.Stored(ctx)
	return p
}

// Stored is Load plus whether the value came from storage.
func (s *Synchronizer) Stored(ctx context.Context) (Preference, bool) {
	if s.store == nil {
		return DefaultPreference, false
	}

	v, err := s.store.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("reading display preference failed, using default", "error", err)
		}
		return DefaultPreference, false
	}

	switch v {
	case "1":
		return Preference{DarkMode: true}, true
	case "0":
		return Preference{DarkMode: false}, true
	default:
		s.logger.Warn("ignoring unexpected stored display preference", "value", v)
		return DefaultPreference, false
	}
}

// Save persists p.
func (s *Synchronizer) Save(ctx context.Context, p Preference) error {
	if s.store == nil {
		return errNoStore
	}
	return s.store.Set(ctx, Key, p.storedValue())
}

// HandleClose decodes a settings close event, persists the new preference
// and returns the DARK_MODE message to send. A decode error leaves the
// stored value untouched. A failed write is logged and the message is
// still returned so the device reflects the user's choice.
func (s *Synchronizer) HandleClose(ctx context.Context, raw string) (message.Message, error) {
	p, err := DecodeCloseEvent(raw)
	if err != nil {
		return message.Message{}, err
	}

	if err := s.Save(ctx, p); err != nil {
		s.logger.Warn("persisting display preference failed", "error", err)
	} else {
		s.logger.Info("display preference updated", "dark_mode", p.DarkMode)
	}
	return EncodePreference(p), nil
}

// EncodePreference returns a message carrying only DARK_MODE.
func EncodePreference(p Preference) message.Message {
	return message.Message{DarkMode: message.Ptr(p.DarkMode)}
}

// DecodeCloseEvent parses the URL-fragment payload returned by the settings
// page: a URI-encoded JSON object whose "D" member is "0", "1", 0 or 1.
// A full close URL is accepted; everything up to the '#' is ignored.
func DecodeCloseEvent(raw string) (Preference, error) {
	if i := strings.LastIndex(raw, "#"); i >= 0 {
		raw = raw[i+1:]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Preference{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return Preference{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(decoded), &obj); err != nil {
		return Preference{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	d, ok := obj["D"]
	if !ok {
		return Preference{}, fmt.Errorf("%w: missing D", ErrDecode)
	}

	var s string
	if err := json.Unmarshal(d, &s); err == nil {
		switch s {
		case "1":
			return Preference{DarkMode: true}, nil
		case "0":
			return Preference{DarkMode: false}, nil
		}
		return Preference{}, fmt.Errorf("%w: D=%q", ErrDecode, s)
	}

	var n json.Number
	if err := json.Unmarshal(d, &n); err == nil {
		switch n.String() {
		case "1":
			return Preference{DarkMode: true}, nil
		case "0":
			return Preference{DarkMode: false}, nil
		}
	}
	return Preference{}, fmt.Errorf("%w: D=%s", ErrDecode, string(d))
}
