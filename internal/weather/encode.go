package weather

import (
	"errors"
	"math"

	"github.com/twmccart/watchface1/internal/message"
)

var (
	// ErrParse is returned when the upstream body is not valid JSON.
	ErrParse = errors.New("malformed upstream json")
	// ErrMalformedSample is returned when required upstream fields are missing.
	ErrMalformedSample = errors.New("malformed weather sample")
)

// Encode turns a sample into the device message. TEMP through SKY_COND are
// always set; SKY_GLYPH and SKY_ICON only when the mapper yields them and
// CITY_NAME only for a non-empty place name.
func Encode(s Sample) message.Message {
	cond := MapCondition(s.Icon, s.ConditionText)

	m := message.Message{
		Temp:     message.Ptr(round(s.TemperatureC)),
		Humidity: message.Ptr(round(s.HumidityPct)),
		TempMin:  message.Ptr(round(s.TempMinC)),
		TempMax:  message.Ptr(round(s.TempMaxC)),
		Sunrise:  message.Ptr(s.Sunrise),
		Sunset:   message.Ptr(s.Sunset),
		SkyCond:  message.Ptr(int(cond.Sky)),
	}
	if cond.Glyph != "" {
		m.SkyGlyph = message.Ptr(cond.Glyph)
	}
	if cond.Icon != "" {
		m.SkyIcon = message.Ptr(cond.Icon)
	}
	if s.PlaceName != "" {
		m.CityName = message.Ptr(s.PlaceName)
	}
	return m
}

// round rounds half up (21.5 -> 22, -2.5 -> -2).
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
