package weather

import "github.com/twmccart/watchface1/internal/common"

// iconGlyphs maps OpenWeatherMap icon codes to Weather Icons font glyphs.
// Codes missing from this table never get a glyph.
var iconGlyphs = map[string]string{
	"01d": "\uf00d", // day-sunny
	"02d": "\uf00c", // day-sunny-overcast
	"03d": "\uf002", // day-cloudy
	"04d": "\uf013", // cloudy
	"09d": "\uf01a", // showers
	"10d": "\uf019", // rain
	"11d": "\uf01d", // storm-showers
	"13d": "\uf01b", // snow
	"50d": "\uf003", // day-fog
	"01n": "\uf02e", // night-clear
	"02n": "\uf081", // night-alt-partly-cloudy
	"03n": "\uf031", // night-alt-cloudy
	"04n": "\uf013",
	"09n": "\uf01a",
	"10n": "\uf019",
	"11n": "\uf01d",
	"13n": "\uf01b",
	"50n": "\uf04a", // night-fog
}

// Glyph returns the glyph for an icon code, if the table has one.
func Glyph(icon string) (string, bool) {
	g, ok := iconGlyphs[icon]
	return g, ok
}

// Condition is the mapped sky information for one sample. Glyph and Icon
// are empty when absent.
type Condition struct {
	Sky   SkyCondition
	Glyph string
	Icon  string
}

// MapCondition derives the glyph from the icon table and, independently,
// the sky condition from the condition text. It never fails: missing or
// unrecognised text resolves to SkyClear.
func MapCondition(icon, text string) Condition {
	c := Condition{Icon: icon, Sky: skyFromText(text)}
	if g, ok := Glyph(icon); ok {
		c.Glyph = g
	}
	return c
}

func skyFromText(text string) SkyCondition {
	switch {
	case common.HasAnyFold(text, "cloud"):
		return SkyCloud
	case common.HasAnyFold(text, "rain", "snow", "drizzle", "thunder"):
		return SkyPrecipitation
	default:
		return SkyClear
	}
}
