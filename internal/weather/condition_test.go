package weather

import "testing"

func TestMapConditionGlyphTable(t *testing.T) {
	for icon, glyph := range iconGlyphs {
		c := MapCondition(icon, "")
		if c.Glyph != glyph {
			t.Fatalf("%s: expected glyph %q, got %q", icon, glyph, c.Glyph)
		}
		if c.Icon != icon {
			t.Fatalf("%s: icon not passed through, got %q", icon, c.Icon)
		}
	}
	if len(iconGlyphs) != 18 {
		t.Fatalf("expected 18 icon codes, got %d", len(iconGlyphs))
	}
}

func TestMapConditionUnknownIcon(t *testing.T) {
	c := MapCondition("99x", "Clear")
	if c.Glyph != "" {
		t.Fatalf("unknown icon must not produce a glyph, got %q", c.Glyph)
	}
	if c.Icon != "99x" {
		t.Fatalf("unknown icon should still pass through, got %q", c.Icon)
	}

	c = MapCondition("", "")
	if c.Glyph != "" || c.Icon != "" || c.Sky != SkyClear {
		t.Fatalf("empty input should map to defaults, got %+v", c)
	}
}

func TestSkyFromText(t *testing.T) {
	cases := []struct {
		text string
		want SkyCondition
	}{
		{"Clear", SkyClear},
		{"clear sky", SkyClear},
		{"Clouds", SkyCloud},
		{"overcast CLOUDS", SkyCloud},
		{"light rain", SkyPrecipitation},
		{"Snow", SkyPrecipitation},
		{"Drizzle", SkyPrecipitation},
		{"Thunderstorm", SkyPrecipitation},
		// "cloud" wins over precipitation keywords.
		{"rain clouds", SkyCloud},
		{"Mist", SkyClear},
		{"Haze", SkyClear},
	}

	for _, tc := range cases {
		if got := MapCondition("", tc.text).Sky; got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.want, got)
		}
	}
}

func TestSkyIgnoresConditionID(t *testing.T) {
	// Only the text drives the sky condition; a bare condition id maps to clear.
	for _, id := range []int{211, 500, 601, 803} {
		s := Sample{TemperatureC: 10, HumidityPct: 80, TempMinC: 8, TempMaxC: 12, ConditionID: id}
		if got := *Encode(s).SkyCond; got != int(SkyClear) {
			t.Fatalf("id %d: expected SKY_COND=0, got %d", id, got)
		}
	}

	s := Sample{ConditionID: 800, ConditionText: "light rain"}
	if got := *Encode(s).SkyCond; got != int(SkyPrecipitation) {
		t.Fatalf("expected text to decide, got %d", got)
	}
}

func TestGlyphAndSkyAreIndependent(t *testing.T) {
	// A rain icon with "Clouds" text keeps both signals as-is.
	c := MapCondition("10d", "Clouds")
	if c.Glyph != "\uf019" {
		t.Fatalf("unexpected glyph %q", c.Glyph)
	}
	if c.Sky != SkyCloud {
		t.Fatalf("unexpected sky %s", c.Sky)
	}
}
