package weather

import (
	"time"

	"github.com/twmccart/watchface1/internal/message"
)

const (
	fallbackTemp     = 20
	fallbackHumidity = 50
	fallbackTempMin  = 15
	fallbackTempMax  = 22
	fallbackIcon     = "01d"
	fallbackCity     = "Testville"

	// fallbackHalfDay puts sunrise and sunset six hours either side of now.
	fallbackHalfDay = 6 * 60 * 60
)

// Fallback builds the synthetic message used in test mode. It has the same
// field set as a live message carrying an icon and a city.
func Fallback(now time.Time) message.Message {
	epoch := now.Unix()
	glyph, _ := Glyph(fallbackIcon)

	return message.Message{
		Temp:     message.Ptr(fallbackTemp),
		Humidity: message.Ptr(fallbackHumidity),
		TempMin:  message.Ptr(fallbackTempMin),
		TempMax:  message.Ptr(fallbackTempMax),
		Sunrise:  message.Ptr(epoch - fallbackHalfDay),
		Sunset:   message.Ptr(epoch + fallbackHalfDay),
		SkyCond:  message.Ptr(int(SkyClear)),
		SkyGlyph: message.Ptr(glyph),
		SkyIcon:  message.Ptr(fallbackIcon),
		CityName: message.Ptr(fallbackCity),
	}
}
