package weather

import (
	"fmt"
	"strconv"
)

// SkyCondition is the compact tri-state sky summary sent on SKY_COND.
type SkyCondition int

const (
	SkyClear         SkyCondition = 0
	SkyCloud         SkyCondition = 1
	SkyPrecipitation SkyCondition = 2
)

func (s SkyCondition) String() string {
	switch s {
	case SkyClear:
		return "clear"
	case SkyCloud:
		return "cloud"
	case SkyPrecipitation:
		return "precipitation"
	default:
		return "sky(" + strconv.Itoa(int(s)) + ")"
	}
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Sample is one parsed upstream observation. It is produced once per
// successful fetch and consumed by Encode.
type Sample struct {
	TemperatureC float64
	HumidityPct  float64
	TempMinC     float64
	TempMaxC     float64
	Sunrise      int64 // UNIX seconds, UTC
	Sunset       int64 // UNIX seconds, UTC

	// Optional condition information; zero values mean "absent".
	ConditionText string
	ConditionID   int
	Icon          string
	PlaceName     string
}
