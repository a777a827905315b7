package message

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// KeyRequestWeather is the symbolic refresh key sent by the device.
	KeyRequestWeather = "REQUEST_WEATHER"
	// KeyRequestWeatherLegacy is the numeric refresh key (100) used by older firmware.
	KeyRequestWeatherLegacy = "100"
)

// Inbound is a device-originated message keyed by name or decimal id.
type Inbound map[string]any

// ParseInbound decodes a JSON device message.
func ParseInbound(data []byte) (Inbound, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var in Inbound
	if err := dec.Decode(&in); err != nil {
		return nil, err
	}
	return in, nil
}

// InboundFromFields converts dictionary fields into an Inbound message.
func InboundFromFields(fields []Field) Inbound {
	in := make(Inbound, len(fields))
	for _, f := range fields {
		in[strconv.FormatUint(uint64(f.ID), 10)] = f.Value
	}
	return in
}

// RefreshRequested reports whether the device asked for fresh weather.
func (in Inbound) RefreshRequested() bool {
	return truthy(in[KeyRequestWeather]) || truthy(in[KeyRequestWeatherLegacy])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case Value:
		if t.IsString() {
			return truthy(t.Str())
		}
		return t.Int() != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "0" && s != "false"
	default:
		return true
	}
}
