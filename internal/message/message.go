package message

import (
	"fmt"
	"sort"
	"strconv"
)

// FieldID is the numeric key of one field in the device message schema.
// The values are part of the wire contract shared with the watch face.
type FieldID uint32

const (
	FieldTemp     FieldID = 10000
	FieldHumidity FieldID = 10001
	FieldTempMin  FieldID = 10002
	FieldTempMax  FieldID = 10003
	FieldSunrise  FieldID = 10004
	FieldSunset   FieldID = 10005
	FieldSkyCond  FieldID = 10006
	FieldSkyGlyph FieldID = 10007
	FieldSkyIcon  FieldID = 10008
	FieldDarkMode FieldID = 10009
	FieldCityName FieldID = 10011
)

var fieldNames = map[FieldID]string{
	FieldTemp:     "TEMP",
	FieldHumidity: "HUMIDITY",
	FieldTempMin:  "TEMP_MIN",
	FieldTempMax:  "TEMP_MAX",
	FieldSunrise:  "SUNRISE",
	FieldSunset:   "SUNSET",
	FieldSkyCond:  "SKY_COND",
	FieldSkyGlyph: "SKY_GLYPH",
	FieldSkyIcon:  "SKY_ICON",
	FieldDarkMode: "DARK_MODE",
	FieldCityName: "CITY_NAME",
}

func (f FieldID) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "FIELD_" + strconv.FormatUint(uint64(f), 10)
}

// Known reports whether f belongs to the schema.
func (f FieldID) Known() bool {
	_, ok := fieldNames[f]
	return ok
}

// Value is a single field value: an integer or a short string.
type Value struct {
	str   string
	num   int64
	isStr bool
}

func Int(v int64) Value     { return Value{num: v} }
func String(s string) Value { return Value{str: s, isStr: true} }

func (v Value) IsString() bool { return v.isStr }
func (v Value) Int() int64     { return v.num }
func (v Value) Str() string    { return v.str }

func (v Value) String() string {
	if v.isStr {
		return strconv.Quote(v.str)
	}
	return strconv.FormatInt(v.num, 10)
}

// Field pairs a FieldID with its value.
type Field struct {
	ID    FieldID
	Value Value
}

// Message is the typed form of an outbound device message. Nil fields are
// not sent; the receiver treats an absent field as "no update".
type Message struct {
	Temp     *int
	Humidity *int
	TempMin  *int
	TempMax  *int
	Sunrise  *int64
	Sunset   *int64
	SkyCond  *int
	SkyGlyph *string
	SkyIcon  *string
	DarkMode *bool
	CityName *string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Fields returns the set fields ordered by FieldID.
func (m Message) Fields() []Field {
	var out []Field
	addInt := func(id FieldID, v *int) {
		if v != nil {
			out = append(out, Field{ID: id, Value: Int(int64(*v))})
		}
	}
	addInt64 := func(id FieldID, v *int64) {
		if v != nil {
			out = append(out, Field{ID: id, Value: Int(*v)})
		}
	}
	addStr := func(id FieldID, v *string) {
		if v != nil {
			out = append(out, Field{ID: id, Value: String(*v)})
		}
	}

	addInt(FieldTemp, m.Temp)
	addInt(FieldHumidity, m.Humidity)
	addInt(FieldTempMin, m.TempMin)
	addInt(FieldTempMax, m.TempMax)
	addInt64(FieldSunrise, m.Sunrise)
	addInt64(FieldSunset, m.Sunset)
	addInt(FieldSkyCond, m.SkyCond)
	addStr(FieldSkyGlyph, m.SkyGlyph)
	addStr(FieldSkyIcon, m.SkyIcon)
	if m.DarkMode != nil {
		var dm int64
		if *m.DarkMode {
			dm = 1
		}
		out = append(out, Field{ID: FieldDarkMode, Value: Int(dm)})
	}
	addStr(FieldCityName, m.CityName)

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Map returns the set fields keyed by FieldID.
func (m Message) Map() map[FieldID]Value {
	fields := m.Fields()
	out := make(map[FieldID]Value, len(fields))
	for _, f := range fields {
		out[f.ID] = f.Value
	}
	return out
}

// Empty reports whether no field is set.
func (m Message) Empty() bool {
	return len(m.Fields()) == 0
}

// FromFields builds a Message from decoded wire fields. Unknown field IDs are
// ignored; a known field carrying the wrong value kind is an error.
func FromFields(fields []Field) (Message, error) {
	var m Message
	for _, f := range fields {
		if !f.ID.Known() {
			continue
		}
		wantStr := f.ID == FieldSkyGlyph || f.ID == FieldSkyIcon || f.ID == FieldCityName
		if f.Value.IsString() != wantStr {
			return Message{}, fmt.Errorf("field %s: unexpected value %s", f.ID, f.Value)
		}

		n := int(f.Value.Int())
		switch f.ID {
		case FieldTemp:
			m.Temp = Ptr(n)
		case FieldHumidity:
			m.Humidity = Ptr(n)
		case FieldTempMin:
			m.TempMin = Ptr(n)
		case FieldTempMax:
			m.TempMax = Ptr(n)
		case FieldSunrise:
			m.Sunrise = Ptr(f.Value.Int())
		case FieldSunset:
			m.Sunset = Ptr(f.Value.Int())
		case FieldSkyCond:
			m.SkyCond = Ptr(n)
		case FieldSkyGlyph:
			m.SkyGlyph = Ptr(f.Value.Str())
		case FieldSkyIcon:
			m.SkyIcon = Ptr(f.Value.Str())
		case FieldDarkMode:
			m.DarkMode = Ptr(n != 0)
		case FieldCityName:
			m.CityName = Ptr(f.Value.Str())
		}
	}
	return m, nil
}
