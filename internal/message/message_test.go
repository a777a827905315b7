package message

import (
	"encoding/json"
	"testing"
)

func sampleMessage() Message {
	return Message{
		Temp:     Ptr(21),
		Humidity: Ptr(55),
		TempMin:  Ptr(19),
		TempMax:  Ptr(23),
		Sunrise:  Ptr(int64(1700000000)),
		Sunset:   Ptr(int64(1700030000)),
		SkyCond:  Ptr(0),
		SkyGlyph: Ptr("\uf00d"),
		SkyIcon:  Ptr("01d"),
		CityName: Ptr("Testville"),
	}
}

func TestFieldsOrderedAndAbsent(t *testing.T) {
	fields := sampleMessage().Fields()

	want := []FieldID{
		FieldTemp, FieldHumidity, FieldTempMin, FieldTempMax, FieldSunrise,
		FieldSunset, FieldSkyCond, FieldSkyGlyph, FieldSkyIcon, FieldCityName,
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i, id := range want {
		if fields[i].ID != id {
			t.Fatalf("field %d: expected %s, got %s", i, id, fields[i].ID)
		}
	}

	if _, ok := sampleMessage().Map()[FieldDarkMode]; ok {
		t.Fatalf("unset DARK_MODE must be absent")
	}
}

func TestFieldIDsAreWireExact(t *testing.T) {
	cases := map[FieldID]uint32{
		FieldTemp: 10000, FieldHumidity: 10001, FieldTempMin: 10002, FieldTempMax: 10003,
		FieldSunrise: 10004, FieldSunset: 10005, FieldSkyCond: 10006, FieldSkyGlyph: 10007,
		FieldSkyIcon: 10008, FieldDarkMode: 10009, FieldCityName: 10011,
	}
	for id, want := range cases {
		if uint32(id) != want {
			t.Fatalf("%s: expected %d, got %d", id, want, uint32(id))
		}
	}
}

func TestDarkModeEncodesAsInteger(t *testing.T) {
	b, err := json.Marshal(Message{DarkMode: Ptr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"10009":1}` {
		t.Fatalf("unexpected json: %s", b)
	}

	b, err = json.Marshal(Message{DarkMode: Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"10009":0}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestMessageJSON(t *testing.T) {
	b, err := json.Marshal(sampleMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"10000":21,"10001":55,"10002":19,"10003":23,"10004":1700000000,"10005":1700030000,"10006":0,"10007":"` + "\uf00d" + `","10008":"01d","10011":"Testville"}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Message
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.CityName == nil || *back.CityName != "Testville" {
		t.Fatalf("city name not decoded: %+v", back.CityName)
	}
	if back.Sunset == nil || *back.Sunset != 1700030000 {
		t.Fatalf("sunset not decoded: %+v", back.Sunset)
	}
}

func TestUnmarshalRejectsWrongKind(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`{"10000":"hot"}`), &m); err == nil {
		t.Fatalf("expected error for string temperature")
	}
}

func TestFieldIDString(t *testing.T) {
	if FieldSkyGlyph.String() != "SKY_GLYPH" {
		t.Fatalf("unexpected name %q", FieldSkyGlyph.String())
	}
	if FieldID(10010).String() != "FIELD_10010" {
		t.Fatalf("unexpected name %q", FieldID(10010).String())
	}
}
