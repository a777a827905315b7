package message

import (
	"encoding/binary"
	"testing"
)

func TestDictRoundTrip(t *testing.T) {
	in := sampleMessage().Fields()

	b, err := EncodeDict(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int(b[0]) != len(in) {
		t.Fatalf("expected tuple count %d, got %d", len(in), b[0])
	}

	out, err := DecodeDict(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d fields, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("field %d: expected %+v, got %+v", i, in[i], out[i])
		}
	}
}

func TestDictKeyLayout(t *testing.T) {
	b, err := EncodeDict([]Field{{ID: FieldDarkMode, Value: Int(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) != 1+7+4 {
		t.Fatalf("unexpected length %d", len(b))
	}
	if got := binary.LittleEndian.Uint32(b[1:]); got != 10009 {
		t.Fatalf("expected key 10009, got %d", got)
	}
	if b[5] != tupleInt {
		t.Fatalf("expected int tuple, got %d", b[5])
	}
}

func TestDictWideIntegers(t *testing.T) {
	in := []Field{{ID: FieldSunrise, Value: Int(1 << 40)}}
	b, err := EncodeDict(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := DecodeDict(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Value.Int() != 1<<40 {
		t.Fatalf("unexpected value %d", out[0].Value.Int())
	}
}

func TestDecodeDictErrors(t *testing.T) {
	good, err := EncodeDict([]Field{{ID: 100, Value: Int(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string][]byte{
		"empty":     {},
		"truncated": good[:len(good)-1],
		"trailing":  append(append([]byte{}, good...), 0xff),
	}
	for name, data := range cases {
		if _, err := DecodeDict(data); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestInboundFromDict(t *testing.T) {
	b, err := EncodeDict([]Field{{ID: 100, Value: Int(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields, err := DecodeDict(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !InboundFromFields(fields).RefreshRequested() {
		t.Fatalf("legacy key 100 should request a refresh")
	}
}
