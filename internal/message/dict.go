package message

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Tuple types of the binary dictionary encoding.
const (
	tupleByteArray = uint8(0)
	tupleCString   = uint8(1)
	tupleUint      = uint8(2)
	tupleInt       = uint8(3)
)

const maxDictTuples = 255

var errShortDict = errors.New("dictionary truncated")

// EncodeDict writes fields in the binary dictionary layout used on the
// serial link: a tuple count, then per tuple key (u32 LE), type (u8),
// length (u16 LE) and the value. Integers are int32 LE unless they need
// eight bytes; strings are NUL-terminated UTF-8.
func EncodeDict(fields []Field) ([]byte, error) {
	if len(fields) > maxDictTuples {
		return nil, fmt.Errorf("too many tuples: %d", len(fields))
	}

	var b bytes.Buffer
	b.WriteByte(byte(len(fields)))
	for _, f := range fields {
		binary.Write(&b, binary.LittleEndian, uint32(f.ID))

		if f.Value.IsString() {
			s := f.Value.Str()
			if len(s)+1 > math.MaxUint16 {
				return nil, fmt.Errorf("field %s: string too long", f.ID)
			}
			b.WriteByte(tupleCString)
			binary.Write(&b, binary.LittleEndian, uint16(len(s)+1))
			b.WriteString(s)
			b.WriteByte(0)
			continue
		}

		n := f.Value.Int()
		b.WriteByte(tupleInt)
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			binary.Write(&b, binary.LittleEndian, uint16(4))
			binary.Write(&b, binary.LittleEndian, int32(n))
		} else {
			binary.Write(&b, binary.LittleEndian, uint16(8))
			binary.Write(&b, binary.LittleEndian, n)
		}
	}
	return b.Bytes(), nil
}

// DecodeDict parses the layout written by EncodeDict.
func DecodeDict(data []byte) ([]Field, error) {
	if len(data) < 1 {
		return nil, errShortDict
	}
	count := int(data[0])
	pos := 1

	fields := make([]Field, 0, count)
	for i := 0; i < count; i++ {
		if len(data)-pos < 7 {
			return nil, errShortDict
		}
		id := FieldID(binary.LittleEndian.Uint32(data[pos:]))
		typ := data[pos+4]
		length := int(binary.LittleEndian.Uint16(data[pos+5:]))
		pos += 7
		if len(data)-pos < length {
			return nil, errShortDict
		}
		raw := data[pos : pos+length]
		pos += length

		var v Value
		switch typ {
		case tupleCString, tupleByteArray:
			v = String(string(bytes.TrimRight(raw, "\x00")))
		case tupleInt:
			n, err := decodeInt(raw, true)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", id, err)
			}
			v = Int(n)
		case tupleUint:
			n, err := decodeInt(raw, false)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", id, err)
			}
			v = Int(n)
		default:
			return nil, fmt.Errorf("field %s: unknown tuple type %d", id, typ)
		}
		fields = append(fields, Field{ID: id, Value: v})
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after dictionary", len(data)-pos)
	}
	return fields, nil
}

func decodeInt(raw []byte, signed bool) (int64, error) {
	switch len(raw) {
	case 1:
		if signed {
			return int64(int8(raw[0])), nil
		}
		return int64(raw[0]), nil
	case 2:
		u := binary.LittleEndian.Uint16(raw)
		if signed {
			return int64(int16(u)), nil
		}
		return int64(u), nil
	case 4:
		u := binary.LittleEndian.Uint32(raw)
		if signed {
			return int64(int32(u)), nil
		}
		return int64(u), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(raw)), nil
	default:
		return 0, fmt.Errorf("invalid integer width %d", len(raw))
	}
}
