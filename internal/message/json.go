package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON encodes the message as an object keyed by decimal FieldIDs,
// e.g. {"10000":21,"10007":"\uf00d"}.
func (m Message) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.FormatUint(uint64(f.ID), 10)))
		buf.WriteByte(':')
		if f.Value.IsString() {
			b, err := json.Marshal(f.Value.Str())
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		} else {
			buf.WriteString(strconv.FormatInt(f.Value.Int(), 10))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by decimal FieldIDs.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make([]Field, 0, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			continue
		}

		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields = append(fields, Field{ID: FieldID(id), Value: String(s)})
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		fields = append(fields, Field{ID: FieldID(id), Value: Int(i)})
	}

	decoded, err := FromFields(fields)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}
