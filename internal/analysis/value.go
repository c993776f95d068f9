package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind tags the scalar held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is one cell of a tabular row: null, number, string or boolean.
// The zero Value is null.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	b    bool
}

// NullValue returns the null cell.
func NullValue() Value { return Value{} }

// NumberValue wraps a float.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the numeric payload and whether v holds a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// String renders the value the way it appears in column examples.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON keeps JSON's own typing. Nested arrays or objects are kept as
// their raw JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = NullValue()
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode cell: %w", err)
	}
	switch x := raw.(type) {
	case float64:
		*v = NumberValue(x)
	case string:
		*v = StringValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		*v = StringValue(string(trimmed))
	}
	return nil
}

// Row maps column names to cells. A missing key reads as null.
type Row map[string]Value
