package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind enumerates the variants a parameter value may hold.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

// Value is one parameter value: a scalar, a nested object/array, or null.
// The zero Value is Null. Numbers carry their decimal literal text so the
// exact wire form (e.g. "39.99") survives canonicalization unchanged.
type Value struct {
	kind Kind
	str  string
	b    bool
	obj  map[string]Value
	arr  []Value
}

func Null() Value             { return Value{} }
func String(s string) Value   { return Value{kind: KindString, str: s} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindNumber, str: strconv.FormatInt(i, 10)} }
func Float(f float64) Value   { return Value{kind: KindNumber, str: strconv.FormatFloat(f, 'f', -1, 64)} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Number wraps a decimal literal verbatim. The literal must be a valid JSON
// number; use Int or Float when starting from a Go numeric type.
func Number(literal string) Value { return Value{kind: KindNumber, str: literal} }

func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

func (v Value) Kind() Kind { return v.kind }

// AsString returns the string content and true when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInt64 parses the value as a whole number. Strings holding a decimal
// integer qualify; fractional literals and every other kind do not.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindNumber && v.kind != KindString {
		return 0, false
	}
	n, err := strconv.ParseInt(v.str, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Literal returns the scalar text of the value: the string itself, the
// number literal as received, or "true"/"false". Null and structured
// values return "".
func (v Value) Literal() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// IsEmpty reports whether canonicalization drops the value: null, empty
// string, empty array, or an object with no keys. Number 0 and boolean
// false are not empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindObject:
		return len(v.obj) == 0
	case KindArray:
		return len(v.arr) == 0
	}
	return false
}

// MarshalJSON writes the value in its wire form; numbers emit their stored
// literal untouched.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if v.str == "" {
			return []byte("0"), nil
		}
		return []byte(v.str), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindObject:
		return json.Marshal(v.obj)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	}
	return nil, fmt.Errorf("signing: unknown value kind %d", v.kind)
}

// Params is one message's named parameters. Insertion order never affects
// any output derived from it, and no function here retains a caller's map.
type Params map[string]Value

// FromJSONObject decodes a JSON object body into Params, keeping numeric
// literals exactly as they appeared on the wire.
func FromJSONObject(data []byte) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		out[k] = fromAny(v)
	}
	return out, nil
}

func fromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t.String())
	case float64:
		return Float(t)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = fromAny(e)
		}
		return Object(m)
	case []any:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			items = append(items, fromAny(e))
		}
		return Array(items...)
	}
	return Null()
}
