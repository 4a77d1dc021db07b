package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	// KindNull is JSON null. The zero Value is null.
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed reply payload.
// Numbers keep their textual form so large integers survive unchanged.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

// Null is the null Value.
var Null = Value{}

// ErrKindMismatch is returned by accessors when the value has another kind.
var ErrKindMismatch = errors.New("value kind mismatch")

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue returns a number Value.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// ArrayValue returns an array Value.
func ArrayValue(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// ObjectValue returns an object Value.
func ObjectValue(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// ParseValue parses JSON text into a Value.
func ParseValue(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Null, err
	}
	return v, nil
}

// ParseArgs turns command-line words into call parameters. A word that is
// one complete JSON value is decoded with numbers kept as json.Number, so
// integers above 2^53 pass through unchanged; any other word is sent as a
// string.
func ParseArgs(args []string) []any {
	params := make([]any, 0, len(args))
	for _, a := range args {
		dec := json.NewDecoder(bytes.NewReader([]byte(a)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			params = append(params, a)
			continue
		}
		params = append(params, v)
	}
	return params
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Number returns the number held by v in its original textual form.
func (v Value) Number() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

// Int64 returns v as an integer.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	return n, err == nil
}

// Float64 returns v as a float.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Array returns the elements of an array value.
func (v Value) Array() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// Object returns the fields of an object value.
func (v Value) Object() (map[string]Value, bool) {
	return v.obj, v.kind == KindObject
}

// Len returns the number of elements of an array or fields of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Get returns an object field.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Index returns an array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null, false
	}
	return v.arr[i], true
}

// Keys returns the sorted field names of an object value.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts v to plain Go values: nil, bool, json.Number, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Decode maps v onto target, which must be a pointer. Struct fields are
// matched by their `mapstructure` tag, falling back to the field name.
// Numbers convert to any numeric field type.
func (v Value) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return fmt.Errorf("decode %s value: %w", v.kind, err)
	}
	return nil
}

// String returns compact JSON for v.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(data)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(v.num.String())
	case KindString:
		data, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.obj[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: kind %d", ErrKindMismatch, v.kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := readValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	*v = parsed
	return nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return Null, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return ArrayValue(items...), nil
		case '{':
			fields := make(map[string]Value)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null, fmt.Errorf("object key is %T", keyTok)
				}
				item, err := readValue(dec)
				if err != nil {
					return Null, err
				}
				fields[key] = item
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return ObjectValue(fields), nil
		}
	}
	return Null, fmt.Errorf("unexpected JSON token %v", tok)
}
