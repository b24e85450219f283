package rag

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/csheth/candyrag/internal/i18n"
)

type valueKind int

const (
	kindUnset valueKind = iota
	kindText
	kindNumber
	kindBool
)

// Value is a display scalar decoded from any JSON type. Decoding never fails:
// null leaves it unset, objects and arrays keep their compact JSON text.
type Value struct {
	kind    valueKind
	text    string
	num     float64
	numeric bool
	flag    bool
}

// Text builds a string value.
func Text(s string) Value {
	v := Value{kind: kindText, text: s}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		v.num, v.numeric = f, true
	}
	return v
}

// Number builds a numeric value.
func Number(f float64) Value {
	return Value{kind: kindNumber, num: f, numeric: true}
}

// Int builds a numeric value from an integer.
func Int(n int) Value {
	return Number(float64(n))
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: kindBool, flag: b}
}

// IsSet reports whether the field was present and non-null.
func (v Value) IsSet() bool {
	return v.kind != kindUnset
}

// String renders the value as plain text; unset values render "".
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// Or returns the rendered value, or fallback when unset or blank.
func (v Value) Or(fallback string) string {
	if s := v.String(); strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// Float returns the numeric reading of the value.
func (v Value) Float() (float64, bool) {
	return v.num, v.numeric
}

// Bool returns the boolean reading of the value. Strings "true"/"false" count.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case kindBool:
		return v.flag, true
	case kindText:
		b, err := strconv.ParseBool(strings.TrimSpace(v.text))
		return b, err == nil
	default:
		return false, false
	}
}

// Fixed formats numeric values with prec decimals and falls back to the text
// form for anything else. Unset values render "N/A".
func (v Value) Fixed(prec int) string {
	if !v.IsSet() {
		return "N/A"
	}
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', prec, 64)
	}
	return v.String()
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch x := raw.(type) {
	case nil:
	case string:
		*v = Text(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err == nil {
			*v = Value{kind: kindText, text: compact.String()}
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindNumber:
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

// Values is a list of display scalars. Anything but a JSON array decodes to
// an empty list.
type Values []Value

// Texts builds a Values list from strings.
func Texts(items ...string) Values {
	out := make(Values, 0, len(items))
	for _, item := range items {
		out = append(out, Text(item))
	}
	return out
}

// Strings renders every element.
func (vs Values) Strings() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}

// Join renders the list separated by sep, or fallback when empty.
func (vs Values) Join(sep, fallback string) string {
	if len(vs) == 0 {
		return fallback
	}
	return strings.Join(vs.Strings(), sep)
}

// UnmarshalJSON implements json.Unmarshaler.
func (vs *Values) UnmarshalJSON(data []byte) error {
	var items []Value
	if err := json.Unmarshal(data, &items); err != nil {
		*vs = nil
		return nil
	}
	*vs = items
	return nil
}

// Localized maps language tags to text. Decoding accepts an object of any
// scalar values and drops everything else.
type Localized map[i18n.Language]string

// In returns the text for lang, falling back to English and then to any entry.
func (l Localized) In(lang i18n.Language) string {
	if s, ok := l[lang]; ok && s != "" {
		return s
	}
	if s, ok := l[i18n.Default]; ok && s != "" {
		return s
	}
	for _, s := range l {
		if s != "" {
			return s
		}
	}
	return ""
}

// Has reports whether lang has a non-empty entry.
func (l Localized) Has(lang i18n.Language) bool {
	return strings.TrimSpace(l[lang]) != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Localized) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make(Localized, len(raw))
	for key, value := range raw {
		if value.IsSet() {
			out[i18n.Language(key)] = value.String()
		}
	}
	*l = out
	return nil
}

// decodeLenient fills the json-tagged fields of the struct dst points to. Each
// field is decoded on its own and kept only when it decodes cleanly, so one
// malformed section never hides the others.
func decodeLenient(data []byte, dst any) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	target := reflect.ValueOf(dst).Elem()
	fields := target.Type()
	for i := 0; i < fields.NumField(); i++ {
		name, _, _ := strings.Cut(fields.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		msg, ok := raw[name]
		if !ok {
			continue
		}
		fresh := reflect.New(fields.Field(i).Type)
		if err := json.Unmarshal(msg, fresh.Interface()); err != nil {
			continue
		}
		target.Field(i).Set(fresh.Elem())
	}
}
