package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attribute is a named, typed value of an element.
type Attribute struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Value    any      `json:"value"`
}

// UnmarshalJSON decodes the attribute and folds integral INTEGER values back
// to int so a stored flow reads back identical to what was saved.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	type alias Attribute
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Attribute(raw)
	if a.DataType == DataInteger {
		if n, ok := AsInt(a.Value); ok {
			a.Value = n
		}
	}
	return nil
}

// Attributes is the attribute bag of an element.
type Attributes []Attribute

// Lookup returns the raw value of the named attribute.
func (as Attributes) Lookup(name string) (any, bool) {
	for _, a := range as {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// String returns the named attribute rendered as a string, or "".
func (as Attributes) String(name string) string {
	v, ok := as.Lookup(name)
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Int returns the named attribute as an int, or 0 when absent or not numeric.
func (as Attributes) Int(name string) int {
	v, ok := as.Lookup(name)
	if !ok {
		return 0
	}
	if n, ok := AsInt(Coerce(v)); ok {
		return n
	}
	return 0
}

// AsInt reports whether v is an integral number and returns it as int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

// Coerce converts a string value to a more specific scalar when it looks
// like one: integers, floats and the booleans "true"/"false". Other values
// are returned unchanged.
func Coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t := strings.TrimSpace(s)
	switch t {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(t); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}

// Stringify renders v as text. Strings are returned verbatim, scalars in
// their natural form, and composite values as compact JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
