package expression

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

func toFloat64(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// toInt converts integer kinds, and floats without a fractional part.
func toInt(val interface{}) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		if v == float32(int(v)) {
			return int(v), true
		}
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

func isInteger(val interface{}) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func isNumber(val interface{}) bool {
	_, ok := toFloat64(val)
	return ok
}

// IsLogicTrue is the truthiness rule used by logical operators: booleans are
// themselves, nil is false and everything else is true.
func IsLogicTrue(val interface{}) bool {
	if b, ok := val.(bool); ok {
		return b
	}
	return val != nil
}

// IsEmpty reports whether a value is nil, an empty string, an empty
// collection or an object without properties.
func IsEmpty(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]interface{}:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	case *OrderedMap:
		return v == nil || v.Len() == 0
	case Record:
		return len(v.Properties()) == 0
	}
	if list, ok := asList(val); ok {
		return len(list) == 0
	}
	return false
}

// ValuesEqual compares two values structurally. Numbers compare by value
// regardless of their Go kind.
func ValuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		x, _ := toFloat64(a)
		y, _ := toFloat64(b)
		return x == y
	}
	if la, ok := asList(a); ok {
		lb, ok := asList(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !ValuesEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if ka, ok := propertyNames(a); ok {
		kb, ok := propertyNames(b)
		if !ok || len(ka) != len(kb) {
			return false
		}
		for _, key := range ka {
			va, _ := lookupProperty(a, key)
			vb, found := lookupProperty(b, key)
			if !found || !ValuesEqual(va, vb) {
				return false
			}
		}
		return true
	}
	return safeEquals(a, b)
}

// safeEquals compares with == and treats uncomparable dynamic types as unequal.
func safeEquals(a, b interface{}) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// FormatValue renders a value as text for template output.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', 15, 32)
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', 15, 64)
	case time.Time:
		return v.Format(roundTripLayout)
	case fmt.Stringer:
		return v.String()
	}
	if isInteger(value) {
		return fmt.Sprintf("%d", value)
	}
	if text, err := ToJSON(value); err == nil {
		return text
	}
	return fmt.Sprintf("%v", value)
}

// ToJSON serializes a value to compact JSON without HTML escaping.
func ToJSON(value interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonValue(value)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// jsonValue converts records into maps so the encoder can see their properties.
func jsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case Record:
		out := NewOrderedMap()
		for _, name := range v.Properties() {
			prop, _ := v.Property(name)
			out.Set(name, jsonValue(prop))
		}
		return out
	case time.Time:
		return v.Format(roundTripLayout)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = jsonValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = jsonValue(item)
		}
		return out
	}
	return value
}
