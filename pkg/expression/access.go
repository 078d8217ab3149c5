package expression

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is implemented by structured host values that expose named properties.
type Record interface {
	Properties() []string
	Property(name string) (interface{}, bool)
}

// OrderedMap is a string-keyed map that remembers insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

// NewOrderedMap creates an empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]interface{})}
}

// Set adds or replaces a key. New keys go to the end.
func (m *OrderedMap) Set(key string, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under an exact key.
func (m *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes a key if present.
func (m *OrderedMap) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// Clone returns a shallow copy.
func (m *OrderedMap) Clone() *OrderedMap {
	out := &OrderedMap{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]interface{}, len(m.values)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// MarshalJSON writes the entries in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		text, err := ToJSON(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.WriteString(text)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// asList converts slice values to a generic list.
func asList(val interface{}) ([]interface{}, bool) {
	switch v := val.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []bool:
		out := make([]interface{}, len(v))
		for i, b := range v {
			out[i] = b
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	case []*OrderedMap:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

// propertyNames lists the properties of object-like values.
func propertyNames(val interface{}) ([]string, bool) {
	switch v := val.(type) {
	case map[string]interface{}:
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		return names, true
	case map[string]string:
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		return names, true
	case *OrderedMap:
		if v == nil {
			return nil, false
		}
		return v.Keys(), true
	case Record:
		return v.Properties(), true
	}
	return nil, false
}

// lookupProperty finds a property by name, preferring an exact match and
// falling back to a case-insensitive one.
func lookupProperty(instance interface{}, name string) (interface{}, bool) {
	switch v := instance.(type) {
	case map[string]interface{}:
		if value, ok := v[name]; ok {
			return value, true
		}
		for k, value := range v {
			if strings.EqualFold(k, name) {
				return value, true
			}
		}
	case map[string]string:
		if value, ok := v[name]; ok {
			return value, true
		}
		for k, value := range v {
			if strings.EqualFold(k, name) {
				return value, true
			}
		}
	case *OrderedMap:
		if v == nil {
			return nil, false
		}
		if value, ok := v.Get(name); ok {
			return value, true
		}
		for _, k := range v.keys {
			if strings.EqualFold(k, name) {
				return v.values[k], true
			}
		}
	case Record:
		if value, ok := v.Property(name); ok {
			return value, true
		}
		for _, k := range v.Properties() {
			if strings.EqualFold(k, name) {
				return v.Property(k)
			}
		}
	}
	return nil, false
}

// AccessProperty reads a property from an object. Missing properties and
// instances without properties resolve to nil.
func AccessProperty(instance interface{}, name string) (interface{}, error) {
	if instance == nil {
		return nil, nil
	}
	value, _ := lookupProperty(instance, name)
	return value, nil
}

// AccessIndex reads a list element. Indexing a non-list or going out of
// range is an error.
func AccessIndex(instance interface{}, index int) (interface{}, error) {
	if instance == nil {
		return nil, nil
	}
	list, ok := asList(instance)
	if !ok {
		return nil, fmt.Errorf("%v is not a collection", FormatValue(instance))
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%d is out of range for %s", index, FormatValue(instance))
	}
	return list[index], nil
}

// withProperty returns a copy of an object with one property set.
func withProperty(instance interface{}, name string, value interface{}) (interface{}, error) {
	switch v := instance.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v)+1)
		for k, item := range v {
			out[k] = item
		}
		out[name] = value
		return out, nil
	case *OrderedMap:
		out := v.Clone()
		out.Set(name, value)
		return out, nil
	}
	return nil, fmt.Errorf("%s is not an object", FormatValue(instance))
}

// withoutProperty returns a copy of an object with one property removed.
func withoutProperty(instance interface{}, name string) (interface{}, error) {
	switch v := instance.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			if k != name {
				out[k] = item
			}
		}
		return out, nil
	case *OrderedMap:
		out := v.Clone()
		out.Delete(name)
		return out, nil
	}
	return nil, fmt.Errorf("%s is not an object", FormatValue(instance))
}
