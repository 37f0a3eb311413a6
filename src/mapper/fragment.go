package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// entry is one key of a configuration fragment
type entry struct {
	Key   string
	Value interface{}
}

// Fragment is an ordered configuration map. Field definitions serialize
// themselves into fragments so the generic keys always come first.
type Fragment struct {
	entries []entry
}

// NewFragment creates an empty Fragment
func NewFragment() *Fragment {
	return &Fragment{}
}

// Set appends key, or replaces its value in place when already present.
func (f *Fragment) Set(key string, value interface{}) *Fragment {
	for i := range f.entries {
		if f.entries[i].Key == key {
			f.entries[i].Value = value
			return f
		}
	}
	f.entries = append(f.entries, entry{Key: key, Value: value})
	return f
}

// Get returns the value stored under key.
func (f *Fragment) Get(key string) (interface{}, bool) {
	for _, e := range f.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (f *Fragment) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Key
	}
	return keys
}

func (f *Fragment) Len() int { return len(f.entries) }

// ToMap converts the fragment into the plain map form type parsers consume.
// Nested fragments are converted too.
func (f *Fragment) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(f.entries))
	for _, e := range f.entries {
		if nested, ok := e.Value.(*Fragment); ok {
			m[e.Key] = nested.ToMap()
			continue
		}
		m[e.Key] = e.Value
	}
	return m
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (f *Fragment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal [%s]: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds a mapping node in insertion order.
func (f *Fragment) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range f.entries {
		var value yaml.Node
		if err := value.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("failed to marshal [%s]: %w", e.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&value,
		)
	}
	return node, nil
}
