package mapper

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/sirupsen/logrus"
)

// IndexOptions controls what an indexed field records
type IndexOptions string

const (
	IndexOptionsNone      IndexOptions = "none"
	IndexOptionsDocs      IndexOptions = "docs"
	IndexOptionsFreqs     IndexOptions = "freqs"
	IndexOptionsPositions IndexOptions = "positions"
	IndexOptionsOffsets   IndexOptions = "offsets"
)

func parseIndexOptions(field string, node interface{}) (IndexOptions, error) {
	s, err := nodeStringValue(field, "index_options", node)
	if err != nil {
		return "", err
	}
	switch opt := IndexOptions(s); opt {
	case IndexOptionsDocs, IndexOptionsFreqs, IndexOptionsPositions, IndexOptionsOffsets:
		return opt, nil
	default:
		return "", newParsingError("Unknown value [%s] for field [index_options] of field [%s]", s, field)
	}
}

// FieldConfig is the configuration every field kind shares. Field
// definitions embed it by value and hand it to the numeric encoder as flags.
type FieldConfig struct {
	Name         string
	Type         string
	IndexOptions IndexOptions
	Store        bool
	DocValues    bool
	CopyTo       []string
	Boost        float64
	// NullValue is typed by the owning field kind; nil means none.
	NullValue interface{}
}

// NewFieldConfig returns the numeric defaults: indexed with docs only, doc
// values on, not stored.
func NewFieldConfig(name, contentType string) FieldConfig {
	return FieldConfig{
		Name:         name,
		Type:         contentType,
		IndexOptions: IndexOptionsDocs,
		DocValues:    true,
		Boost:        1.0,
	}
}

// Indexed reports whether the encoder must produce an indexable point.
func (c FieldConfig) Indexed() bool {
	return c.IndexOptions != IndexOptionsNone
}

func (c FieldConfig) defaultConfig() FieldConfig {
	return NewFieldConfig(c.Name, c.Type)
}

// ParseField consumes the keys shared by every field kind from node. Keys it
// does not know are left in place for the caller to report.
func ParseField(c *FieldConfig, node map[string]interface{}) error {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := node[key]
		switch key {
		case "type":
			t, err := nodeStringValue(c.Name, key, value)
			if err != nil {
				return err
			}
			if t != c.Type {
				return newParsingError("Type [%s] does not match the [%s] definition of field [%s]", t, c.Type, c.Name)
			}
		case "index":
			indexed, err := nodeBooleanValue(c.Name, key, value)
			if err != nil {
				return err
			}
			if !indexed {
				c.IndexOptions = IndexOptionsNone
			} else if c.IndexOptions == IndexOptionsNone {
				c.IndexOptions = c.defaultConfig().IndexOptions
			}
		case "index_options":
			opts, err := parseIndexOptions(c.Name, value)
			if err != nil {
				return err
			}
			if c.Indexed() {
				c.IndexOptions = opts
			}
		case "store":
			store, err := nodeBooleanValue(c.Name, key, value)
			if err != nil {
				return err
			}
			c.Store = store
		case "doc_values":
			docValues, err := nodeBooleanValue(c.Name, key, value)
			if err != nil {
				return err
			}
			c.DocValues = docValues
		case "copy_to":
			targets, err := nodeStringList(c.Name, key, value)
			if err != nil {
				return err
			}
			c.CopyTo = targets
		case "boost":
			boost, err := nodeFloatValue(c.Name, key, value)
			if err != nil {
				return err
			}
			c.Boost = boost
		default:
			continue
		}
		delete(node, key)
	}
	return nil
}

// CheckNoRemainingFields fails when a type parser left keys it did not
// recognize in node.
func CheckNoRemainingFields(field string, node map[string]interface{}) error {
	if len(node) == 0 {
		return nil
	}
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	remaining := ""
	for _, k := range keys {
		remaining += fmt.Sprintf(" [%s : %v]", k, node[k])
	}
	return newParsingError("Mapping definition for [%s] has unsupported parameters: %s", field, remaining)
}

// Merge checks that other can replace c and returns the merged config. Flags
// that decide how values were indexed must match; copy_to, boost and
// null_value are taken from other wholesale.
func (c FieldConfig) Merge(other FieldConfig) (FieldConfig, error) {
	var conflicts []string
	if c.Name != other.Name {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] cannot be merged with mapper [%s]", c.Name, other.Name))
	}
	if c.Type != other.Type {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] of different type, current_type [%s], merged_type [%s]", c.Name, c.Type, other.Type))
	}
	if c.Indexed() != other.Indexed() {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] has different [index] values", c.Name))
	} else if c.Indexed() && c.IndexOptions != other.IndexOptions {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] has different [index_options] values", c.Name))
	}
	if c.Store != other.Store {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] has different [store] values", c.Name))
	}
	if c.DocValues != other.DocValues {
		conflicts = append(conflicts, fmt.Sprintf("mapper [%s] has different [doc_values] values", c.Name))
	}
	if len(conflicts) > 0 {
		logrus.Debugf("Merge of field '%s' rejected with %d conflicts", c.Name, len(conflicts))
		return c, &MergeConflictError{Field: c.Name, Conflicts: conflicts}
	}

	merged := c
	merged.CopyTo = append([]string(nil), other.CopyTo...)
	merged.Boost = other.Boost
	merged.NullValue = other.NullValue
	return merged, nil
}

// ToConfig serializes the shared keys. Only values differing from the
// defaults are written unless includeDefaults is set.
func (c FieldConfig) ToConfig(includeDefaults bool) *Fragment {
	d := c.defaultConfig()
	f := NewFragment()
	f.Set("type", c.Type)
	if includeDefaults || c.Indexed() != d.Indexed() {
		f.Set("index", c.Indexed())
	}
	if c.Indexed() && (includeDefaults || c.IndexOptions != d.IndexOptions) {
		f.Set("index_options", string(c.IndexOptions))
	}
	if includeDefaults || c.Store != d.Store {
		f.Set("store", c.Store)
	}
	if includeDefaults || c.DocValues != d.DocValues {
		f.Set("doc_values", c.DocValues)
	}
	if includeDefaults || c.Boost != d.Boost {
		f.Set("boost", c.Boost)
	}
	if c.NullValue != nil {
		f.Set("null_value", c.NullValue)
	}
	if len(c.CopyTo) > 0 {
		f.Set("copy_to", append([]string(nil), c.CopyTo...))
	}
	return f
}

// Equal compares two configs, treating empty and nil copy_to alike.
func (c FieldConfig) Equal(other FieldConfig) bool {
	if len(c.CopyTo) == 0 && len(other.CopyTo) == 0 {
		c.CopyTo, other.CopyTo = nil, nil
	}
	return reflect.DeepEqual(c, other)
}
