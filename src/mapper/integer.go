package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"tokensum/src/numeric"
)

// IntegerContentType is the mapping type of IntegerField
const IntegerContentType = "integer"

// IntegerField is the native signed 32-bit numeric field.
type IntegerField struct {
	config  FieldConfig
	coerce  bool
	encoder numeric.Encoder
}

// NewIntegerField creates an IntegerField that accepts numeric strings and
// truncates fractions when coerce is set.
func NewIntegerField(config FieldConfig, coerce bool, encoder numeric.Encoder) *IntegerField {
	if encoder == nil {
		encoder = numeric.Integer
	}
	config.Type = IntegerContentType
	return &IntegerField{config: config, coerce: coerce, encoder: encoder}
}

// ParseIntegerField is the TypeParser of integer fields.
func ParseIntegerField(name string, node map[string]interface{}, pc *ParserContext) (Mapper, error) {
	config := NewFieldConfig(name, IntegerContentType)
	coerce := true

	if propNode, ok := node["null_value"]; ok {
		nullValue, err := nodeIntegerValue(name, "null_value", propNode)
		if err != nil {
			return nil, err
		}
		config.NullValue = nullValue
		delete(node, "null_value")
	}
	if propNode, ok := node["coerce"]; ok {
		b, err := nodeBooleanValue(name, "coerce", propNode)
		if err != nil {
			return nil, err
		}
		coerce = b
		delete(node, "coerce")
	}

	if err := ParseField(&config, node); err != nil {
		return nil, err
	}
	return NewIntegerField(config, coerce, pc.encoder()), nil
}

func (f *IntegerField) Name() string        { return f.config.Name }
func (f *IntegerField) ContentType() string { return IntegerContentType }
func (f *IntegerField) Config() FieldConfig { return f.config }
func (f *IntegerField) Coerce() bool        { return f.coerce }

// NullValue returns the configured null_value, if any.
func (f *IntegerField) NullValue() (int32, bool) {
	v, ok := f.config.NullValue.(int32)
	return v, ok
}

// Encode parses one document value as an int32.
func (f *IntegerField) Encode(v Value) ([]numeric.Field, error) {
	if !v.IsPresent() {
		nullValue, ok := f.NullValue()
		if !ok {
			return nil, fmt.Errorf("field [%s]: %w", f.Name(), ErrUndefinedValue)
		}
		return encodeNumber(f.encoder, f.config, nullValue), nil
	}

	value, err := f.parse(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to parse field [%s] of type [%s]: %w", f.Name(), IntegerContentType, err)
	}
	return encodeNumber(f.encoder, f.config, value), nil
}

func (f *IntegerField) parse(raw interface{}) (int32, error) {
	switch n := raw.(type) {
	case string:
		if !f.coerce {
			return 0, fmt.Errorf("value [%s] is a string and coerce is disabled", n)
		}
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 32); err == nil {
			return int32(i), nil
		}
		fl, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("value [%s] is not a number", n)
		}
		return f.fromFloat(fl)
	case float32, float64:
		return f.fromFloat(cast.ToFloat64(n))
	case bool:
		return 0, fmt.Errorf("value [%t] is not a number", n)
	default:
		i, err := cast.ToInt64E(raw)
		if err != nil {
			return 0, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("value [%d] is out of range for an integer", i)
		}
		return int32(i), nil
	}
}

func (f *IntegerField) fromFloat(fl float64) (int32, error) {
	if math.IsNaN(fl) || math.IsInf(fl, 0) || fl < math.MinInt32 || fl >= math.MaxInt32+1 {
		return 0, fmt.Errorf("value [%v] is out of range for an integer", fl)
	}
	if !f.coerce && fl != math.Trunc(fl) {
		return 0, fmt.Errorf("value [%v] has a decimal part", fl)
	}
	return int32(fl), nil
}

// Merge returns a new field combining f with other.
func (f *IntegerField) Merge(other Mapper) (Mapper, error) {
	merged, err := f.config.Merge(other.Config())
	if err != nil {
		return nil, err
	}
	o, ok := other.(*IntegerField)
	if !ok {
		return nil, conflictOfType(f, other)
	}
	return &IntegerField{config: merged, coerce: o.coerce, encoder: f.encoder}, nil
}

func (f *IntegerField) ToConfig(includeDefaults bool) *Fragment {
	frag := f.config.ToConfig(includeDefaults)
	if includeDefaults || !f.coerce {
		frag.Set("coerce", f.coerce)
	}
	return frag
}
