package mapper

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"tokensum/src/analysis"
	"tokensum/src/numeric"
)

// TokenSumContentType is the mapping type of TokenSumField
const TokenSumContentType = "token_sum"

// TokenSumField indexes a text value as the integer sum of its tokens. It
// behaves like an integer field in every other respect.
type TokenSumField struct {
	config   FieldConfig
	analyzer analysis.Analyzer
	encoder  numeric.Encoder
}

// NewTokenSumField creates a TokenSumField. The analyzer is shared with the
// registry it came from and must not be nil.
func NewTokenSumField(config FieldConfig, analyzer analysis.Analyzer, encoder numeric.Encoder) (*TokenSumField, error) {
	if analyzer == nil {
		return nil, newParsingError("Analyzer must be set for field [%s] but wasn't.", config.Name)
	}
	if config.NullValue != nil {
		if _, ok := config.NullValue.(int32); !ok {
			return nil, &CoercionError{Field: config.Name, Key: "null_value", Value: config.NullValue, Err: fmt.Errorf("expected int32")}
		}
	}
	if encoder == nil {
		encoder = numeric.Integer
	}
	config.Type = TokenSumContentType
	return &TokenSumField{config: config, analyzer: analyzer, encoder: encoder}, nil
}

// ParseTokenSumField is the TypeParser of token_sum fields. It consumes
// analyzer and null_value, then lets ParseField take the shared keys.
func ParseTokenSumField(name string, node map[string]interface{}, pc *ParserContext) (Mapper, error) {
	config := NewFieldConfig(name, TokenSumContentType)

	var analyzer analysis.Analyzer
	if propNode, ok := node["analyzer"]; ok {
		analyzerName, err := nodeStringValue(name, "analyzer", propNode)
		if err != nil {
			return nil, err
		}
		var found bool
		if pc != nil && pc.Analyzers != nil {
			analyzer, found = pc.Analyzers.Lookup(analyzerName)
		}
		if !found {
			return nil, newParsingError("Analyzer [%s] not found for field [%s]", analyzerName, name)
		}
		delete(node, "analyzer")
	}

	if propNode, ok := node["null_value"]; ok {
		nullValue, err := nodeIntegerValue(name, "null_value", propNode)
		if err != nil {
			return nil, err
		}
		config.NullValue = nullValue
		delete(node, "null_value")
	}

	if err := ParseField(&config, node); err != nil {
		return nil, err
	}

	if analyzer == nil {
		return nil, newParsingError("Analyzer must be set for field [%s] but wasn't.", name)
	}
	return NewTokenSumField(config, analyzer, pc.encoder())
}

func (f *TokenSumField) Name() string        { return f.config.Name }
func (f *TokenSumField) ContentType() string { return TokenSumContentType }
func (f *TokenSumField) Config() FieldConfig { return f.config }

// Analyzer returns the shared analyzer the field tokenizes with.
func (f *TokenSumField) Analyzer() analysis.Analyzer { return f.analyzer }

// AnalyzerName returns the name of the field's analyzer.
func (f *TokenSumField) AnalyzerName() string { return f.analyzer.Name() }

// NullValue returns the configured null_value, if any.
func (f *TokenSumField) NullValue() (int32, bool) {
	v, ok := f.config.NullValue.(int32)
	return v, ok
}

// Encode turns one document value into the field's numeric representations.
// An absent value uses null_value, or fails with ErrUndefinedValue when none
// is configured. A value containing a non integer token encodes as -1.
func (f *TokenSumField) Encode(v Value) ([]numeric.Field, error) {
	var sum int32
	if !v.IsPresent() {
		nullValue, ok := f.NullValue()
		if !ok {
			return nil, fmt.Errorf("field [%s]: %w", f.Name(), ErrUndefinedValue)
		}
		sum = nullValue
	} else {
		r, err := CalculateSum(f.analyzer, f.Name(), v.String())
		if err != nil {
			return nil, err
		}
		if !r.Valid() {
			logrus.Debugf("Field '%s' has a non integer token (copied: %t), indexing %d: %v",
				f.Name(), v.IsExternal(), FormatErrorSum, r.FormatErr)
		}
		sum = r.Int32()
	}
	return encodeNumber(f.encoder, f.config, sum), nil
}

// Merge returns a new field combining f with other. The analyzer of other
// replaces f's without any compatibility check.
func (f *TokenSumField) Merge(other Mapper) (Mapper, error) {
	merged, err := f.config.Merge(other.Config())
	if err != nil {
		return nil, err
	}
	o, ok := other.(*TokenSumField)
	if !ok {
		return nil, conflictOfType(f, other)
	}
	return &TokenSumField{config: merged, analyzer: o.analyzer, encoder: f.encoder}, nil
}

// ToConfig writes the shared keys followed by analyzer.
func (f *TokenSumField) ToConfig(includeDefaults bool) *Fragment {
	return f.config.ToConfig(includeDefaults).Set("analyzer", f.analyzer.Name())
}
