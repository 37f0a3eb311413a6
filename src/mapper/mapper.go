package mapper

import (
	"tokensum/src/analysis"
	"tokensum/src/numeric"
)

// Mapper is the set of capabilities a field kind provides: encode document
// values, merge with a newer definition, serialize its configuration.
// Implementations are immutable; Merge returns a new value.
type Mapper interface {
	Name() string
	ContentType() string
	Config() FieldConfig
	Encode(v Value) ([]numeric.Field, error)
	Merge(other Mapper) (Mapper, error)
	ToConfig(includeDefaults bool) *Fragment
}

// AnalyzerLookup resolves analyzers by name.
type AnalyzerLookup interface {
	Lookup(name string) (analysis.Analyzer, bool)
}

// ParserContext carries what type parsers need to resolve references.
type ParserContext struct {
	Analyzers AnalyzerLookup
	Encoder   numeric.Encoder
}

func (pc *ParserContext) encoder() numeric.Encoder {
	if pc == nil || pc.Encoder == nil {
		return numeric.Integer
	}
	return pc.Encoder
}

// TypeParser builds a field definition of one content type from its mapping
// node. Parsers remove the keys they consume from node.
type TypeParser func(name string, node map[string]interface{}, pc *ParserContext) (Mapper, error)

// conflictOfType is the merge error for definitions of different kinds that
// the generic merge could not tell apart.
func conflictOfType(current, other Mapper) error {
	return &MergeConflictError{
		Field: current.Name(),
		Conflicts: []string{
			"mapper [" + current.Name() + "] of different type, current_type [" +
				current.ContentType() + "], merged_type [" + other.ContentType() + "]",
		},
	}
}

// encodeNumber hands an integer to the encoder with the flags of c.
func encodeNumber(enc numeric.Encoder, c FieldConfig, value int32) []numeric.Field {
	return enc.EncodeInteger(c.Name, value, c.Indexed(), c.DocValues, c.Store)
}
