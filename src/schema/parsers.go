package schema

import (
	"fmt"

	"tokensum/src/mapper"
)

// TypeParsers maps a mapping "type" to the parser that builds it.
type TypeParsers map[string]mapper.TypeParser

// DefaultTypeParsers returns the field kinds every index understands.
func DefaultTypeParsers() TypeParsers {
	return TypeParsers{
		mapper.TokenSumContentType: mapper.ParseTokenSumField,
		mapper.IntegerContentType:  mapper.ParseIntegerField,
	}
}

// Parse builds the field named name from its mapping node. The node is
// consumed; any key no parser claims is an error.
func (tp TypeParsers) Parse(name string, node map[string]interface{}, pc *mapper.ParserContext) (mapper.Mapper, error) {
	rawType, ok := node["type"]
	if !ok {
		return nil, &mapper.ParsingError{Msg: fmt.Sprintf("No type specified for field [%s]", name)}
	}
	contentType, ok := rawType.(string)
	if !ok {
		return nil, &mapper.ParsingError{Msg: fmt.Sprintf("No type specified for field [%s]", name)}
	}

	parse, ok := tp[contentType]
	if !ok {
		return nil, &mapper.ParsingError{
			Msg: fmt.Sprintf("No handler for type [%s] declared on field [%s]", contentType, name),
		}
	}

	m, err := parse(name, node, pc)
	if err != nil {
		return nil, err
	}
	if err := mapper.CheckNoRemainingFields(name, node); err != nil {
		return nil, err
	}
	return m, nil
}
