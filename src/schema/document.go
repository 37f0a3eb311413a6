package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"tokensum/src/mapper"
	"tokensum/src/numeric"
)

const (
	IDField     = "_id"
	SourceField = "_source"
)

// ParsedDocument is a document run through the mapping. Each entry of Values
// holds the representations of one encoded value.
type ParsedDocument struct {
	ID     string
	Source []byte
	Values [][]numeric.Field
}

// Bluge converts the parsed document into a bluge document keeping the
// original JSON as a stored field.
func (d *ParsedDocument) Bluge() *bluge.Document {
	doc := bluge.NewDocument(d.ID)
	doc.AddField(bluge.NewStoredOnlyField(SourceField, d.Source))
	for _, value := range d.Values {
		for _, f := range numeric.ToBluge(value) {
			doc.AddField(f)
		}
	}
	return doc
}

// ParseJSON decodes one JSON object and parses it.
func (m *Mapping) ParseJSON(data []byte) (*ParsedDocument, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m.ParseDocument(doc)
}

// ParseDocument encodes every mapped field of doc. Missing mapped fields are
// absent values and fall back to their null_value; unmapped fields are
// ignored. Values of a field are copied to its copy_to targets as external
// values.
func (m *Mapping) ParseDocument(doc map[string]interface{}) (*ParsedDocument, error) {
	set := m.fields.Load()

	id := uuid.NewString()
	if raw, ok := doc[IDField]; ok && raw != nil {
		id = cast.ToString(raw)
		if id == "" {
			return nil, fmt.Errorf("document has an invalid %s: %v", IDField, raw)
		}
	}

	source, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document source: %w", err)
	}
	parsed := &ParsedDocument{ID: id, Source: source}

	for key := range doc {
		if key == IDField {
			continue
		}
		if _, ok := set.byName[key]; !ok {
			logrus.Debugf("Ignoring unmapped field '%s' of document '%s'", key, id)
		}
	}

	for _, name := range set.names {
		f := set.byName[name]
		values, err := documentValues(name, doc[name])
		if err != nil {
			return nil, err
		}

		for _, v := range values {
			if err := parsed.add(f, v); err != nil {
				return nil, err
			}
			if !v.IsPresent() {
				continue
			}
			for _, target := range f.Config().CopyTo {
				if err := parsed.add(set.byName[target], mapper.External(v.Interface())); err != nil {
					return nil, fmt.Errorf("failed to copy field [%s] to [%s]: %w", name, target, err)
				}
			}
		}
	}
	return parsed, nil
}

func (d *ParsedDocument) add(f mapper.Mapper, v mapper.Value) error {
	fields, err := f.Encode(v)
	if errors.Is(err, mapper.ErrUndefinedValue) {
		logrus.Debugf("No value for field '%s' of document '%s'", f.Name(), d.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse field [%s] of document '%s': %w", f.Name(), d.ID, err)
	}
	if len(fields) > 0 {
		d.Values = append(d.Values, fields)
	}
	return nil
}

// documentValues splits a JSON value into the values of a field. An empty
// array has no values, a null is absent.
func documentValues(name string, raw interface{}) ([]mapper.Value, error) {
	switch t := raw.(type) {
	case []interface{}:
		values := make([]mapper.Value, 0, len(t))
		for _, item := range t {
			if err := checkScalar(name, item); err != nil {
				return nil, err
			}
			values = append(values, mapper.Raw(item))
		}
		return values, nil
	default:
		if err := checkScalar(name, raw); err != nil {
			return nil, err
		}
		return []mapper.Value{mapper.Raw(raw)}, nil
	}
}

func checkScalar(name string, raw interface{}) error {
	switch raw.(type) {
	case map[string]interface{}:
		return &mapper.ParsingError{Msg: fmt.Sprintf("field [%s] expects a scalar value but got an object", name)}
	case []interface{}:
		return &mapper.ParsingError{Msg: fmt.Sprintf("field [%s] expects a scalar value but got a nested array", name)}
	}
	return nil
}
