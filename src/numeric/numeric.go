package numeric

import (
	"fmt"

	"github.com/blugelabs/bluge"
	blugenumeric "github.com/blugelabs/bluge/numeric"
)

// Kind identifies one low-level representation of a numeric value
type Kind string

const (
	KindPoint     Kind = "point"
	KindDocValues Kind = "doc_values"
	KindStored    Kind = "stored"
)

// Field is one indexable representation of an integer field value.
type Field struct {
	Name  string
	Kind  Kind
	Value int32
}

func (f Field) String() string {
	return fmt.Sprintf("%s<%s:%d>", f.Kind, f.Name, f.Value)
}

// Encoder converts a field name and integer value into the representations
// the index must hold.
type Encoder interface {
	EncodeInteger(name string, value int32, indexed, docValued, stored bool) []Field
}

// IntegerType encodes signed 32-bit integers: a point when indexed, a doc
// value when docValued, a stored copy when stored, in that order.
type IntegerType struct{}

// Integer is the shared encoder for integer-valued fields
var Integer Encoder = IntegerType{}

func (IntegerType) EncodeInteger(name string, value int32, indexed, docValued, stored bool) []Field {
	fields := make([]Field, 0, 3)
	if indexed {
		fields = append(fields, Field{Name: name, Kind: KindPoint, Value: value})
	}
	if docValued {
		fields = append(fields, Field{Name: name, Kind: KindDocValues, Value: value})
	}
	if stored {
		fields = append(fields, Field{Name: name, Kind: KindStored, Value: value})
	}
	return fields
}

// ToBluge folds the representations of each field name into bluge fields.
// Bluge indexes every numeric field, so a doc value without a point still
// produces an indexed numeric field marked sortable and aggregatable. A
// stored-only value becomes a stored-only field holding the same prefix coded
// bytes a stored numeric field would, so DecodeNumericFloat64 reads both.
func ToBluge(fields []Field) []bluge.Field {
	type flags struct {
		value     int32
		point     bool
		docValues bool
		stored    bool
	}
	var order []string
	byName := make(map[string]*flags)
	for _, f := range fields {
		fl, ok := byName[f.Name]
		if !ok {
			fl = &flags{value: f.Value}
			byName[f.Name] = fl
			order = append(order, f.Name)
		}
		switch f.Kind {
		case KindPoint:
			fl.point = true
		case KindDocValues:
			fl.docValues = true
		case KindStored:
			fl.stored = true
		}
	}

	out := make([]bluge.Field, 0, len(order))
	for _, name := range order {
		fl := byName[name]
		if !fl.point && !fl.docValues {
			if fl.stored {
				out = append(out, bluge.NewStoredOnlyField(name, encodeStored(fl.value)))
			}
			continue
		}
		tf := bluge.NewNumericField(name, float64(fl.value))
		if fl.docValues {
			tf = tf.Sortable().Aggregatable()
		}
		if fl.stored {
			tf = tf.StoreValue()
		}
		out = append(out, tf)
	}
	return out
}

func encodeStored(value int32) []byte {
	return blugenumeric.MustNewPrefixCodedInt64(blugenumeric.Float64ToInt64(float64(value)), 0)
}

// DecodeStored reads back a value written by ToBluge.
func DecodeStored(value []byte) (int32, error) {
	f, err := bluge.DecodeNumericFloat64(value)
	if err != nil {
		return 0, fmt.Errorf("failed to decode stored numeric value: %w", err)
	}
	return int32(f), nil
}
