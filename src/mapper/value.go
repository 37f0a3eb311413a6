package mapper

import (
	"github.com/spf13/cast"
)

// Value is what a document supplies for one field: nothing, a value read
// from the document, or an external value pushed in by another field.
type Value struct {
	raw      interface{}
	text     string
	present  bool
	external bool
}

// Absent is the value of a field missing from a document.
func Absent() Value {
	return Value{}
}

// Text wraps a string read from the document.
func Text(s string) Value {
	return Value{raw: s, text: s, present: true}
}

// Raw wraps a decoded JSON scalar read from the document. nil is absent.
func Raw(v interface{}) Value {
	if v == nil {
		return Absent()
	}
	return Value{raw: v, text: cast.ToString(v), present: true}
}

// External wraps a substitute value supplied from outside the document,
// such as a copy_to source. Once built it behaves like any other value.
func External(v interface{}) Value {
	if v == nil {
		return Absent()
	}
	val := Raw(v)
	val.external = true
	return val
}

func (v Value) IsPresent() bool  { return v.present }
func (v Value) IsExternal() bool { return v.external }

// String returns the text form of the value.
func (v Value) String() string { return v.text }

// Interface returns the value as it was supplied.
func (v Value) Interface() interface{} { return v.raw }
