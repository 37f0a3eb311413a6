package mapper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// nodeIntegerValue coerces a configuration scalar to int32. Strings are read
// as base-10 literals, numbers are truncated toward zero.
func nodeIntegerValue(field, key string, node interface{}) (int32, error) {
	var v int64
	switch n := node.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 32)
		if err != nil {
			return 0, &CoercionError{Field: field, Key: key, Value: node, Err: err}
		}
		return int32(parsed), nil
	case bool, nil:
		return 0, &CoercionError{Field: field, Key: key, Value: node, Err: fmt.Errorf("expected a number")}
	case float32, float64:
		f := cast.ToFloat64(n)
		if math.IsNaN(f) || f < math.MinInt32 || f >= math.MaxInt32+1 {
			return 0, &CoercionError{Field: field, Key: key, Value: node, Err: fmt.Errorf("out of range for integer")}
		}
		v = int64(f)
	default:
		var err error
		v, err = cast.ToInt64E(node)
		if err != nil {
			return 0, &CoercionError{Field: field, Key: key, Value: node, Err: err}
		}
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, &CoercionError{Field: field, Key: key, Value: node, Err: fmt.Errorf("out of range for integer")}
	}
	return int32(v), nil
}

func nodeBooleanValue(field, key string, node interface{}) (bool, error) {
	b, err := cast.ToBoolE(node)
	if err != nil {
		return false, &CoercionError{Field: field, Key: key, Value: node, Err: err}
	}
	return b, nil
}

func nodeFloatValue(field, key string, node interface{}) (float64, error) {
	f, err := cast.ToFloat64E(node)
	if err != nil {
		return 0, &CoercionError{Field: field, Key: key, Value: node, Err: err}
	}
	return f, nil
}

func nodeStringValue(field, key string, node interface{}) (string, error) {
	switch node.(type) {
	case nil, map[string]interface{}, []interface{}:
		return "", &CoercionError{Field: field, Key: key, Value: node, Err: fmt.Errorf("expected a string")}
	}
	s, err := cast.ToStringE(node)
	if err != nil {
		return "", &CoercionError{Field: field, Key: key, Value: node, Err: err}
	}
	return s, nil
}

// nodeStringList accepts a single string or a list of strings.
func nodeStringList(field, key string, node interface{}) ([]string, error) {
	switch n := node.(type) {
	case string:
		return []string{n}, nil
	case []string:
		return append([]string(nil), n...), nil
	case []interface{}:
		out := make([]string, 0, len(n))
		for _, item := range n {
			s, err := nodeStringValue(field, key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &CoercionError{Field: field, Key: key, Value: node, Err: fmt.Errorf("expected a string or a list of strings")}
	}
}
