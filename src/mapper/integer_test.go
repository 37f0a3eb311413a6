package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensum/src/numeric"
)

func TestIntegerEncode(t *testing.T) {
	m, err := ParseIntegerField("count", map[string]interface{}{"null_value": "3"}, nil)
	require.NoError(t, err)

	tests := []struct {
		in   Value
		want int32
	}{
		{Raw(float64(12)), 12},
		{Raw(12.9), 12},
		{Raw("41"), 41},
		{Raw(" 7.5 "), 7},
		{Raw(int64(-8)), -8},
		{External(100), 100},
		{Absent(), 3},
	}
	for _, tt := range tests {
		fields, err := m.Encode(tt.in)
		require.NoError(t, err, "%v", tt.in.Interface())
		assert.Equal(t, []numeric.Field{
			{Name: "count", Kind: numeric.KindPoint, Value: tt.want},
			{Name: "count", Kind: numeric.KindDocValues, Value: tt.want},
		}, fields)
	}
}

func TestIntegerEncodeErrors(t *testing.T) {
	m, err := ParseIntegerField("count", map[string]interface{}{}, nil)
	require.NoError(t, err)

	for _, in := range []interface{}{"abc", true, 1e12, float64(1 << 31), int64(-1) << 40, map[string]interface{}{}} {
		_, err := m.Encode(Raw(in))
		assert.Error(t, err, "%v", in)
	}

	_, err = m.Encode(Absent())
	assert.ErrorIs(t, err, ErrUndefinedValue)
}

func TestIntegerWithoutCoerce(t *testing.T) {
	m, err := ParseIntegerField("count", map[string]interface{}{"coerce": false}, nil)
	require.NoError(t, err)

	_, err = m.Encode(Raw("5"))
	assert.ErrorContains(t, err, "coerce is disabled")
	_, err = m.Encode(Raw(5.5))
	assert.ErrorContains(t, err, "decimal part")

	fields, err := m.Encode(Raw(5.0))
	require.NoError(t, err)
	assert.Equal(t, int32(5), fields[0].Value)

	assert.Equal(t, []string{"type", "coerce"}, m.ToConfig(false).Keys())
}

func TestIntegerMergeAndRoundTrip(t *testing.T) {
	a, err := ParseIntegerField("count", map[string]interface{}{"store": true}, nil)
	require.NoError(t, err)
	b, err := ParseIntegerField("count", map[string]interface{}{"store": true, "coerce": false, "null_value": 1}, nil)
	require.NoError(t, err)

	merged, err := a.Merge(b)
	require.NoError(t, err)
	assert.False(t, merged.(*IntegerField).Coerce())
	assert.True(t, a.(*IntegerField).Coerce())

	node := merged.ToConfig(true).ToMap()
	rebuilt, err := ParseIntegerField("count", node, nil)
	require.NoError(t, err)
	assert.Empty(t, node)
	assert.True(t, merged.Config().Equal(rebuilt.Config()))
	assert.Equal(t, merged.(*IntegerField).Coerce(), rebuilt.(*IntegerField).Coerce())
}
