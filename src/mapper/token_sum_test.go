package mapper

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tokensum/src/analysis"
	"tokensum/src/numeric"
)

func buildTokenSum(t *testing.T, pc *ParserContext, node map[string]interface{}) *TokenSumField {
	t.Helper()
	m, err := ParseTokenSumField("codes", node, pc)
	require.NoError(t, err)
	require.NoError(t, CheckNoRemainingFields("codes", node))
	f, ok := m.(*TokenSumField)
	require.True(t, ok)
	return f
}

func TestParseTokenSumField(t *testing.T) {
	node := map[string]interface{}{
		"analyzer":   "whitespace",
		"null_value": 5,
		"store":      true,
	}
	f := buildTokenSum(t, testContext(), node)

	assert.Empty(t, node)
	assert.Equal(t, "codes", f.Name())
	assert.Equal(t, TokenSumContentType, f.ContentType())
	assert.Equal(t, "whitespace", f.AnalyzerName())
	nullValue, ok := f.NullValue()
	assert.True(t, ok)
	assert.Equal(t, int32(5), nullValue)
	assert.True(t, f.Config().Store)
	assert.True(t, f.Config().Indexed())
	assert.True(t, f.Config().DocValues)
}

func TestParseTokenSumFieldSharesRegistryAnalyzer(t *testing.T) {
	registry := analysis.NewRegistry()
	pc := &ParserContext{Analyzers: registry}
	a := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "whitespace"})
	b := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "whitespace"})

	shared, _ := registry.Lookup("whitespace")
	assert.Same(t, shared, a.Analyzer())
	assert.Same(t, a.Analyzer(), b.Analyzer())
}

func TestParseTokenSumFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		node map[string]interface{}
		msg  string
	}{
		{
			name: "missing analyzer",
			node: map[string]interface{}{"null_value": 1},
			msg:  "Analyzer must be set for field [codes] but wasn't.",
		},
		{
			name: "unknown analyzer",
			node: map[string]interface{}{"analyzer": "nope"},
			msg:  "Analyzer [nope] not found for field [codes]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTokenSumField("codes", tt.node, testContext())
			require.Error(t, err)
			var parsingErr *ParsingError
			require.ErrorAs(t, err, &parsingErr)
			assert.Equal(t, tt.msg, parsingErr.Msg)
		})
	}
}

func TestParseTokenSumFieldNullValueCoercion(t *testing.T) {
	for _, bad := range []interface{}{"abc", true, 1 << 40, []interface{}{1}} {
		_, err := ParseTokenSumField("codes", map[string]interface{}{
			"analyzer":   "whitespace",
			"null_value": bad,
		}, testContext())
		var coercionErr *CoercionError
		require.ErrorAs(t, err, &coercionErr, "value %v", bad)
		assert.Equal(t, "codes", coercionErr.Field)
		assert.Equal(t, "null_value", coercionErr.Key)
	}

	for in, want := range map[interface{}]int32{"12": 12, " -3 ": -3, 7.9: 7, int64(9): 9} {
		f := buildTokenSum(t, testContext(), map[string]interface{}{"analyzer": "whitespace", "null_value": in})
		got, _ := f.NullValue()
		assert.Equal(t, want, got)
	}
}

func TestParseTokenSumFieldLeavesUnknownKeys(t *testing.T) {
	node := map[string]interface{}{"analyzer": "whitespace", "format": "x"}
	_, err := ParseTokenSumField("codes", node, testContext())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"format": "x"}, node)

	err = CheckNoRemainingFields("codes", node)
	assert.EqualError(t, err, "Mapping definition for [codes] has unsupported parameters:  [format : x]")
}

func TestTokenSumEncode(t *testing.T) {
	f := buildTokenSum(t, testContext(), map[string]interface{}{"analyzer": "whitespace", "null_value": 5})

	fields, err := f.Encode(Text("1 2 3"))
	require.NoError(t, err)
	assert.Equal(t, []numeric.Field{
		{Name: "codes", Kind: numeric.KindPoint, Value: 6},
		{Name: "codes", Kind: numeric.KindDocValues, Value: 6},
	}, fields)

	fields, err = f.Encode(Text("1 foo 3"))
	require.NoError(t, err)
	assert.Equal(t, int32(-1), fields[0].Value)

	fields, err = f.Encode(Text(""))
	require.NoError(t, err)
	assert.Equal(t, int32(0), fields[0].Value)

	fields, err = f.Encode(Absent())
	require.NoError(t, err)
	assert.Equal(t, int32(5), fields[0].Value)

	fields, err = f.Encode(External(" 10  20 "))
	require.NoError(t, err)
	assert.Equal(t, int32(30), fields[0].Value)
}

func TestTokenSumEncodeUndefinedValue(t *testing.T) {
	f := buildTokenSum(t, testContext(), map[string]interface{}{"analyzer": "whitespace"})

	_, err := f.Encode(Absent())
	assert.ErrorIs(t, err, ErrUndefinedValue)
	assert.ErrorContains(t, err, "codes")

	_, err = f.Encode(External(nil))
	assert.ErrorIs(t, err, ErrUndefinedValue)
}

func TestTokenSumEncodeDelegatesToEncoder(t *testing.T) {
	canned := []numeric.Field{{Name: "whatever", Kind: numeric.KindStored, Value: 99}}
	enc := &recordingEncoder{result: canned}
	pc := &ParserContext{Analyzers: analysis.NewRegistry(), Encoder: enc}

	f := buildTokenSum(t, pc, map[string]interface{}{
		"analyzer":   "whitespace",
		"index":      false,
		"store":      "true",
		"doc_values": false,
	})
	fields, err := f.Encode(Text("4 4"))
	require.NoError(t, err)

	assert.Equal(t, canned, fields)
	assert.Equal(t, 1, enc.calls)
	assert.Equal(t, "codes", enc.name)
	assert.Equal(t, int32(8), enc.value)
	assert.False(t, enc.indexed)
	assert.False(t, enc.docValued)
	assert.True(t, enc.stored)
}

func TestTokenSumEncodePropagatesAnalyzerFailure(t *testing.T) {
	boom := errors.New("disk gone")
	f, err := NewTokenSumField(NewFieldConfig("codes", TokenSumContentType), &fakeAnalyzer{name: "fake", iterErr: boom}, nil)
	require.NoError(t, err)

	_, err = f.Encode(Text("1"))
	assert.ErrorIs(t, err, boom)
}

func TestNewTokenSumFieldRequiresAnalyzer(t *testing.T) {
	_, err := NewTokenSumField(NewFieldConfig("codes", TokenSumContentType), nil, nil)
	assert.EqualError(t, err, "Analyzer must be set for field [codes] but wasn't.")
}

func TestTokenSumMerge(t *testing.T) {
	registry := analysis.NewRegistry()
	require.NoError(t, registry.RegisterCustom("digits", analysis.CustomAnalyzerConfig{
		Tokenizer: analysis.TokenizerRegexp,
		Pattern:   `[0-9]+`,
	}))
	pc := &ParserContext{Analyzers: registry}

	defA := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "whitespace", "null_value": 1})
	defB := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "digits", "null_value": 2, "copy_to": "all"})

	merged, err := defA.Merge(defB)
	require.NoError(t, err)
	m := merged.(*TokenSumField)

	assert.Same(t, defB.Analyzer(), m.Analyzer())
	nullValue, _ := m.NullValue()
	assert.Equal(t, int32(2), nullValue)
	assert.Equal(t, []string{"all"}, m.Config().CopyTo)

	// defA is untouched
	assert.Equal(t, "whitespace", defA.AnalyzerName())
	nullValue, _ = defA.NullValue()
	assert.Equal(t, int32(1), nullValue)

	fields, err := m.Encode(Text("a1,b2"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), fields[0].Value)
}

func TestTokenSumMergeConflicts(t *testing.T) {
	pc := testContext()
	base := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "whitespace"})

	stored := buildTokenSum(t, pc, map[string]interface{}{"analyzer": "whitespace", "store": true, "index": false})
	_, err := base.Merge(stored)
	var conflictErr *MergeConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, []string{
		"mapper [codes] has different [index] values",
		"mapper [codes] has different [store] values",
	}, conflictErr.Conflicts)

	integer, err := ParseIntegerField("codes", map[string]interface{}{}, pc)
	require.NoError(t, err)
	_, err = base.Merge(integer)
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, []string{
		"mapper [codes] of different type, current_type [token_sum], merged_type [integer]",
	}, conflictErr.Conflicts)

	other, err := ParseTokenSumField("other", map[string]interface{}{"analyzer": "keyword"}, pc)
	require.NoError(t, err)
	_, err = base.Merge(other)
	require.ErrorAs(t, err, &conflictErr)
	assert.Contains(t, conflictErr.Conflicts, "mapper [codes] cannot be merged with mapper [other]")
}

func TestTokenSumToConfig(t *testing.T) {
	f := buildTokenSum(t, testContext(), map[string]interface{}{
		"analyzer":   "whitespace",
		"null_value": 5,
	})

	frag := f.ToConfig(false)
	assert.Equal(t, []string{"type", "null_value", "analyzer"}, frag.Keys())

	data, err := json.Marshal(frag)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"token_sum","null_value":5,"analyzer":"whitespace"}`, string(data))
	assert.Equal(t, `{"type":"token_sum","null_value":5,"analyzer":"whitespace"}`, string(data))

	frag = f.ToConfig(true)
	assert.Equal(t, []string{
		"type", "index", "index_options", "store", "doc_values", "boost", "null_value", "analyzer",
	}, frag.Keys())

	out, err := yaml.Marshal(f.ToConfig(false))
	require.NoError(t, err)
	assert.Equal(t, "type: token_sum\nnull_value: 5\nanalyzer: whitespace\n", string(out))
}

func TestTokenSumConfigRoundTrip(t *testing.T) {
	pc := testContext()
	nodes := []map[string]interface{}{
		{"analyzer": "whitespace"},
		{"analyzer": "keyword", "null_value": -4},
		{"analyzer": "standard", "index": false, "store": true, "copy_to": []interface{}{"a", "b"}, "boost": 2},
		{"analyzer": "simple", "doc_values": "false", "index_options": "freqs"},
	}
	for _, node := range nodes {
		original := buildTokenSum(t, pc, node)
		for _, includeDefaults := range []bool{false, true} {
			rebuilt := buildTokenSum(t, pc, original.ToConfig(includeDefaults).ToMap())

			assert.Equal(t, original.Name(), rebuilt.Name())
			assert.Same(t, original.Analyzer(), rebuilt.Analyzer())
			wantNull, wantOK := original.NullValue()
			gotNull, gotOK := rebuilt.NullValue()
			assert.Equal(t, wantOK, gotOK)
			assert.Equal(t, wantNull, gotNull)
			assert.True(t, original.Config().Equal(rebuilt.Config()), "%+v != %+v", original.Config(), rebuilt.Config())
		}
	}
}
