package mapper

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensum/src/analysis"
)

func whitespace(t *testing.T) analysis.Analyzer {
	t.Helper()
	a, ok := analysis.NewRegistry().Lookup(analysis.WhitespaceAnalyzer)
	require.True(t, ok)
	return a
}

func TestComputeSum(t *testing.T) {
	a := whitespace(t)

	tests := []struct {
		text string
		want int32
	}{
		{"1 2 3", 6},
		{"1 foo 3", -1},
		{"", 0},
		{"   ", 0},
		{"42", 42},
		{"-5 +2", -3},
		{"-1", -1},
		{"2147483647 1", -2147483648},
		{"-2147483648 -1", 2147483647},
		{"2147483648", -1},
		{"1.5 2", -1},
		{"0x10", -1},
		{"10 20 x", -1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ComputeSum(a, "codes", tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateSumDistinguishesFormatError(t *testing.T) {
	a := whitespace(t)

	r, err := CalculateSum(a, "codes", "-1")
	require.NoError(t, err)
	assert.True(t, r.Valid())
	assert.Equal(t, int32(-1), r.Int32())

	r, err = CalculateSum(a, "codes", "3 nope 4")
	require.NoError(t, err)
	assert.False(t, r.Valid())
	assert.Equal(t, FormatErrorSum, r.Int32())

	var tokenErr *TokenFormatError
	require.ErrorAs(t, r.FormatErr, &tokenErr)
	assert.Equal(t, "nope", tokenErr.Token)
}

func TestCalculateSumStopsAtFirstBadToken(t *testing.T) {
	a := &fakeAnalyzer{name: "fake"}

	r, err := CalculateSum(a, "codes", "1 bad 2 3 4")
	require.NoError(t, err)
	assert.False(t, r.Valid())
	assert.Equal(t, 2, a.consumed)
}

func TestCalculateSumPropagatesStreamFailures(t *testing.T) {
	boom := errors.New("read failed")

	tests := map[string]*fakeAnalyzer{
		"open":    {name: "fake", openErr: boom},
		"iterate": {name: "fake", iterErr: boom},
		"close":   {name: "fake", closeErr: boom},
	}
	for name, a := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeSum(a, "codes", "1 2")
			require.Error(t, err)

			var analysisErr *AnalysisError
			require.ErrorAs(t, err, &analysisErr)
			assert.Equal(t, "codes", analysisErr.Field)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestCalculateSumCloseFailureAfterBadToken(t *testing.T) {
	boom := errors.New("close failed")
	_, err := ComputeSum(&fakeAnalyzer{name: "fake", closeErr: boom}, "codes", "x")
	assert.ErrorIs(t, err, boom)
}

func TestComputeSumMatchesWrappingArithmetic(t *testing.T) {
	a := whitespace(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := rng.Intn(20)
		terms := make([]string, n)
		var want int32
		for j := range terms {
			v := int32(rng.Uint32())
			want += v
			terms[j] = strconv.FormatInt(int64(v), 10)
		}

		got, err := ComputeSum(a, "codes", strings.Join(terms, " "))
		require.NoError(t, err)
		require.Equal(t, want, got)

		if n > 0 {
			terms[rng.Intn(n)] = "x" + terms[0]
			got, err = ComputeSum(a, "codes", strings.Join(terms, " "))
			require.NoError(t, err)
			require.Equal(t, int32(-1), got)
		}
	}
}
