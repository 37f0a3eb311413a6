package mapper

import (
	"strconv"

	"tokensum/src/analysis"
)

// FormatErrorSum is what a token sum collapses to when a token is not an
// integer. It cannot be told apart from a genuine sum of -1.
const FormatErrorSum int32 = -1

// SumResult is the outcome of summing one text value: either Value, or a
// FormatErr naming the first token that failed to parse.
type SumResult struct {
	Value     int32
	FormatErr error
}

// Valid reports whether every token parsed.
func (r SumResult) Valid() bool { return r.FormatErr == nil }

// Int32 returns the sum, or FormatErrorSum for a format error.
func (r SumResult) Int32() int32 {
	if r.FormatErr != nil {
		return FormatErrorSum
	}
	return r.Value
}

// CalculateSum tokenizes text with a for field and adds up the tokens as
// base-10 int32 literals, wrapping on overflow. The first token that does
// not parse stops the walk and is reported through SumResult.FormatErr; the
// partial sum is dropped. Errors from the token stream itself are returned as
// *AnalysisError.
func CalculateSum(a analysis.Analyzer, field, text string) (SumResult, error) {
	stream, err := a.TokenStream(field, text)
	if err != nil {
		return SumResult{}, &AnalysisError{Field: field, Err: err}
	}

	var sum int32
	for stream.Next() {
		term := stream.Term()
		n, err := strconv.ParseInt(term, 10, 32)
		if err != nil {
			if cerr := stream.Close(); cerr != nil {
				return SumResult{}, &AnalysisError{Field: field, Err: cerr}
			}
			return SumResult{FormatErr: &TokenFormatError{Token: term, Err: err}}, nil
		}
		sum += int32(n)
	}
	if err := stream.Err(); err != nil {
		stream.Close()
		return SumResult{}, &AnalysisError{Field: field, Err: err}
	}
	if err := stream.Close(); err != nil {
		return SumResult{}, &AnalysisError{Field: field, Err: err}
	}
	return SumResult{Value: sum}, nil
}

// ComputeSum is CalculateSum with the format error folded into the value:
// any unparsable token makes the whole sum -1. This loses data silently and
// is kept that way for compatibility with existing indexes.
func ComputeSum(a analysis.Analyzer, field, text string) (int32, error) {
	r, err := CalculateSum(a, field, text)
	if err != nil {
		return 0, err
	}
	return r.Int32(), nil
}
