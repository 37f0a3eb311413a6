package mapper

import (
	"strings"

	"tokensum/src/analysis"
	"tokensum/src/numeric"
)

// fakeAnalyzer splits on spaces and can fail at each stage of the stream.
type fakeAnalyzer struct {
	name     string
	openErr  error
	iterErr  error
	closeErr error
	// Number of terms handed out across all streams.
	consumed int
}

func (a *fakeAnalyzer) Name() string { return a.name }

func (a *fakeAnalyzer) TokenStream(field, text string) (analysis.TokenStream, error) {
	if a.openErr != nil {
		return nil, a.openErr
	}
	return &fakeStream{owner: a, terms: strings.Fields(text), pos: -1}, nil
}

type fakeStream struct {
	owner *fakeAnalyzer
	terms []string
	pos   int
	err   error
}

func (s *fakeStream) Next() bool {
	if s.pos+1 >= len(s.terms) {
		if s.owner.iterErr != nil {
			s.err = s.owner.iterErr
		}
		return false
	}
	s.pos++
	s.owner.consumed++
	return true
}

func (s *fakeStream) Term() string { return s.terms[s.pos] }
func (s *fakeStream) Err() error   { return s.err }
func (s *fakeStream) Close() error { return s.owner.closeErr }

// recordingEncoder remembers its last call and returns a canned result.
type recordingEncoder struct {
	name      string
	value     int32
	indexed   bool
	docValued bool
	stored    bool
	calls     int
	result    []numeric.Field
}

func (e *recordingEncoder) EncodeInteger(name string, value int32, indexed, docValued, stored bool) []numeric.Field {
	e.calls++
	e.name, e.value = name, value
	e.indexed, e.docValued, e.stored = indexed, docValued, stored
	return e.result
}

func testContext() *ParserContext {
	return &ParserContext{Analyzers: analysis.NewRegistry()}
}
