package analysis

import (
	"github.com/blugelabs/bluge"
	blugeanalysis "github.com/blugelabs/bluge/analysis"
)

// TokenStream iterates over the terms produced for one (field, text) pair.
// Usage mirrors database rows: call Next until it returns false, then check Err.
type TokenStream interface {
	Next() bool
	Term() string
	Err() error
	Close() error
}

// Analyzer is a named tokenization capability.
type Analyzer interface {
	Name() string
	TokenStream(field, text string) (TokenStream, error)
}

// NamedAnalyzer binds a bluge analyzer to the name it is registered under.
type NamedAnalyzer struct {
	name     string
	analyzer bluge.Analyzer
}

// NewNamedAnalyzer creates a NamedAnalyzer
func NewNamedAnalyzer(name string, analyzer bluge.Analyzer) *NamedAnalyzer {
	return &NamedAnalyzer{name: name, analyzer: analyzer}
}

func (a *NamedAnalyzer) Name() string { return a.name }

// TokenStream implements Analyzer. Bluge analyzers are field agnostic, so the
// field name only matters to analyzers registered with per-field behavior.
func (a *NamedAnalyzer) TokenStream(field, text string) (TokenStream, error) {
	return &sliceStream{tokens: a.analyzer.Analyze([]byte(text)), pos: -1}, nil
}

// sliceStream walks a token stream that bluge already materialized.
type sliceStream struct {
	tokens blugeanalysis.TokenStream
	pos    int
}

func (s *sliceStream) Next() bool {
	if s.pos+1 >= len(s.tokens) {
		s.pos = len(s.tokens)
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Term() string {
	if s.pos < 0 || s.pos >= len(s.tokens) {
		return ""
	}
	return string(s.tokens[s.pos].Term)
}

func (s *sliceStream) Err() error { return nil }

func (s *sliceStream) Close() error {
	s.tokens = nil
	return nil
}

// Terms drains a stream into a slice. Used by the analyze command.
func Terms(a Analyzer, field, text string) ([]string, error) {
	stream, err := a.TokenStream(field, text)
	if err != nil {
		return nil, err
	}
	var terms []string
	for stream.Next() {
		terms = append(terms, stream.Term())
	}
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, err
	}
	return terms, stream.Close()
}
