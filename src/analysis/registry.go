package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/blugelabs/bluge"
	blugeanalysis "github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/analyzer"
	"github.com/blugelabs/bluge/analysis/token"
	"github.com/blugelabs/bluge/analysis/tokenizer"
	"github.com/sirupsen/logrus"
)

// Names of the analyzers every registry starts with.
const (
	StandardAnalyzer   = "standard"
	SimpleAnalyzer     = "simple"
	KeywordAnalyzer    = "keyword"
	WhitespaceAnalyzer = "whitespace"
)

// TokenizerType names a bluge tokenizer usable in a custom analyzer
type TokenizerType string

const (
	TokenizerWhitespace TokenizerType = "whitespace"
	TokenizerLetter     TokenizerType = "letter"
	TokenizerUnicode    TokenizerType = "unicode"
	TokenizerKeyword    TokenizerType = "keyword"
	TokenizerRegexp     TokenizerType = "regexp"
)

// TokenFilterType names a bluge token filter usable in a custom analyzer
type TokenFilterType string

const (
	TokenFilterLowercase TokenFilterType = "lowercase"
)

// CustomAnalyzerConfig describes an analyzer declared in an index config.
type CustomAnalyzerConfig struct {
	Tokenizer    TokenizerType     `json:"tokenizer" yaml:"tokenizer"`
	Pattern      string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	TokenFilters []TokenFilterType `json:"token_filters,omitempty" yaml:"token_filters,omitempty"`
}

// Registry holds the analyzers of one index keyed by name. Field definitions
// keep the Analyzer they looked up; the registry owns it.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

// NewRegistry creates a Registry with the built-in analyzers registered.
func NewRegistry() *Registry {
	r := &Registry{analyzers: make(map[string]Analyzer)}
	r.analyzers[StandardAnalyzer] = NewNamedAnalyzer(StandardAnalyzer, analyzer.NewStandardAnalyzer())
	r.analyzers[SimpleAnalyzer] = NewNamedAnalyzer(SimpleAnalyzer, analyzer.NewSimpleAnalyzer())
	r.analyzers[KeywordAnalyzer] = NewNamedAnalyzer(KeywordAnalyzer, analyzer.NewKeywordAnalyzer())
	r.analyzers[WhitespaceAnalyzer] = NewNamedAnalyzer(WhitespaceAnalyzer, &blugeanalysis.Analyzer{
		Tokenizer: tokenizer.NewWhitespaceTokenizer(),
	})
	return r
}

// Lookup returns the analyzer registered under name.
func (r *Registry) Lookup(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[name]
	return a, ok
}

// Register adds an analyzer under its own name.
func (r *Registry) Register(a Analyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyzers[a.Name()]; exists {
		return fmt.Errorf("analyzer already registered: %q", a.Name())
	}
	r.analyzers[a.Name()] = a
	return nil
}

// RegisterCustom builds a bluge analyzer from cfg and registers it under name.
func (r *Registry) RegisterCustom(name string, cfg CustomAnalyzerConfig) error {
	built, err := buildCustomAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("analyzer [%s]: %w", name, err)
	}
	logrus.Debugf("Registering custom analyzer '%s' (tokenizer %s)", name, cfg.Tokenizer)
	return r.Register(NewNamedAnalyzer(name, built))
}

// Names returns the names of all registered analyzers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildCustomAnalyzer(cfg CustomAnalyzerConfig) (bluge.Analyzer, error) {
	var tok blugeanalysis.Tokenizer
	switch cfg.Tokenizer {
	case TokenizerWhitespace, "":
		tok = tokenizer.NewWhitespaceTokenizer()
	case TokenizerLetter:
		tok = tokenizer.NewLetterTokenizer()
	case TokenizerUnicode:
		tok = tokenizer.NewUnicodeTokenizer()
	case TokenizerKeyword:
		tok = tokenizer.NewSingleTokenTokenizer()
	case TokenizerRegexp:
		if cfg.Pattern == "" {
			return nil, fmt.Errorf("regexp tokenizer requires a pattern")
		}
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tokenizer pattern %q: %w", cfg.Pattern, err)
		}
		tok = tokenizer.NewRegexpTokenizer(re)
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s", cfg.Tokenizer)
	}

	var filters []blugeanalysis.TokenFilter
	for _, f := range cfg.TokenFilters {
		switch f {
		case TokenFilterLowercase:
			filters = append(filters, token.NewLowerCaseFilter())
		default:
			return nil, fmt.Errorf("unknown token filter: %s", f)
		}
	}

	return &blugeanalysis.Analyzer{
		Tokenizer:    tok,
		TokenFilters: filters,
	}, nil
}
