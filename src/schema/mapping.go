package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"tokensum/src/analysis"
	"tokensum/src/config"
	"tokensum/src/mapper"
	"tokensum/src/numeric"
)

// fieldSet is an immutable snapshot of the field definitions of an index.
type fieldSet struct {
	byName map[string]mapper.Mapper
	names  []string
}

func newFieldSet(byName map[string]mapper.Mapper) *fieldSet {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return &fieldSet{byName: byName, names: names}
}

// Mapping is the live set of field definitions of one index. Readers see a
// consistent snapshot; merges are serialized and publish a new snapshot only
// when they fully succeed.
type Mapping struct {
	parsers   TypeParsers
	analyzers *analysis.Registry
	encoder   numeric.Encoder

	mu      sync.Mutex
	customs map[string]analysis.CustomAnalyzerConfig
	fields  atomic.Pointer[fieldSet]
}

// NewMapping creates an empty mapping resolving analyzers through registry.
func NewMapping(parsers TypeParsers, registry *analysis.Registry) *Mapping {
	m := &Mapping{
		parsers:   parsers,
		analyzers: registry,
		encoder:   numeric.Integer,
		customs:   make(map[string]analysis.CustomAnalyzerConfig),
	}
	m.fields.Store(newFieldSet(map[string]mapper.Mapper{}))
	return m
}

// Build creates the mapping declared by an index config.
func Build(cfg *config.IndexConfig) (*Mapping, error) {
	m := NewMapping(DefaultTypeParsers(), analysis.NewRegistry())
	if err := m.Merge(cfg.Analysis.Analyzers, cfg.Mappings); err != nil {
		return nil, fmt.Errorf("failed to build mapping of index '%s': %w", cfg.Name, err)
	}
	return m, nil
}

// Lookup returns the definition of a field.
func (m *Mapping) Lookup(name string) (mapper.Mapper, bool) {
	f, ok := m.fields.Load().byName[name]
	return f, ok
}

// FieldNames returns the mapped field names, sorted.
func (m *Mapping) FieldNames() []string {
	names := m.fields.Load().names
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Analyzers returns the custom analyzer declarations merged so far.
func (m *Mapping) Analyzers() map[string]analysis.CustomAnalyzerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]analysis.CustomAnalyzerConfig, len(m.customs))
	for name, cfg := range m.customs {
		out[name] = cfg
	}
	return out
}

// overlay resolves analyzers from the live registry first, then from the
// ones a pending merge declares.
type overlay struct {
	base    *analysis.Registry
	pending *analysis.Registry
}

func (o overlay) Lookup(name string) (analysis.Analyzer, bool) {
	if a, ok := o.base.Lookup(name); ok {
		return a, true
	}
	if o.pending == nil {
		return nil, false
	}
	return o.pending.Lookup(name)
}

// Merge adds the given analyzers and field mappings. New fields are added,
// mapped fields are merged with their current definition. Nothing is
// published if any analyzer or field fails.
func (m *Mapping) Merge(analyzers map[string]analysis.CustomAnalyzerConfig, mappings config.MappingsConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, added, err := m.pendingAnalyzers(analyzers)
	if err != nil {
		return err
	}
	pc := &mapper.ParserContext{
		Analyzers: overlay{base: m.analyzers, pending: pending},
		Encoder:   m.encoder,
	}

	current := m.fields.Load()
	next := make(map[string]mapper.Mapper, len(current.byName)+len(mappings.Properties))
	for name, f := range current.byName {
		next[name] = f
	}

	nodes := mappings.Clone()
	for _, name := range mappings.FieldNames() {
		parsed, err := m.parsers.Parse(name, nodes[name], pc)
		if err != nil {
			return err
		}
		existing, ok := next[name]
		if !ok {
			logrus.Debugf("Adding field '%s' of type '%s'", name, parsed.ContentType())
			next[name] = parsed
			continue
		}
		merged, err := existing.Merge(parsed)
		if err != nil {
			return err
		}
		logrus.Debugf("Merged field '%s'", name)
		next[name] = merged
	}

	if err := checkCopyTo(next); err != nil {
		return err
	}

	for _, name := range added {
		a, _ := pending.Lookup(name)
		if err := m.analyzers.Register(a); err != nil {
			return fmt.Errorf("failed to register analyzer '%s': %w", name, err)
		}
		m.customs[name] = analyzers[name]
	}
	m.fields.Store(newFieldSet(next))
	return nil
}

// pendingAnalyzers builds the analyzers not registered yet. Redeclaring a
// custom analyzer with the same definition is allowed.
func (m *Mapping) pendingAnalyzers(analyzers map[string]analysis.CustomAnalyzerConfig) (*analysis.Registry, []string, error) {
	if len(analyzers) == 0 {
		return nil, nil, nil
	}
	names := make([]string, 0, len(analyzers))
	for name := range analyzers {
		names = append(names, name)
	}
	sort.Strings(names)

	pending := analysis.NewRegistry()
	var added []string
	for _, name := range names {
		cfg := analyzers[name]
		if existing, ok := m.customs[name]; ok {
			if !reflect.DeepEqual(existing, cfg) {
				return nil, nil, fmt.Errorf("analyzer [%s] is already defined with a different configuration", name)
			}
			continue
		}
		if _, ok := m.analyzers.Lookup(name); ok {
			return nil, nil, fmt.Errorf("analyzer [%s] is already defined", name)
		}
		if err := pending.RegisterCustom(name, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to build analyzer [%s]: %w", name, err)
		}
		added = append(added, name)
	}
	return pending, added, nil
}

func checkCopyTo(fields map[string]mapper.Mapper) error {
	for name, f := range fields {
		for _, target := range f.Config().CopyTo {
			if target == name {
				return &mapper.ParsingError{Msg: fmt.Sprintf("Field [%s] cannot copy_to itself", name)}
			}
			if _, ok := fields[target]; !ok {
				return &mapper.ParsingError{
					Msg: fmt.Sprintf("copy_to target [%s] of field [%s] is not mapped", target, name),
				}
			}
		}
	}
	return nil
}

// Properties serializes every field definition, keyed by field name.
func (m *Mapping) Properties(includeDefaults bool) *mapper.Fragment {
	set := m.fields.Load()
	props := mapper.NewFragment()
	for _, name := range set.names {
		props.Set(name, set.byName[name].ToConfig(includeDefaults))
	}
	return props
}

// ToConfig returns cfg with its analysis and mappings sections replaced by
// the current state of the mapping.
func (m *Mapping) ToConfig(cfg config.IndexConfig) config.IndexConfig {
	set := m.fields.Load()
	cfg.Mappings = config.MappingsConfig{
		Properties: make(map[string]map[string]interface{}, len(set.names)),
	}
	for _, name := range set.names {
		cfg.Mappings.Properties[name] = set.byName[name].ToConfig(false).ToMap()
	}
	cfg.Analysis = config.AnalysisConfig{Analyzers: m.Analyzers()}
	return cfg
}
