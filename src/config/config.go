package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"tokensum/src/analysis"
)

const VERSION = 1

// IndexConfig represents the main index configuration
type IndexConfig struct {
	Name     string         `json:"name" yaml:"name"`
	Path     string         `json:"path" yaml:"path"`
	Version  uint32         `json:"version" yaml:"version"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Mappings MappingsConfig `json:"mappings" yaml:"mappings"`
}

// AnalysisConfig declares the custom analyzers of an index
type AnalysisConfig struct {
	Analyzers map[string]analysis.CustomAnalyzerConfig `json:"analyzers,omitempty" yaml:"analyzers,omitempty"`
}

// MappingsConfig holds the raw field mappings keyed by field name. Each
// mapping is handed to the type parser named by its "type" key.
type MappingsConfig struct {
	Properties map[string]map[string]interface{} `json:"properties" yaml:"properties"`
}

// FieldNames returns the mapped field names, sorted.
func (m MappingsConfig) FieldNames() []string {
	names := make([]string, 0, len(m.Properties))
	for name := range m.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the properties so parsers can consume keys
// without touching the config.
func (m MappingsConfig) Clone() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(m.Properties))
	for name, node := range m.Properties {
		out[name] = cloneMap(node)
	}
	return out
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Validate checks the parts of the config that do not need the field
// registry.
func (c *IndexConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("index config is missing a name")
	}
	if c.Path == "" {
		return fmt.Errorf("index config '%s' is missing a path", c.Name)
	}
	if c.Version == 0 {
		c.Version = VERSION
	}
	if c.Version != VERSION {
		return fmt.Errorf("unsupported index config version %d (expected %d)", c.Version, VERSION)
	}
	for _, name := range c.Mappings.FieldNames() {
		if name == "" {
			return fmt.Errorf("index config '%s' maps a field with an empty name", c.Name)
		}
		if c.Mappings.Properties[name] == nil {
			return fmt.Errorf("field [%s] has an empty mapping", name)
		}
	}
	return nil
}

// FromString loads an index configuration from YAML, falling back to JSON.
func FromString(s string) (*IndexConfig, error) {
	var config IndexConfig

	// Try YAML first, then JSON
	if err := yaml.Unmarshal([]byte(s), &config); err != nil {
		if err := json.Unmarshal([]byte(s), &config); err != nil {
			return nil, fmt.Errorf("failed to parse config as YAML or JSON: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadIndexConfigFromPath loads an index configuration from a file path
func LoadIndexConfigFromPath(path string) (*IndexConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromString(string(data))
}

// MappingUpdate is the body of a put-mapping request: analyzers and field
// mappings to merge into an existing index.
type MappingUpdate struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Mappings MappingsConfig `json:"mappings" yaml:"mappings"`
}

// LoadMappingUpdateFromPath loads a mapping update from a YAML or JSON file
func LoadMappingUpdateFromPath(path string) (*MappingUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var update MappingUpdate
	if err := yaml.Unmarshal(data, &update); err != nil {
		if err := json.Unmarshal(data, &update); err != nil {
			return nil, fmt.Errorf("failed to parse mapping as YAML or JSON: %w", err)
		}
	}
	if len(update.Mappings.Properties) == 0 && len(update.Analysis.Analyzers) == 0 {
		return nil, fmt.Errorf("mapping file %s declares no analyzers and no properties", path)
	}
	return &update, nil
}

// ToJSON serializes the config for the metadata store.
func (c *IndexConfig) ToJSON() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
	}
	return data, nil
}
