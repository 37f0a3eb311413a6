package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"tokensum/src/args"
	"tokensum/src/database"
	"tokensum/src/mapper"
)

// renderMapping returns the field mappings of an index in the requested
// format, fields sorted by name and keys in declaration order
func renderMapping(ctx context.Context, mappingArgs *args.MappingArgs, db database.DBAdapter) (string, error) {
	_, mapping, err := openMapping(ctx, mappingArgs.Name, db)
	if err != nil {
		return "", fmt.Errorf("failed to open mapping: %w", err)
	}

	doc := mapper.NewFragment().Set("properties", mapping.Properties(mappingArgs.IncludeDefaults))

	switch mappingArgs.Format {
	case "", "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal mapping to JSON: %w", err)
		}
		return string(data), nil
	case "yaml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to marshal mapping to YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown mapping format '%s'", mappingArgs.Format)
	}
}

// RunMapping executes the mapping command
func RunMapping(ctx context.Context, mappingArgs *args.MappingArgs, db database.DBAdapter) error {
	out, err := renderMapping(ctx, mappingArgs, db)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
