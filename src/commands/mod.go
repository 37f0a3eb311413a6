package commands

import (
	"context"
	"fmt"

	"tokensum/src/config"
	"tokensum/src/database"
	"tokensum/src/schema"
)

// getIndexConfig loads the stored config of an index
func getIndexConfig(ctx context.Context, name string, db database.DBAdapter) (*config.IndexConfig, error) {
	data, err := database.GetIndexConfig(ctx, db, name)
	if err != nil {
		return nil, err
	}

	indexConfig, err := config.FromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored config of index '%s': %w", name, err)
	}
	return indexConfig, nil
}

// openMapping loads the stored config of an index and builds its mapping
func openMapping(ctx context.Context, name string, db database.DBAdapter) (*config.IndexConfig, *schema.Mapping, error) {
	indexConfig, err := getIndexConfig(ctx, name, db)
	if err != nil {
		return nil, nil, err
	}

	mapping, err := schema.Build(indexConfig)
	if err != nil {
		return nil, nil, err
	}
	return indexConfig, mapping, nil
}

// storedConfig serializes cfg with the analysis and mappings sections of
// mapping, the form kept in the indexes table
func storedConfig(cfg *config.IndexConfig, mapping *schema.Mapping) ([]byte, error) {
	normalized := mapping.ToConfig(*cfg)
	return normalized.ToJSON()
}
