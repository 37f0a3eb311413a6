package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/config"
	"tokensum/src/database"
)

// RunPutMapping executes the put-mapping command
func RunPutMapping(ctx context.Context, putMappingArgs *args.PutMappingArgs, db database.DBAdapter) error {
	update, err := config.LoadMappingUpdateFromPath(putMappingArgs.MappingPath)
	if err != nil {
		return fmt.Errorf("failed to load mapping from path %s: %w", putMappingArgs.MappingPath, err)
	}

	return RunPutMappingFromUpdate(ctx, putMappingArgs.Name, update, db)
}

// RunPutMappingFromUpdate merges update into the stored mapping of an index.
// The stored config is only replaced when every field merges.
func RunPutMappingFromUpdate(ctx context.Context, name string, update *config.MappingUpdate, db database.DBAdapter) error {
	indexConfig, mapping, err := openMapping(ctx, name, db)
	if err != nil {
		return fmt.Errorf("failed to open mapping: %w", err)
	}

	if err := mapping.Merge(update.Analysis.Analyzers, update.Mappings); err != nil {
		return fmt.Errorf("failed to merge mapping of index '%s': %w", name, err)
	}

	configJSON, err := storedConfig(indexConfig, mapping)
	if err != nil {
		return err
	}
	if err := database.UpdateIndexConfig(ctx, db, name, configJSON); err != nil {
		return err
	}

	logrus.Infof("Updated mapping of index: %s (%d fields)", name, len(mapping.FieldNames()))

	return nil
}
