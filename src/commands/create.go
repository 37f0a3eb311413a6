package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/config"
	"tokensum/src/database"
	"tokensum/src/schema"
)

// RunCreate executes the create command
func RunCreate(ctx context.Context, createArgs *args.CreateArgs, db database.DBAdapter) error {
	indexConfig, err := config.LoadIndexConfigFromPath(createArgs.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config from path %s: %w", createArgs.ConfigPath, err)
	}

	return RunCreateFromConfig(ctx, indexConfig, db)
}

// RunCreateFromConfig creates an index from a config object. The mapping
// is built first so an invalid config is never stored.
func RunCreateFromConfig(ctx context.Context, indexConfig *config.IndexConfig, db database.DBAdapter) error {
	mapping, err := schema.Build(indexConfig)
	if err != nil {
		return err
	}

	configJSON, err := storedConfig(indexConfig, mapping)
	if err != nil {
		return err
	}

	if err := database.InsertIndexConfig(ctx, db, indexConfig.Name, configJSON); err != nil {
		return err
	}

	logrus.Infof("Created index: %s (%d fields)", indexConfig.Name, len(mapping.FieldNames()))

	return nil
}
