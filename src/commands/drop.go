package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/database"
)

// RunDrop executes the drop command
func RunDrop(ctx context.Context, dropArgs *args.DropArgs, db database.DBAdapter) error {
	indexConfig, err := getIndexConfig(ctx, dropArgs.Name, db)
	if err != nil {
		return fmt.Errorf("failed to get index config: %w", err)
	}

	// Delete the index from the database first
	if err := database.DeleteIndex(ctx, db, dropArgs.Name); err != nil {
		return err
	}

	if err := os.RemoveAll(indexConfig.Path); err != nil {
		logrus.Warnf(
			"Failed to delete index directory '%s': %v. "+
				"Don't worry, this just means the directory is leaked, but will never be read from again.",
			indexConfig.Path, err,
		)
	}

	logrus.Infof("Dropped index: %s", dropArgs.Name)

	return nil
}
