package commands

import (
	"context"
	"fmt"

	"tokensum/src/database"
)

// RunList prints the name of every index, one per line
func RunList(ctx context.Context, db database.DBAdapter) error {
	names, err := database.ListIndexNames(ctx, db)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
