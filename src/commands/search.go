package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blugelabs/bluge"
	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/database"
	"tokensum/src/schema"
)

// runSearchWithCallback executes a search with a callback function for each result
func runSearchWithCallback(
	ctx context.Context,
	searchArgs *args.SearchArgs,
	db database.DBAdapter,
	onDocFn func(string),
) error {
	if searchArgs.Limit == 0 {
		return nil
	}
	if searchArgs.Min > searchArgs.Max {
		return fmt.Errorf("min %d is greater than max %d", searchArgs.Min, searchArgs.Max)
	}

	indexConfig, mapping, err := openMapping(ctx, searchArgs.Name, db)
	if err != nil {
		return fmt.Errorf("failed to open mapping: %w", err)
	}

	field, ok := mapping.Lookup(searchArgs.Field)
	if !ok {
		return fmt.Errorf("field [%s] is not mapped in index '%s'", searchArgs.Field, searchArgs.Name)
	}
	fieldConfig := field.Config()
	if !fieldConfig.Indexed() && !fieldConfig.DocValues {
		return fmt.Errorf("field [%s] is neither indexed nor has doc values", searchArgs.Field)
	}

	if _, err := os.Stat(indexConfig.Path); errors.Is(err, os.ErrNotExist) {
		logrus.Infof("No documents indexed in '%s'", searchArgs.Name)
		return nil
	}

	reader, err := bluge.OpenReader(bluge.DefaultConfig(indexConfig.Path))
	if err != nil {
		return fmt.Errorf("failed to open index reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewNumericRangeInclusiveQuery(
		float64(searchArgs.Min), float64(searchArgs.Max), true, true,
	).SetField(searchArgs.Field)

	sortBy := []string{schema.IDField}
	if fieldConfig.DocValues {
		sortBy = []string{searchArgs.Field, schema.IDField}
	}
	request := bluge.NewTopNSearch(searchArgs.Limit, query).SortBy(sortBy)

	logrus.Debugf("Searching '%s' for %s in [%d, %d]", searchArgs.Name, searchArgs.Field, searchArgs.Min, searchArgs.Max)

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to search index: %w", err)
	}

	match, err := matches.Next()
	for err == nil && match != nil {
		var id string
		var source []byte
		visitErr := match.VisitStoredFields(func(name string, value []byte) bool {
			switch name {
			case schema.IDField:
				id = string(value)
			case schema.SourceField:
				source = append([]byte(nil), value...)
			}
			return true
		})
		if visitErr != nil {
			return fmt.Errorf("failed to read stored fields: %w", visitErr)
		}

		doc, docErr := resultDocument(id, source)
		if docErr != nil {
			return docErr
		}
		onDocFn(doc)

		match, err = matches.Next()
	}
	if err != nil {
		return fmt.Errorf("failed to iterate search results: %w", err)
	}

	return nil
}

// resultDocument returns the original document with its _id set
func resultDocument(id string, source []byte) (string, error) {
	doc := make(map[string]interface{})
	if len(source) > 0 {
		if err := json.Unmarshal(source, &doc); err != nil {
			return "", fmt.Errorf("failed to parse stored document '%s': %w", id, err)
		}
	}
	doc[schema.IDField] = id

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data), nil
}

// RunSearch executes the search command
func RunSearch(ctx context.Context, searchArgs *args.SearchArgs, db database.DBAdapter) error {
	return runSearchWithCallback(
		ctx,
		searchArgs,
		db,
		func(doc string) {
			fmt.Println(doc)
		},
	)
}
