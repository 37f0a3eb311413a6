package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/index"
	"github.com/sirupsen/logrus"

	"tokensum/src/args"
	"tokensum/src/commands/sources"
	"tokensum/src/config"
	"tokensum/src/database"
	"tokensum/src/schema"
)

// BatchResult represents the result of a batch operation
type BatchResult int

const (
	BatchResultEOF BatchResult = iota
	BatchResultTimeout
	BatchResultFull
)

// IndexRunner pipes documents from a source through the mapping into the
// bluge index of an index config
type IndexRunner struct {
	source  sources.Source
	mapping *schema.Mapping
	args    *args.IndexArgs
	config  *config.IndexConfig
	writer  *bluge.Writer

	// Totals over the whole run
	added  int
	failed int
}

// NewIndexRunner creates a new IndexRunner
func NewIndexRunner(ctx context.Context, indexArgs *args.IndexArgs, db database.DBAdapter) (*IndexRunner, error) {
	source, err := sources.ConnectToSource(ctx, indexArgs.Input, indexArgs.Stream, db)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to source: %w", err)
	}

	runner, err := NewIndexRunnerWithSource(ctx, indexArgs, db, source)
	if err != nil {
		source.Close()
		return nil, err
	}
	return runner, nil
}

// NewIndexRunnerWithSource creates a new IndexRunner with a specific source
func NewIndexRunnerWithSource(
	ctx context.Context,
	indexArgs *args.IndexArgs,
	db database.DBAdapter,
	source sources.Source,
) (*IndexRunner, error) {
	indexConfig, mapping, err := openMapping(ctx, indexArgs.Name, db)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping: %w", err)
	}

	if err := os.MkdirAll(indexConfig.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(indexConfig.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to create Bluge writer: %w", err)
	}

	return &IndexRunner{
		source:  source,
		mapping: mapping,
		args:    indexArgs,
		config:  indexConfig,
		writer:  writer,
	}, nil
}

// RunOneBatch reads documents from the source until it closes, the commit
// interval passes or the batch is full, then commits them
func (ir *IndexRunner) RunOneBatch(ctx context.Context) (BatchResult, error) {
	batch := bluge.NewBatch()
	added := 0
	result := BatchResultEOF

	// in stream mode the source read is bounded by the commit interval
	readCtx := ctx
	if ir.args.Stream {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, ir.args.CommitInterval)
		defer cancel()
	}

	logrus.Debugf("Piping source -> index '%s'", ir.config.Name)

loop:
	for {
		if ir.args.BatchSize > 0 && added >= ir.args.BatchSize {
			result = BatchResultFull
			break loop
		}

		item, err := ir.source.GetOne(readCtx)
		if err != nil {
			if ctx.Err() != nil {
				return BatchResultEOF, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) && readCtx.Err() != nil {
				result = BatchResultTimeout
				break loop
			}
			return BatchResultEOF, fmt.Errorf("failed to get item from source: %w", err)
		}

		switch item.Type {
		case sources.SourceItemTypeDocument:
			parsed, err := ir.mapping.ParseDocument(item.Document)
			if err != nil {
				logrus.Errorf("Failed to parse document (on %d iteration): %v", ir.added+added, err)
				ir.failed++
				continue
			}
			doc := parsed.Bluge()
			batch.Update(doc.ID(), doc)
			added++

		case sources.SourceItemTypeClose:
			logrus.Debugf("Source closed for index '%s'", ir.config.Name)
			break loop
		}
	}

	if added == 0 {
		logrus.Debug("Not committing: no documents added")
		return result, nil
	}

	logrus.Infof("Committing %d documents", added)

	if err := ir.commit(ctx, batch); err != nil {
		return BatchResultEOF, err
	}
	ir.added += added

	return result, nil
}

// commit writes the batch, then lets the source save its position
func (ir *IndexRunner) commit(ctx context.Context, batch *index.Batch) error {
	committer, err := ir.source.GetCheckpointCommitter(ctx)
	if err != nil {
		return fmt.Errorf("failed to get checkpoint committer: %w", err)
	}

	if err := ir.writer.Batch(batch); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	if committer != nil {
		if err := committer.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit checkpoint: %w", err)
		}
	}

	return nil
}

// Close closes the source and the index writer
func (ir *IndexRunner) Close() error {
	if err := ir.source.Close(); err != nil {
		logrus.Warnf("Failed to close source: %v", err)
	}
	if err := ir.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Bluge writer: %w", err)
	}
	return nil
}

// Run commits batches until the source closes
func (ir *IndexRunner) Run(ctx context.Context) error {
	for {
		result, err := ir.RunOneBatch(ctx)
		if err != nil {
			return fmt.Errorf("failed to run batch: %w", err)
		}

		if result == BatchResultEOF {
			break
		}
	}

	logrus.Infof("Indexed %d documents into '%s' (%d failed)", ir.added, ir.config.Name, ir.failed)
	return nil
}

// RunIndex executes the index command
func RunIndex(ctx context.Context, indexArgs *args.IndexArgs, db database.DBAdapter) error {
	runner, err := NewIndexRunner(ctx, indexArgs, db)
	if err != nil {
		return fmt.Errorf("failed to create index runner: %w", err)
	}

	runErr := runner.Run(ctx)
	if err := runner.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
