package sources

import (
	"context"
	"fmt"
	"strings"

	"tokensum/src/database"
	"tokensum/src/s3"
)

// JsonMap represents a JSON map type
type JsonMap = map[string]interface{}

// SourceItem represents an item from a data source
type SourceItem struct {
	Type     SourceItemType `json:"type"`
	Document JsonMap        `json:"document,omitempty"`
}

type SourceItemType string

const (
	// SourceItemTypeDocument - A document to index
	SourceItemTypeDocument SourceItemType = "document"
	// SourceItemTypeClose - The source is closed, can't read more from it
	SourceItemTypeClose SourceItemType = "close"
)

// Source represents a data source interface
type Source interface {
	// GetOne gets a document from the source
	GetOne(ctx context.Context) (*SourceItem, error)

	// GetCheckpointCommitter snapshots the read position of the source, or
	// returns nil when the source cannot resume. The indexer commits the
	// snapshot once the documents read so far are in the index.
	GetCheckpointCommitter(ctx context.Context) (CheckpointCommitter, error)

	// Close closes the source and releases resources
	Close() error
}

// CheckpointCommitter represents a checkpoint committer interface
type CheckpointCommitter interface {
	// Commit commits the stored state snapshot
	Commit(ctx context.Context) error
}

// ConnectToSource connects to a data source based on the input parameters.
// An empty input reads stdin.
func ConnectToSource(ctx context.Context, input string, stream bool, db database.DBAdapter) (Source, error) {
	switch {
	case strings.HasPrefix(input, KafkaPrefix):
		return NewKafkaSourceFromURL(ctx, input, stream, db)
	case strings.HasPrefix(input, s3.URLPrefix):
		if stream {
			return nil, fmt.Errorf("streaming from object storage is not currently supported")
		}
		return NewObjectSourceFromURL(ctx, input)
	case input != "":
		if stream {
			return nil, fmt.Errorf("streaming from a file is not currently supported")
		}
		return NewBufSourceFromPath(input)
	default:
		return NewBufSourceFromStdin(), nil
	}
}
