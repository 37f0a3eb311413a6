package sources

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"tokensum/src/s3"
)

// ObjectReader lists and opens objects of a bucket
type ObjectReader interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Reader(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectSource reads JSONL objects one after another, in key order
type ObjectSource struct {
	store   ObjectReader
	keys    []string
	key     string
	body    io.ReadCloser
	current *BufSource
}

// NewObjectSourceFromURL creates an ObjectSource for s3://bucket/prefix,
// connecting with the options of the environment
func NewObjectSourceFromURL(ctx context.Context, url string) (*ObjectSource, error) {
	bucket, prefix, err := s3.ParseURL(url)
	if err != nil {
		return nil, err
	}

	store, err := s3.NewObjectStore(ctx, bucket, s3.OptionsFromEnv())
	if err != nil {
		return nil, err
	}

	return NewObjectSource(ctx, store, prefix)
}

// NewObjectSource reads every object under prefix
func NewObjectSource(ctx context.Context, store ObjectReader, prefix string) (*ObjectSource, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no objects found under prefix '%s'", prefix)
	}

	logrus.Debugf("Reading %d objects under '%s'", len(keys), prefix)

	return &ObjectSource{store: store, keys: keys}, nil
}

// GetOne implements Source interface
func (obs *ObjectSource) GetOne(ctx context.Context) (*SourceItem, error) {
	for {
		if obs.current == nil {
			if len(obs.keys) == 0 {
				return &SourceItem{Type: SourceItemTypeClose}, nil
			}
			if err := obs.open(ctx); err != nil {
				return nil, err
			}
		}

		item, err := obs.current.GetOne(ctx)
		if err != nil {
			return nil, fmt.Errorf("object '%s': %w", obs.key, err)
		}
		if item.Type == SourceItemTypeClose {
			if err := obs.closeCurrent(); err != nil {
				return nil, err
			}
			continue
		}
		return item, nil
	}
}

func (obs *ObjectSource) open(ctx context.Context) error {
	key := obs.keys[0]
	obs.keys = obs.keys[1:]

	body, err := obs.store.Reader(ctx, key)
	if err != nil {
		return err
	}

	logrus.Debugf("Reading object '%s'", key)
	obs.key = key
	obs.body = body
	obs.current = NewBufSource(body)
	return nil
}

func (obs *ObjectSource) closeCurrent() error {
	body := obs.body
	obs.body, obs.current = nil, nil
	if body == nil {
		return nil
	}
	if err := body.Close(); err != nil {
		return fmt.Errorf("failed to close object '%s': %w", obs.key, err)
	}
	return nil
}

// GetCheckpointCommitter implements Source interface. Objects are always
// read from the start.
func (obs *ObjectSource) GetCheckpointCommitter(ctx context.Context) (CheckpointCommitter, error) {
	return nil, nil
}

// Close closes the object being read, if any
func (obs *ObjectSource) Close() error {
	return obs.closeCurrent()
}
