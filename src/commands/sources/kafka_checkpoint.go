package sources

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"tokensum/src/database"
)

// KafkaCheckpoint keeps the read position of one kafka:// source in the
// metadata database, keyed by the source URL
type KafkaCheckpoint struct {
	sourceID string
	db       database.DBAdapter
}

// NewKafkaCheckpoint creates a new KafkaCheckpoint
func NewKafkaCheckpoint(sourceID string, db database.DBAdapter) *KafkaCheckpoint {
	return &KafkaCheckpoint{sourceID: sourceID, db: db}
}

// StartOffsets returns where to start reading each partition: the saved
// offset, or the oldest one for partitions never saved
func (kc *KafkaCheckpoint) StartOffsets(ctx context.Context, partitions []int32) (map[int32]int64, error) {
	saved, err := database.LoadOffsets(ctx, kc.db, kc.sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	logrus.Debugf("Loaded checkpoint of '%s': %v", kc.sourceID, saved)

	offsets := make(map[int32]int64, len(partitions))
	for _, partition := range partitions {
		offset, ok := saved[partition]
		if !ok {
			offset = sarama.OffsetOldest
		}
		offsets[partition] = offset
	}
	return offsets, nil
}

// Committer snapshots the next offsets to read
func (kc *KafkaCheckpoint) Committer(offsets map[int32]int64) *KafkaOffsetsCommitter {
	return &KafkaOffsetsCommitter{checkpoint: kc, Offsets: offsets}
}

// KafkaOffsetsCommitter saves a snapshot of offsets once the documents read
// before them are in the index
type KafkaOffsetsCommitter struct {
	checkpoint *KafkaCheckpoint
	Offsets    map[int32]int64
}

// Commit implements CheckpointCommitter interface
func (c *KafkaOffsetsCommitter) Commit(ctx context.Context) error {
	if len(c.Offsets) == 0 {
		return nil
	}
	logrus.Debugf("Saving checkpoint of '%s': %v", c.checkpoint.sourceID, c.Offsets)
	return database.SaveOffsets(ctx, c.checkpoint.db, c.checkpoint.sourceID, c.Offsets)
}
