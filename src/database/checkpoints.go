package database

import (
	"context"
	"fmt"
	"sort"
)

// LoadOffsets returns the saved next offset of each partition of a source.
// Partitions that were never saved are missing from the map.
func LoadOffsets(ctx context.Context, db DBAdapter, sourceID string) (map[int32]int64, error) {
	rows, err := db.Query(ctx, "SELECT partition, offset_value FROM kafka_checkpoints WHERE source_id=$1", sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoints of '%s': %w", sourceID, err)
	}
	defer rows.Close()

	offsets := make(map[int32]int64)
	for rows.Next() {
		var partition int32
		var offset int64
		if err := rows.Scan(&partition, &offset); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		offsets[partition] = offset
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return offsets, nil
}

// SaveOffsets upserts the next offset of each given partition of a source
func SaveOffsets(ctx context.Context, db DBAdapter, sourceID string, offsets map[int32]int64) error {
	partitions := make([]int32, 0, len(offsets))
	for partition := range offsets {
		partitions = append(partitions, partition)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		_, err := db.Exec(ctx,
			"INSERT INTO kafka_checkpoints (source_id, partition, offset_value) VALUES ($1, $2, $3) "+
				"ON CONFLICT (source_id, partition) DO UPDATE SET offset_value = EXCLUDED.offset_value",
			sourceID, partition, offsets[partition],
		)
		if err != nil {
			return fmt.Errorf("failed to save checkpoint of '%s' partition %d: %w", sourceID, partition, err)
		}
	}
	return nil
}
