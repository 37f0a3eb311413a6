package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Lines longer than this fail the scan.
const maxLineSize = 16 * 1024 * 1024

// BufSource reads one JSON document per line
type BufSource struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// NewBufSourceFromPath creates a new BufSource from a file path
func NewBufSourceFromPath(path string) (*BufSource, error) {
	logrus.Debugf("Reading from '%s'", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	source := NewBufSource(file)
	source.closer = file
	return source, nil
}

// NewBufSourceFromStdin creates a new BufSource from stdin
func NewBufSourceFromStdin() *BufSource {
	logrus.Debug("Reading from stdin")
	return NewBufSource(os.Stdin)
}

// NewBufSource reads documents from r. Close does not close r.
func NewBufSource(r io.Reader) *BufSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &BufSource{
		scanner: scanner,
	}
}

// GetOne implements Source interface
func (bs *BufSource) GetOne(ctx context.Context) (*SourceItem, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !bs.scanner.Scan() {
			if err := bs.scanner.Err(); err != nil {
				return nil, fmt.Errorf("scanner error: %w", err)
			}
			return &SourceItem{Type: SourceItemTypeClose}, nil
		}
		bs.line++

		line := bs.scanner.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}

		var jsonMap JsonMap
		if err := json.Unmarshal(line, &jsonMap); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line %d: %w", bs.line, err)
		}

		return &SourceItem{
			Type:     SourceItemTypeDocument,
			Document: jsonMap,
		}, nil
	}
}

// GetCheckpointCommitter implements Source interface. Files and stdin are
// always read from the start.
func (bs *BufSource) GetCheckpointCommitter(ctx context.Context) (CheckpointCommitter, error) {
	return nil, nil
}

// Close closes the underlying file, if any
func (bs *BufSource) Close() error {
	if bs.closer != nil {
		return bs.closer.Close()
	}
	return nil
}
