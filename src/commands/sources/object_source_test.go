package sources

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryObjects is an ObjectReader over a map of keys to bodies
type memoryObjects struct {
	objects map[string]string
	closed  []string
}

func (m *memoryObjects) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryObjects) Reader(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &trackedBody{Reader: strings.NewReader(body), onClose: func() { m.closed = append(m.closed, key) }}, nil
}

type trackedBody struct {
	io.Reader
	onClose func()
}

func (b *trackedBody) Close() error {
	b.onClose()
	return nil
}

func TestObjectSourceReadsObjectsInKeyOrder(t *testing.T) {
	store := &memoryObjects{objects: map[string]string{
		"logs/b.jsonl":  "{\"n\": 3}\n",
		"logs/a.jsonl":  "{\"n\": 1}\n{\"n\": 2}\n",
		"logs/empty":    "",
		"other/c.jsonl": "{\"n\": 4}\n",
	}}

	s, err := NewObjectSource(context.Background(), store, "logs/")
	require.NoError(t, err)

	assert.Equal(t, []JsonMap{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}}, readAll(t, s))
	assert.Equal(t, []string{"logs/a.jsonl", "logs/b.jsonl", "logs/empty"}, store.closed)

	committer, err := s.GetCheckpointCommitter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, committer)
	require.NoError(t, s.Close())
}

func TestObjectSourceNoObjects(t *testing.T) {
	store := &memoryObjects{objects: map[string]string{"logs/a.jsonl": "{}\n"}}

	_, err := NewObjectSource(context.Background(), store, "missing/")
	assert.EqualError(t, err, "no objects found under prefix 'missing/'")
}

func TestObjectSourceBadLineNamesObject(t *testing.T) {
	store := &memoryObjects{objects: map[string]string{"a.jsonl": "{\"n\": 1}\nnope\n"}}

	s, err := NewObjectSource(context.Background(), store, "")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetOne(context.Background())
	require.NoError(t, err)
	_, err = s.GetOne(context.Background())
	assert.ErrorContains(t, err, "object 'a.jsonl'")
	assert.ErrorContains(t, err, "line 2")
}

func TestConnectToSourceObjectStorageStream(t *testing.T) {
	_, err := ConnectToSource(context.Background(), "s3://bucket/prefix", true, nil)
	assert.EqualError(t, err, "streaming from object storage is not currently supported")
}
