package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensum/src/database"
)

const testTopic = "docs"

func readAll(t *testing.T, s Source) []JsonMap {
	t.Helper()
	var docs []JsonMap
	for {
		item, err := s.GetOne(context.Background())
		require.NoError(t, err)
		if item.Type == SourceItemTypeClose {
			return docs
		}
		docs = append(docs, item.Document)
	}
}

func TestBufSource(t *testing.T) {
	s := NewBufSource(strings.NewReader("{\"codes\": \"1 2\"}\n\n   \n{\"_id\": \"x\"}\n"))
	defer s.Close()

	assert.Equal(t, []JsonMap{{"codes": "1 2"}, {"_id": "x"}}, readAll(t, s))

	committer, err := s.GetCheckpointCommitter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, committer)
}

func TestBufSourceBadLine(t *testing.T) {
	s := NewBufSource(strings.NewReader("{\"a\": 1}\nnot json\n"))
	_, err := s.GetOne(context.Background())
	require.NoError(t, err)
	_, err = s.GetOne(context.Background())
	assert.ErrorContains(t, err, "line 2")
}

func TestConnectToSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\": 1}\n"), 0o644))

	s, err := ConnectToSource(context.Background(), path, false, nil)
	require.NoError(t, err)
	assert.Len(t, readAll(t, s), 1)
	require.NoError(t, s.Close())

	_, err = ConnectToSource(context.Background(), path, true, nil)
	assert.Error(t, err)

	_, err = ConnectToSource(context.Background(), filepath.Join(t.TempDir(), "missing"), false, nil)
	assert.Error(t, err)
}

func TestParseKafkaURL(t *testing.T) {
	servers, topic, err := ParseKafkaURL("kafka://a:9092,b:9092/docs")
	require.NoError(t, err)
	assert.Equal(t, "a:9092,b:9092", servers)
	assert.Equal(t, "docs", topic)

	for _, bad := range []string{"http://a/docs", "kafka://a:9092", "kafka:///docs", "kafka://a/"} {
		_, _, err := ParseKafkaURL(bad)
		assert.Error(t, err, bad)
	}
}

func newMockConsumer(t *testing.T, partitions ...int32) *mocks.Consumer {
	consumer := mocks.NewConsumer(t, NewKafkaConfig())
	consumer.SetTopicMetadata(map[string][]int32{testTopic: partitions})
	return consumer
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Value: []byte(value)}
}

func TestKafkaSourceBatchStopsAtHighWaterMark(t *testing.T) {
	consumer := newMockConsumer(t, 0, 1)
	consumer.ExpectConsumePartition(testTopic, 0, sarama.OffsetOldest).
		YieldMessage(message(`{"codes": "1"}`)).
		YieldMessage(message(`{"codes": "2"}`))
	consumer.ExpectConsumePartition(testTopic, 1, sarama.OffsetOldest).
		YieldMessage(message(`{"codes": "3"}`))

	s, err := NewKafkaSource(context.Background(), consumer, testTopic, false, nil)
	require.NoError(t, err)
	// would fail the test with a timeout if the high water marks were ignored
	s.SetIdleTimeout(time.Minute)
	defer s.Close()

	assert.ElementsMatch(t, []JsonMap{{"codes": "1"}, {"codes": "2"}, {"codes": "3"}}, readAll(t, s))

	committer, err := s.GetCheckpointCommitter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, committer)
}

func TestKafkaSourceBatchIdleTimeout(t *testing.T) {
	consumer := newMockConsumer(t, 0)
	consumer.ExpectConsumePartition(testTopic, 0, sarama.OffsetOldest)

	s, err := NewKafkaSource(context.Background(), consumer, testTopic, false, nil)
	require.NoError(t, err)
	s.SetIdleTimeout(20 * time.Millisecond)
	defer s.Close()

	assert.Empty(t, readAll(t, s))
}

func TestKafkaSourceBadMessage(t *testing.T) {
	consumer := newMockConsumer(t, 0)
	consumer.ExpectConsumePartition(testTopic, 0, sarama.OffsetOldest).YieldMessage(message(`nope`))

	s, err := NewKafkaSource(context.Background(), consumer, testTopic, false, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetOne(context.Background())
	assert.ErrorContains(t, err, "failed to parse JSON from Kafka message")
}

func TestKafkaSourceUnknownTopic(t *testing.T) {
	consumer := newMockConsumer(t, 0)
	_, err := NewKafkaSource(context.Background(), consumer, "other", false, nil)
	assert.Error(t, err)
}

func TestKafkaSourceStreamCheckpoints(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer db.Close()

	checkpoint := NewKafkaCheckpoint("kafka://localhost/docs", db)
	require.NoError(t, checkpoint.Committer(map[int32]int64{0: 5}).Commit(ctx))

	consumer := newMockConsumer(t, 0, 1)
	consumer.ExpectConsumePartition(testTopic, 0, 5).YieldMessage(message(`{"n": 5}`))
	consumer.ExpectConsumePartition(testTopic, 1, sarama.OffsetOldest).YieldMessage(message(`{"n": 0}`))

	s, err := NewKafkaSource(ctx, consumer, testTopic, true, checkpoint)
	require.NoError(t, err)
	defer s.Close()

	var docs []JsonMap
	for i := 0; i < 2; i++ {
		item, err := s.GetOne(ctx)
		require.NoError(t, err)
		require.Equal(t, SourceItemTypeDocument, item.Type)
		docs = append(docs, item.Document)
	}
	assert.ElementsMatch(t, []JsonMap{{"n": float64(5)}, {"n": float64(0)}}, docs)

	committer, err := s.GetCheckpointCommitter(ctx)
	require.NoError(t, err)
	require.NotNil(t, committer)
	assert.Equal(t, map[int32]int64{0: 6, 1: 1}, committer.(*KafkaOffsetsCommitter).Offsets)
	require.NoError(t, committer.Commit(ctx))

	start, err := checkpoint.StartOffsets(ctx, []int32{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[int32]int64{0: 6, 1: 1, 2: sarama.OffsetOldest}, start)

	// nothing read since the last snapshot
	committer, err = s.GetCheckpointCommitter(ctx)
	require.NoError(t, err)
	assert.Empty(t, committer.(*KafkaOffsetsCommitter).Offsets)

	// a stream read waits for more messages until its context ends
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.GetOne(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
