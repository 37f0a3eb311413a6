package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"tokensum/src/database"
)

// KafkaPrefix is the URL prefix for Kafka sources
const KafkaPrefix = "kafka://"

const (
	consumerMessagesChannelSize = 10
	// A batch read ends after this long without a message.
	defaultIdleTimeout = time.Second
)

// KafkaSource reads JSON documents from every partition of a topic. A batch
// read ends once each partition reached its high water mark or the topic
// stays idle; a stream read only ends with its context.
type KafkaSource struct {
	topic         string
	stream        bool
	idleTimeout   time.Duration
	consumer      sarama.Consumer
	partConsumers map[int32]sarama.PartitionConsumer
	messages      chan *sarama.ConsumerMessage
	done          chan struct{}
	closeOnce     sync.Once
	wg            sync.WaitGroup

	checkpoint        *KafkaCheckpoint
	pending           map[int32]struct{}
	partitionToOffset map[int32]int64
	mutex             sync.Mutex
}

// ParseKafkaURL parses a Kafka URL into servers and topic
func ParseKafkaURL(url string) (string, string, error) {
	if !strings.HasPrefix(url, KafkaPrefix) {
		return "", "", fmt.Errorf("'%s' does not start with %s", url, KafkaPrefix)
	}

	trimmedInput := url[len(KafkaPrefix):]
	parts := strings.SplitN(trimmedInput, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("'%s' needs to include a '/' to include the topic name", url)
	}

	return parts[0], parts[1], nil
}

// NewKafkaConfig returns the consumer settings used for every Kafka source
func NewKafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0

	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Retry.Backoff = 2 * time.Second

	config.Net.DialTimeout = 10 * time.Second
	config.Net.ReadTimeout = 10 * time.Second
	config.Net.WriteTimeout = 10 * time.Second

	config.Consumer.Fetch.Min = 1024        // 1KB minimum
	config.Consumer.Fetch.Default = 1024000 // 1MB default
	config.Consumer.Fetch.Max = 10240000    // 10MB maximum

	config.ChannelBufferSize = 256
	return config
}

// NewKafkaSourceFromURL connects to the brokers of a kafka:// URL. Stream
// sources checkpoint their offsets in the metadata database under the URL.
func NewKafkaSourceFromURL(ctx context.Context, url string, stream bool, db database.DBAdapter) (*KafkaSource, error) {
	servers, topic, err := ParseKafkaURL(url)
	if err != nil {
		return nil, err
	}

	logrus.Debugf("Reading from kafka '%s' (topic '%s')", servers, topic)

	consumer, err := sarama.NewConsumer(strings.Split(servers, ","), NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	var checkpoint *KafkaCheckpoint
	if stream {
		checkpoint = NewKafkaCheckpoint(url, db)
	}

	source, err := NewKafkaSource(ctx, consumer, topic, stream, checkpoint)
	if err != nil {
		consumer.Close()
		return nil, err
	}
	return source, nil
}

// NewKafkaSource starts consuming every partition of topic, resuming from
// the checkpoint when one is given.
func NewKafkaSource(
	ctx context.Context,
	consumer sarama.Consumer,
	topic string,
	stream bool,
	checkpoint *KafkaCheckpoint,
) (*KafkaSource, error) {
	partitions, err := consumer.Partitions(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get partitions for topic %s: %w", topic, err)
	}
	if len(partitions) == 0 {
		return nil, fmt.Errorf("no partitions found for topic %s", topic)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	startOffsets := make(map[int32]int64, len(partitions))
	for _, partition := range partitions {
		startOffsets[partition] = sarama.OffsetOldest
	}
	if checkpoint != nil {
		startOffsets, err = checkpoint.StartOffsets(ctx, partitions)
		if err != nil {
			return nil, err
		}
	}

	ks := &KafkaSource{
		topic:             topic,
		stream:            stream,
		idleTimeout:       defaultIdleTimeout,
		consumer:          consumer,
		partConsumers:     make(map[int32]sarama.PartitionConsumer, len(partitions)),
		messages:          make(chan *sarama.ConsumerMessage, consumerMessagesChannelSize),
		done:              make(chan struct{}),
		checkpoint:        checkpoint,
		pending:           make(map[int32]struct{}, len(partitions)),
		partitionToOffset: make(map[int32]int64),
	}

	for _, partition := range partitions {
		startOffset := startOffsets[partition]
		pc, err := consumer.ConsumePartition(topic, partition, startOffset)
		if err != nil {
			ks.Close()
			return nil, fmt.Errorf("failed to consume partition %d of topic %s: %w", partition, topic, err)
		}
		ks.partConsumers[partition] = pc
		ks.pending[partition] = struct{}{}

		ks.wg.Add(1)
		go ks.forward(partition, pc)

		logrus.Debugf("Started consumer for partition %d at offset %d", partition, startOffset)
	}

	return ks, nil
}

// SetIdleTimeout changes how long a batch read waits for a message before
// considering the topic drained.
func (ks *KafkaSource) SetIdleTimeout(d time.Duration) {
	ks.idleTimeout = d
}

func (ks *KafkaSource) forward(partition int32, pc sarama.PartitionConsumer) {
	defer ks.wg.Done()
	for {
		select {
		case message, ok := <-pc.Messages():
			if !ok {
				return
			}
			select {
			case ks.messages <- message:
			case <-ks.done:
				return
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			logrus.Errorf("Kafka consumer error (topic %s, partition %d): %v", ks.topic, partition, err.Err)
		case <-ks.done:
			return
		}
	}
}

// GetOne implements Source interface
func (ks *KafkaSource) GetOne(ctx context.Context) (*SourceItem, error) {
	var idle <-chan time.Time
	if !ks.stream {
		if len(ks.pending) == 0 {
			return &SourceItem{Type: SourceItemTypeClose}, nil
		}
		timer := time.NewTimer(ks.idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	select {
	case message := <-ks.messages:
		ks.mutex.Lock()
		ks.partitionToOffset[message.Partition] = message.Offset
		ks.mutex.Unlock()

		if !ks.stream && message.Offset+1 >= ks.partConsumers[message.Partition].HighWaterMarkOffset() {
			logrus.Debugf("Partition %d of topic %s drained at offset %d", message.Partition, ks.topic, message.Offset)
			delete(ks.pending, message.Partition)
		}

		var jsonMap JsonMap
		if err := json.Unmarshal(message.Value, &jsonMap); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from Kafka message (partition %d, offset %d): %w",
				message.Partition, message.Offset, err)
		}

		return &SourceItem{
			Type:     SourceItemTypeDocument,
			Document: jsonMap,
		}, nil

	case <-idle:
		logrus.Debugf("No message from topic %s for %s, closing", ks.topic, ks.idleTimeout)
		return &SourceItem{Type: SourceItemTypeClose}, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetCheckpointCommitter implements Source interface
func (ks *KafkaSource) GetCheckpointCommitter(ctx context.Context) (CheckpointCommitter, error) {
	if ks.checkpoint == nil {
		return nil, nil
	}

	ks.mutex.Lock()
	defer ks.mutex.Unlock()

	// resume at the record after the last one read
	next := make(map[int32]int64, len(ks.partitionToOffset))
	for partition, offset := range ks.partitionToOffset {
		next[partition] = offset + 1
	}
	ks.partitionToOffset = make(map[int32]int64)

	return ks.checkpoint.Committer(next), nil
}

// Close implements Source interface
func (ks *KafkaSource) Close() error {
	var firstErr error
	ks.closeOnce.Do(func() {
		close(ks.done)
		for partition, pc := range ks.partConsumers {
			if err := pc.Close(); err != nil {
				logrus.Warnf("Failed to close consumer of partition %d: %v", partition, err)
			}
		}
		ks.wg.Wait()
		if err := ks.consumer.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close Kafka consumer: %w", err)
		}
	})
	return firstErr
}
