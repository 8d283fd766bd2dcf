// Package kafka publishes emitted panes to a Kafka topic as JSON.
package kafka

import (
	"fmt"

	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/log"
	"github.com/Shopify/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	SaramaConfig *sarama.Config
	Addresses    []string
	Topic        string
}

// FormatFn turns a pane into the message to publish; the topic is filled in by the sink.
type FormatFn[K comparable, O any] func(out element.Output[K, O]) (*sarama.ProducerMessage, error)

// Sink is an element.Collector backed by a synchronous producer, so Emit only
// returns once the broker acknowledged the pane.
type Sink[K comparable, O any] struct {
	producer sarama.SyncProducer
	topic    string
	formatFn FormatFn[K, O]
	logger   log.Logger
}

func New[K comparable, O any](config Config) (*Sink[K, O], error) {
	if config.Topic == "" {
		return nil, errors.Errorf("topic can't be empty")
	}
	if len(config.Addresses) == 0 {
		return nil, errors.Errorf("addresses can't be empty")
	}
	saramaConfig := config.SaramaConfig
	if saramaConfig == nil {
		saramaConfig = sarama.NewConfig()
	}
	saramaConfig.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(config.Addresses, saramaConfig)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create kafka producer")
	}
	return NewWithProducer[K, O](producer, config.Topic, nil), nil
}

// NewWithProducer publishes through an existing producer. A nil formatFn publishes
// element.Record as JSON keyed by the pane key.
func NewWithProducer[K comparable, O any](producer sarama.SyncProducer, topic string, formatFn FormatFn[K, O]) *Sink[K, O] {
	if formatFn == nil {
		formatFn = JSONFormat[K, O]
	}
	return &Sink[K, O]{
		producer: producer,
		topic:    topic,
		formatFn: formatFn,
		logger:   log.Global().Named("kafka-sink"),
	}
}

func JSONFormat[K comparable, O any](out element.Output[K, O]) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(element.NewRecord(out))
	if err != nil {
		return nil, err
	}
	return &sarama.ProducerMessage{
		Key:   sarama.StringEncoder(fmt.Sprint(out.Key)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("timing"), Value: []byte(out.Pane.Timing.String())},
		},
	}, nil
}

func (s *Sink[K, O]) Emit(out element.Output[K, O]) error {
	message, err := s.formatFn(out)
	if err != nil {
		return errors.WithMessagef(err, "format pane of key %v", out.Key)
	}
	message.Topic = s.topic
	partition, offset, err := s.producer.SendMessage(message)
	if err != nil {
		return errors.WithMessagef(err, "publish pane of key %v to %s", out.Key, s.topic)
	}
	s.logger.Debugw("published pane", "key", out.Key, "window", out.Window, "partition", partition, "offset", offset)
	return nil
}

func (s *Sink[K, O]) Close() error {
	return s.producer.Close()
}
