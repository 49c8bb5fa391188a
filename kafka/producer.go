package kafka

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers  []string
	ClientID string
	Topic    string

	// DeliveryTimeout bounds how long a record may wait in the client,
	// retries included. Zero uses DefaultDeliveryTimeout.
	DeliveryTimeout time.Duration
}

const DefaultDeliveryTimeout = 10 * time.Second

type Producer struct {
	Client *kgo.Client
	Config *ProducerConfig
	Logger *zap.Logger
}

// NewProducer creates a producer writing to conf.Topic. The client connects
// lazily, so an unreachable broker surfaces on the first Publish.
func NewProducer(conf *ProducerConfig, metrics *kprom.Metrics, logger *zap.Logger) (*Producer, error) {
	deliveryTimeout := conf.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultDeliveryTimeout
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),    // Connects to Kafka brokers
		kgo.ClientID(conf.ClientID),         // Identifies this client to the brokers
		kgo.DefaultProduceTopic(conf.Topic), // Records without a topic go here
		kgo.RequiredAcks(kgo.AllISRAcks()),  // Waits for all in-sync replicas
		kgo.RecordDeliveryTimeout(deliveryTimeout),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics)) // Attaches monitoring hooks
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{Client: client, Config: conf, Logger: logger}, nil
}

// Publish writes one record and returns once the brokers acknowledged it,
// the delivery timeout expired or ctx is done, whichever comes first.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	record := &kgo.Record{Key: key, Value: value}

	done := make(chan error, 1)
	p.Client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		done <- err
	})

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("produce to %s: %w", p.Config.Topic, err)
	}

	p.Logger.Debug("published record",
		zap.String("topic", record.Topic),
		zap.Int32("partition", record.Partition),
		zap.Int64("offset", record.Offset),
	)
	return nil
}

func (p *Producer) Close() {
	p.Client.Close()
}
