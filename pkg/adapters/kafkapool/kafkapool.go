// Package kafkapool adapts Kafka broker/producer settings into the
// allocator/destroy pair a respool.Pool needs to pool sarama
// SyncProducers, letting respool bound how many producer connections
// are held open rather than creating one per caller.
package kafkapool

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"github.com/ajitpratap0/respool"
	"github.com/ajitpratap0/respool/pkg/poolerr"
)

// Config mirrors the subset of sarama.Config this adapter exercises.
type Config struct {
	Brokers     []string
	Acks        string // "all", "1", or "0"
	Retries     int
	Compression string // "gzip", "snappy", "lz4", or "" for none
	Idempotent  bool
}

func (cfg Config) saramaConfig() *sarama.Config {
	sc := sarama.NewConfig()

	switch cfg.Acks {
	case "all", "-1":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "1":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "0":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	}

	sc.Producer.Retry.Max = cfg.Retries
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	switch cfg.Compression {
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	default:
		sc.Producer.Compression = sarama.CompressionNone
	}

	if cfg.Idempotent {
		sc.Producer.Idempotent = true
		sc.Net.MaxOpenRequests = 1
	}

	return sc
}

// Producer bundles a dedicated sarama.Client with the SyncProducer built
// from it, so destroying one tears down both.
type Producer struct {
	client   sarama.Client
	Producer sarama.SyncProducer
}

// NewAllocator returns an allocator dialing one dedicated client and
// SyncProducer per call.
func NewAllocator(cfg Config) func(context.Context) (*Producer, error) {
	saramaCfg := cfg.saramaConfig()
	return func(_ context.Context) (*Producer, error) {
		client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
		if err != nil {
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "kafka client dial failed")
		}
		producer, err := sarama.NewSyncProducerFromClient(client)
		if err != nil {
			_ = client.Close()
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "kafka producer creation failed")
		}
		return &Producer{client: client, Producer: producer}, nil
	}
}

// DestroyHandler closes the producer and its underlying client. Errors
// are swallowed: respool discards the resource regardless.
func DestroyHandler(_ context.Context, p *Producer) {
	_ = p.Producer.Close()
	_ = p.client.Close()
}

// EvictionPredicate evicts producers idle longer than maxIdleTime,
// guarding against brokers that silently drop long-unused connections.
func EvictionPredicate(maxIdleTime time.Duration) func(*Producer, respool.Metadata) bool {
	return func(_ *Producer, meta respool.Metadata) bool {
		return maxIdleTime > 0 && meta.IdleTime() > maxIdleTime
	}
}
