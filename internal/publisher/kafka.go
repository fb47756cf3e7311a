package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/logger"
)

// KafkaWriter is the part of *kafka.Writer the publisher uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RatesUpdated is emitted once per currency after every run, keyed by the
// source currency code.
type RatesUpdated struct {
	UpdatedAt string       `json:"updated_at"`
	Currency  string       `json:"currency"`
	Target    string       `json:"target"`
	Providers int          `json:"providers"`
	Best      *domain.Rate `json:"best"`
}

type KafkaPublisher struct {
	writer KafkaWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func newWithWriter(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Name() string { return "kafka" }

// Save publishes one RatesUpdated per tracked currency, empty buckets included.
func (k *KafkaPublisher) Save(ctx context.Context, snap *domain.Snapshot) error {
	stamp := snap.UpdatedAt.Format(domain.TimestampLayout)
	msgs := make([]kafka.Message, 0, len(domain.Currencies))
	for _, c := range domain.Currencies {
		event := RatesUpdated{
			UpdatedAt: stamp,
			Currency:  c.Code,
			Target:    snap.Target,
			Providers: len(snap.Rates[c.Code]),
			Best:      snap.Best(c.Code),
		}
		v, err := json.Marshal(event)
		if err != nil {
			logger.Log.Errorw("marshal rates event", "currency", c.Code, "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(c.Code),
			Value: v,
			Time:  snap.UpdatedAt,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write rates events: %w", err)
	}
	logger.Log.Infow("published rates events", "messages", len(msgs))
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
