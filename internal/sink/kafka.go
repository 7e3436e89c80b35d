package sink

import (
	"context"
	"time"

	"RatePull/internal/domain/models"
	pkgkafka "RatePull/pkg/kafka"
)

// KafkaSink publishes each record as JSON to a topic, keyed by bank so
// a provider's rows stay ordered within a partition. Flat files remain
// the system of record; this is fan-out for downstream consumers.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
	timeout  time.Duration
}

type kafkaRecord struct {
	Bank       string         `json:"bank"`
	URL        string         `json:"url"`
	ScrapedAt  time.Time      `json:"scraped_at"`
	AssetValue float64        `json:"asset_value"`
	LoanAmount float64        `json:"loan_amount"`
	LTV        float64        `json:"ltv"`
	Period     string         `json:"period,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// NewKafkaSink wraps a producer for a fixed topic.
func NewKafkaSink(producer *pkgkafka.Producer, topic string, timeout time.Duration) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, timeout: timeout}
}

func (s *KafkaSink) Name() string { return "kafka" }

// Write publishes one record.
func (s *KafkaSink) Write(record models.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.producer.Publish(ctx, s.topic, []byte(record.Bank), kafkaRecord{
		Bank:       record.Bank,
		URL:        record.URL,
		ScrapedAt:  record.ScrapedAt,
		AssetValue: record.AssetValue,
		LoanAmount: record.LoanAmount,
		LTV:        record.LTV,
		Period:     record.Period,
		Extra:      record.Extra,
	})
}

// Close closes the underlying producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
