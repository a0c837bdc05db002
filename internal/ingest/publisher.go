package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"titlechain/internal/title/models"
)

// ResultPublisher writes finished analyses to the analyses topic, keyed by
// case id so re-runs of a case land in the same partition.
type ResultPublisher struct {
	client *kgo.Client
	topic  string
}

// NewResultPublisher constructs a publisher for the given topic.
func NewResultPublisher(client *kgo.Client, topic string) *ResultPublisher {
	return &ResultPublisher{client: client, topic: topic}
}

// Publish writes one result synchronously. The consumer commits its input
// offset only after Publish succeeds, so results are at-least-once.
func (p *ResultPublisher) Publish(ctx context.Context, result models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(result.CaseID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish analysis result: %w", err)
	}
	return nil
}
