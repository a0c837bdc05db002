// Package kafka wires franz-go clients from configuration.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"titlechain/internal/platform/config"
)

// NewClient builds a franz-go client. Extra options (consumer group, topics)
// come from the caller.
func NewClient(cfg config.Kafka, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	opts = append([]kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopics creates the given topics when they do not exist. Safe to call
// on every startup; existing topics are left untouched.
func EnsureTopics(ctx context.Context, client *kgo.Client, topics ...string) error {
	adm := kadm.NewClient(client)

	existing, err := adm.ListTopics(ctx, topics...)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}

	var missing []string
	for _, topic := range topics {
		if !existing.Has(topic) {
			missing = append(missing, topic)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	resp, err := adm.CreateTopics(ctx, 1, 1, nil, missing...)
	if err != nil {
		return fmt.Errorf("create kafka topics: %w", err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil {
			return fmt.Errorf("create kafka topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
