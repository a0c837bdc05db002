package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"titlechain/internal/title"
	"titlechain/internal/title/models"
	dErrors "titlechain/pkg/domain-errors"
)

// Analyzer is the slice of the analysis service the consumer needs.
type Analyzer interface {
	Analyze(ctx context.Context, in title.Input) (models.AnalysisResult, error)
}

// Publisher emits finished results.
type Publisher interface {
	Publish(ctx context.Context, result models.AnalysisResult) error
}

// Consumer polls the instruments topic and runs one analysis per message.
// Malformed messages and invalid requests are logged and committed; only
// infrastructure failures (store, broker) leave the offset uncommitted for
// redelivery.
type Consumer struct {
	client    *kgo.Client
	analyzer  Analyzer
	publisher Publisher
	logger    *slog.Logger
}

type ConsumerOption func(*Consumer)

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// NewConsumer constructs a Consumer. The kgo client must be configured with
// a consumer group, the instruments topic, and auto-commit disabled.
func NewConsumer(client *kgo.Client, analyzer Analyzer, publisher Publisher, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:    client,
		analyzer:  analyzer,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until ctx is canceled. Returns nil on clean shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var processed []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if c.handle(ctx, record) {
				processed = append(processed, record)
			}
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.ErrorContext(ctx, "kafka commit failed", "error", err)
			}
		}
	}
}

// handle processes one message. Returns true when the offset should be
// committed.
func (c *Consumer) handle(ctx context.Context, record *kgo.Record) bool {
	var req AnalysisRequest
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.logger.WarnContext(ctx, "dropping malformed analysis request",
			"key", string(record.Key),
			"offset", record.Offset,
			"error", err,
		)
		return true
	}

	result, err := c.analyzer.Analyze(ctx, req.ToInput())
	if err != nil {
		// Bad requests cannot succeed on redelivery; commit and move on.
		// Internal failures (store down) are retried by not committing.
		code := dErrors.CodeOf(err)
		retriable := code == dErrors.CodeInternal
		c.logger.ErrorContext(ctx, "analysis failed",
			"case_id", req.CaseID,
			"code", code,
			"retriable", retriable,
			"error", err.Error(),
		)
		return !retriable
	}

	if err := c.publisher.Publish(ctx, result); err != nil {
		c.logger.ErrorContext(ctx, "result publish failed",
			"case_id", req.CaseID,
			"error", err,
		)
		return false
	}
	return true
}
