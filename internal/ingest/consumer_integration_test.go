//go:build integration

package ingest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"titlechain/internal/ingest"
	"titlechain/internal/platform/config"
	"titlechain/internal/platform/kafka"
	"titlechain/internal/title"
	"titlechain/internal/title/models"
	"titlechain/internal/title/store"
	"titlechain/pkg/testutil"
	"titlechain/pkg/testutil/containers"
)

func TestConsumerEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	cfg := config.Kafka{
		Brokers:          broker.Brokers,
		Group:            "titlechain-analyzer-test",
		InstrumentsTopic: "title.instruments.v1",
		AnalysesTopic:    "title.analyses.v1",
	}

	admin, err := kafka.NewClient(cfg)
	require.NoError(t, err)
	defer admin.Close()
	require.NoError(t, kafka.EnsureTopics(ctx, admin, cfg.InstrumentsTopic, cfg.AnalysesTopic))

	resultStore := store.NewInMemory()
	svc, err := title.New(resultStore)
	require.NoError(t, err)

	consumerClient, err := kafka.NewClient(cfg,
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.InstrumentsTopic),
		kgo.DisableAutoCommit(),
	)
	require.NoError(t, err)
	defer consumerClient.Close()

	consumer := ingest.NewConsumer(consumerClient, svc, ingest.NewResultPublisher(consumerClient, cfg.AnalysesTopic))

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(runCtx) }()

	// Publish one analysis request.
	req := ingest.AnalysisRequest{
		CaseID: "2024-CA-000001",
		Instruments: []models.InstrumentRecord{
			{
				ID:            "d1",
				DocType:       models.DocWarrantyDeed,
				RecordingDate: testutil.Date(2015, time.January, 1),
				PartyOne:      []string{"ADAMS ALBERT"},
				PartyTwo:      []string{"BRYANT BETTY"},
			},
		},
	}
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, admin.ProduceSync(ctx, &kgo.Record{
		Topic: cfg.InstrumentsTopic,
		Key:   []byte(req.CaseID),
		Value: payload,
	}).FirstErr())

	// The finished result lands on the analyses topic.
	resultClient, err := kafka.NewClient(cfg,
		kgo.ConsumeTopics(cfg.AnalysesTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer resultClient.Close()

	var result models.AnalysisResult
	deadline := time.Now().Add(60 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "timed out waiting for analysis result")

		pollCtx, pollCancel := context.WithTimeout(ctx, 5*time.Second)
		fetches := resultClient.PollFetches(pollCtx)
		pollCancel()

		records := fetches.Records()
		if len(records) == 0 {
			continue
		}
		require.NoError(t, json.Unmarshal(records[0].Value, &result))
		break
	}

	require.Equal(t, "2024-CA-000001", result.CaseID)
	require.Len(t, result.Periods, 1)
	require.Equal(t, []string{"BRYANT BETTY"}, result.Periods[0].Owner)

	// And in the store.
	stored, err := resultStore.FindByCase(ctx, "2024-CA-000001")
	require.NoError(t, err)
	require.Equal(t, result.AnalysisID, stored.AnalysisID)

	stop()
	consumerClient.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
