//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/audit/publishers/kafka"
	"caseflow/pkg/testutil/containers"
)

func TestPublisher_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	redpanda := containers.GetManager().GetRedpanda(t)

	pub, err := kafka.NewPublisher(ctx, redpanda.Brokers, kafka.WithTopic("caseflow.audit.test"))
	require.NoError(t, err)
	defer pub.Close()

	sent := audit.Event{
		Category:    audit.CategoryOperations,
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		PrincipalID: 42,
		Subject:     "42",
		Action:      string(audit.EventCacheCleared),
		RequestID:   "req-1",
	}
	require.NoError(t, pub.Emit(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics("caseflow.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, sent.PrincipalID, got.PrincipalID)
	require.Equal(t, sent.Action, got.Action)
	require.Equal(t, sent.Category, got.Category)
	require.Equal(t, "42", string(records[0].Key))
}
