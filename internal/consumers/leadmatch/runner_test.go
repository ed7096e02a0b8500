package leadmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, pipeline *fakePipeline) *Runner {
	t.Helper()
	consumer, err := NewConsumer(pipeline, newFakeManager(), testLogger())
	require.NoError(t, err)
	runner, err := NewRunner(&gcppubsub.Subscriber{}, consumer, testLogger())
	require.NoError(t, err)
	return runner
}

func buildMessage(t *testing.T, eventType string, leadID uuid.UUID) *gcppubsub.Message {
	t.Helper()
	envelope := envelopeFor(t, leadID)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return &gcppubsub.Message{
		Attributes: map[string]string{
			"event_type": eventType,
			"event_id":   envelope.EventID,
		},
		Data: data,
	}
}

func TestRunnerAcksProcessedMessage(t *testing.T) {
	pipeline := &fakePipeline{}
	runner := newTestRunner(t, pipeline)

	leadID := uuid.New()
	result := runner.handle(context.Background(), buildMessage(t, "lead_created", leadID))
	assert.False(t, result.nack)
	require.Len(t, pipeline.processed, 1)
	assert.Equal(t, leadID, pipeline.processed[0])
}

func TestRunnerAcksUnknownEventType(t *testing.T) {
	pipeline := &fakePipeline{}
	runner := newTestRunner(t, pipeline)

	result := runner.handle(context.Background(), buildMessage(t, "lead_vaporized", uuid.New()))
	assert.False(t, result.nack, "unknown types must not redeliver forever")
	assert.Empty(t, pipeline.processed)
}

func TestRunnerAcksMalformedEnvelope(t *testing.T) {
	pipeline := &fakePipeline{}
	runner := newTestRunner(t, pipeline)

	msg := buildMessage(t, "lead_created", uuid.New())
	msg.Data = []byte("{")
	result := runner.handle(context.Background(), msg)
	assert.False(t, result.nack, "poison payloads must not redeliver forever")
	assert.Empty(t, pipeline.processed)
}

func TestRunnerNacksPipelineFailure(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("db down")}
	runner := newTestRunner(t, pipeline)

	result := runner.handle(context.Background(), buildMessage(t, "lead_created", uuid.New()))
	assert.True(t, result.nack)
}
