package leadmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

type fakePipeline struct {
	processed []uuid.UUID
	err       error
}

func (f *fakePipeline) ProcessLead(_ context.Context, leadID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.processed = append(f.processed, leadID)
	return nil
}

type fakeManager struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
}

func newFakeManager() *fakeManager {
	return &fakeManager{seen: map[uuid.UUID]bool{}}
}

func (f *fakeManager) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if f.seen[eventID] {
		return true, nil
	}
	f.seen[eventID] = true
	return false, nil
}

func (f *fakeManager) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	delete(f.seen, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func envelopeFor(t *testing.T, leadID uuid.UUID) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(leads.LeadEvent{LeadID: leadID, OccurredAt: time.Now().UTC()})
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func TestConsumerProcessesLeadCreated(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer, err := NewConsumer(pipeline, newFakeManager(), testLogger())
	require.NoError(t, err)

	leadID := uuid.New()
	err = consumer.Process(context.Background(), enums.EventLeadCreated, envelopeFor(t, leadID))
	require.NoError(t, err)
	require.Len(t, pipeline.processed, 1)
	assert.Equal(t, leadID, pipeline.processed[0])
}

func TestConsumerSkipsRedelivery(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer, err := NewConsumer(pipeline, newFakeManager(), testLogger())
	require.NoError(t, err)

	envelope := envelopeFor(t, uuid.New())
	require.NoError(t, consumer.Process(context.Background(), enums.EventLeadCreated, envelope))
	require.NoError(t, consumer.Process(context.Background(), enums.EventLeadCreated, envelope))
	assert.Len(t, pipeline.processed, 1)
}

func TestConsumerIgnoresUnrelatedEvents(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer, err := NewConsumer(pipeline, newFakeManager(), testLogger())
	require.NoError(t, err)

	err = consumer.Process(context.Background(), enums.EventPayoutQueued, envelopeFor(t, uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, pipeline.processed)
}

func TestConsumerReleasesKeyOnPipelineFailure(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("db down")}
	manager := newFakeManager()
	consumer, err := NewConsumer(pipeline, manager, testLogger())
	require.NoError(t, err)

	envelope := envelopeFor(t, uuid.New())
	err = consumer.Process(context.Background(), enums.EventLeadCreated, envelope)
	require.Error(t, err)
	assert.Len(t, manager.deleted, 1, "key released so the redelivery can retry")

	// retry succeeds once the pipeline recovers
	pipeline.err = nil
	require.NoError(t, consumer.Process(context.Background(), enums.EventLeadCreated, envelope))
	assert.Len(t, pipeline.processed, 1)
}

func TestConsumerRejectsMalformedEnvelope(t *testing.T) {
	pipeline := &fakePipeline{}
	consumer, err := NewConsumer(pipeline, newFakeManager(), testLogger())
	require.NoError(t, err)

	envelope := envelopeFor(t, uuid.New())
	envelope.Data = []byte("{")
	err = consumer.Process(context.Background(), enums.EventLeadCreated, envelope)
	assert.Error(t, err)

	envelope = envelopeFor(t, uuid.New())
	envelope.EventID = "not-a-uuid"
	err = consumer.Process(context.Background(), enums.EventLeadCreated, envelope)
	assert.Error(t, err)
}
