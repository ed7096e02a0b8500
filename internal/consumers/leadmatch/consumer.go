package leadmatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

const consumerName = "leadmatch"

type leadProcessor interface {
	ProcessLead(ctx context.Context, leadID uuid.UUID) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer feeds lead lifecycle events into the matching pipeline while
// honoring Redis idempotency. Pub/Sub is at-least-once; the idempotency key
// short-circuits redeliveries and the interests table backstops the rest.
type Consumer struct {
	pipeline    leadProcessor
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a lead matching consumer.
func NewConsumer(pipeline leadProcessor, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("matching pipeline required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		pipeline: pipeline,
		manager:  manager,
		logg:     logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventLeadCreated:  {},
			enums.EventLeadReopened: {},
		},
	}, nil
}

// Process runs the matching pipeline for the event's lead.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Debug(logCtx, "event not handled by matching consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var event leads.LeadEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode lead event", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return fmt.Errorf("decode lead event: %w", err)
	}
	if event.LeadID == uuid.Nil {
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return fmt.Errorf("lead id missing in event %s", envelope.EventID)
	}

	if err := c.pipeline.ProcessLead(ctx, event.LeadID); err != nil {
		c.logg.Error(logCtx, "matching pipeline failed", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "lead event matched")
	return nil
}
