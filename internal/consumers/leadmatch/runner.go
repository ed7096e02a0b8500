package leadmatch

import (
	"context"
	"encoding/json"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

type processResult struct {
	nack bool
}

// Runner pulls lead events off the subscription and hands them to the
// consumer. Malformed messages are acked: they can never succeed and would
// otherwise redeliver forever.
type Runner struct {
	subscription *gcppubsub.Subscriber
	consumer     *Consumer
	logg         *logger.Logger
}

func NewRunner(subscription *gcppubsub.Subscriber, consumer *Consumer, logg *logger.Logger) (*Runner, error) {
	if subscription == nil {
		return nil, errors.New("subscription is required")
	}
	if consumer == nil {
		return nil, errors.New("consumer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Runner{
		subscription: subscription,
		consumer:     consumer,
		logg:         logg,
	}, nil
}

// Run processes lead events until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	return r.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		result := r.handle(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (r *Runner) handle(ctx context.Context, msg *gcppubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"event_type": rawType,
		"event_id":   msg.Attributes["event_id"],
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		r.logg.Warn(logCtx, "dropping message with unknown event type")
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		r.logg.Error(logCtx, "dropping message with malformed envelope", err)
		return processResult{}
	}

	if err := r.consumer.Process(ctx, eventType, envelope); err != nil {
		r.logg.Error(logCtx, "lead event processing failed", err)
		return processResult{nack: true}
	}
	return processResult{}
}
