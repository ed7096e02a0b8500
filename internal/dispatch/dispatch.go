package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/metrics"
)

// Alert is the buyer-facing view of a lead. It deliberately carries no
// customer contact; that is revealed only after purchase.
type Alert struct {
	LeadID      string
	Category    string
	Zip         string
	City        string
	AskingPrice string
	Description string
}

// NewAlert projects a lead into its alert view.
func NewAlert(lead *models.Lead) Alert {
	alert := Alert{
		LeadID:      lead.ID.String(),
		Category:    lead.Category.String(),
		Zip:         lead.Zip,
		City:        lead.City,
		AskingPrice: lead.AskingPrice.StringFixed(2),
	}
	if lead.Description != nil {
		alert.Description = *lead.Description
	}
	return alert
}

// Notifier delivers one alert over one channel.
type Notifier interface {
	Channel() enums.InterestChannel
	Send(ctx context.Context, alert Alert, buyer *models.Business) error
}

// Dispatcher fans an alert out to a buyer's preferred channels. Each channel
// is retried independently; one failing channel never blocks the others.
type Dispatcher struct {
	notifiers map[enums.InterestChannel]Notifier
	pipeline  *metrics.PipelineMetrics
	logg      *logger.Logger

	attempts      uint64
	backoffBase   time.Duration
	perSendBudget time.Duration
}

// NewDispatcher builds a dispatcher over the provided notifiers.
func NewDispatcher(notifiers []Notifier, pipeline *metrics.PipelineMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if len(notifiers) == 0 {
		return nil, fmt.Errorf("at least one notifier required")
	}
	byChannel := make(map[enums.InterestChannel]Notifier, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			return nil, fmt.Errorf("nil notifier")
		}
		if _, dup := byChannel[notifier.Channel()]; dup {
			return nil, fmt.Errorf("duplicate notifier for channel %s", notifier.Channel())
		}
		byChannel[notifier.Channel()] = notifier
	}
	return &Dispatcher{
		notifiers:     byChannel,
		pipeline:      pipeline,
		logg:          logg,
		attempts:      3,
		backoffBase:   500 * time.Millisecond,
		perSendBudget: 30 * time.Second,
	}, nil
}

// Dispatch sends the alert to the buyer over every requested channel and
// returns the combined delivery errors. Partial delivery is not rolled back;
// the interest row already claimed the pair.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert, buyer *models.Business, channels []enums.InterestChannel) error {
	var errs error
	for _, channel := range channels {
		notifier, ok := d.notifiers[channel]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("no notifier for channel %s", channel))
			d.pipeline.IncAlertFailure(channel.String())
			continue
		}

		if err := d.sendWithRetry(ctx, notifier, alert, buyer); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("channel %s: %w", channel, err))
			d.pipeline.IncAlertFailure(channel.String())
			if d.logg != nil {
				logCtx := d.logg.WithFields(ctx, map[string]any{
					"lead_id":  alert.LeadID,
					"buyer_id": buyer.ID.String(),
					"channel":  channel.String(),
				})
				d.logg.Error(logCtx, "alert.delivery_failed", err)
			}
			continue
		}

		d.pipeline.IncAlertSent(channel.String())
		if d.logg != nil {
			logCtx := d.logg.WithFields(ctx, map[string]any{
				"lead_id":  alert.LeadID,
				"buyer_id": buyer.ID.String(),
				"channel":  channel.String(),
			})
			d.logg.Info(logCtx, "alert.sent")
		}
	}
	return errs
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, notifier Notifier, alert Alert, buyer *models.Business) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.perSendBudget)
	defer cancel()

	backoff := retry.WithMaxRetries(d.attempts, retry.NewExponential(d.backoffBase))
	return retry.Do(sendCtx, backoff, func(ctx context.Context) error {
		if err := notifier.Send(ctx, alert, buyer); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
