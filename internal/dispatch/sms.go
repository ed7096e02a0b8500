package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

// SMSNotifier delivers lead alerts through an HTTP SMS gateway.
type SMSNotifier struct {
	httpClient *http.Client
	gatewayURL string
	apiKey     string
	fromNumber string
}

// NewSMSNotifier builds an SMS notifier from gateway settings.
func NewSMSNotifier(cfg config.SMSConfig) (*SMSNotifier, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("sms gateway url required")
	}
	return &SMSNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		fromNumber: cfg.FromNumber,
	}, nil
}

func (n *SMSNotifier) Channel() enums.InterestChannel {
	return enums.ChannelSMS
}

type smsGatewayRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (n *SMSNotifier) Send(ctx context.Context, alert Alert, buyer *models.Business) error {
	if buyer.Phone == nil || *buyer.Phone == "" {
		return fmt.Errorf("buyer %s has no phone on file", buyer.ID)
	}

	payload, err := json.Marshal(smsGatewayRequest{
		From: n.fromNumber,
		To:   *buyer.Phone,
		Body: smsBody(alert),
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}

func smsBody(alert Alert) string {
	location := alert.Zip
	if alert.City != "" {
		location = alert.City
	}
	return fmt.Sprintf("TreeLead: new %s lead in %s, asking $%s. Ref %s. Confirm payment to claim.",
		alert.Category, location, alert.AskingPrice, alert.LeadID)
}

// ConsoleSMSNotifier logs alerts instead of sending them. It stands in for
// the gateway in development and tests.
type ConsoleSMSNotifier struct {
	logg *logger.Logger
}

// NewConsoleSMSNotifier builds the logging stand-in.
func NewConsoleSMSNotifier(logg *logger.Logger) *ConsoleSMSNotifier {
	return &ConsoleSMSNotifier{logg: logg}
}

func (n *ConsoleSMSNotifier) Channel() enums.InterestChannel {
	return enums.ChannelSMS
}

func (n *ConsoleSMSNotifier) Send(ctx context.Context, alert Alert, buyer *models.Business) error {
	if n.logg != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{
			"buyer_id": buyer.ID.String(),
			"body":     smsBody(alert),
		})
		n.logg.Info(logCtx, "sms.console_delivery")
	}
	return nil
}
