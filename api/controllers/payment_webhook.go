package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/internal/settlement"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

const (
	paymentSignatureHeader = "X-Payment-Signature"
	maxWebhookBytes        = 1 << 20
)

type paymentSettler interface {
	ConfirmPayment(ctx context.Context, confirmation settlement.PaymentConfirmation) (*settlement.SettleResult, error)
}

type paymentWebhookBody struct {
	EventID string `json:"event_id"`
	LeadID  string `json:"lead_id"`
	BuyerID string `json:"buyer_id"`
	Amount  string `json:"amount"`
	PaidAt  string `json:"paid_at"`
}

// PaymentWebhook verifies the provider signature over the raw body and hands
// the confirmation to settlement. Redelivered events return the same 200.
func PaymentWebhook(svc paymentSettler, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || secret == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "payment webhook not configured"))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if !verifyPaymentSignature(raw, r.Header.Get(paymentSignatureHeader), secret) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var body paymentWebhookBody
		if err := json.Unmarshal(raw, &body); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		confirmation, err := buildPaymentConfirmation(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmPayment(r.Context(), confirmation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Lead == nil {
			// Redelivery of an already settled event.
			responses.WriteSuccess(w, map[string]string{"status": "already_processed"})
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"lead_id":       result.Lead.ID.String(),
			"status":        string(result.Lead.Status),
			"payout_amount": result.PayoutAmount.StringFixed(2),
		})
	}
}

func buildPaymentConfirmation(body paymentWebhookBody) (settlement.PaymentConfirmation, error) {
	details := map[string]string{}
	eventID, err := uuid.Parse(body.EventID)
	if err != nil {
		details["event_id"] = "must be a UUID"
	}
	leadID, err := uuid.Parse(body.LeadID)
	if err != nil {
		details["lead_id"] = "must be a UUID"
	}
	buyerID, err := uuid.Parse(body.BuyerID)
	if err != nil {
		details["buyer_id"] = "must be a UUID"
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		details["amount"] = "must be a decimal amount"
	}
	var paidAt time.Time
	if body.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, body.PaidAt)
		if err != nil {
			details["paid_at"] = "must be an RFC3339 timestamp"
		}
	}
	if len(details) > 0 {
		return settlement.PaymentConfirmation{},
			pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return settlement.PaymentConfirmation{
		EventID:    eventID,
		LeadID:     leadID,
		BuyerID:    buyerID,
		AmountPaid: amount,
		PaidAt:     paidAt,
	}, nil
}

func verifyPaymentSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
