package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/db"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/metrics"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

const consumerName = "settlement"

// adminFeeRate is the marketplace cut taken off the confirmed sale price.
var adminFeeRate = decimal.NewFromFloat(0.01)

type leadsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	MarkSold(ctx context.Context, tx *gorm.DB, leadID, buyerID uuid.UUID, soldPrice, adminFee decimal.Decimal, at time.Time) (bool, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, leadID uuid.UUID) (bool, error)
	Reopen(ctx context.Context, tx *gorm.DB, leadID uuid.UUID) (bool, error)
}

type buyersFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

type interestsMarker interface {
	MarkPurchased(ctx context.Context, tx *gorm.DB, leadID, buyerID uuid.UUID) error
}

type payoutsRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payout *models.Payout) (*models.Payout, error)
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (*models.Payout, error)
	MarkReversed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type confirmationSender interface {
	SendSaleConfirmation(ctx context.Context, lead *models.Lead, buyer *models.Business) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentConfirmation is the verified payload of a payment-provider webhook.
// EventID is the provider's event id, used to drop redeliveries.
type PaymentConfirmation struct {
	EventID    uuid.UUID
	LeadID     uuid.UUID
	BuyerID    uuid.UUID
	AmountPaid decimal.Decimal
	PaidAt     time.Time
}

// SettleResult reports the outcome of a confirmed payment. Contact is
// populated only when this confirmation won the lead.
type SettleResult struct {
	Lead         *models.Lead
	PayoutAmount decimal.Decimal
	AdminFee     decimal.Decimal
	AlreadySold  bool
}

// ServiceParams collects settlement dependencies.
type ServiceParams struct {
	LeadsRepo         leadsRepository
	BuyersRepo        buyersFinder
	InterestsRepo     interestsMarker
	PayoutsRepo       payoutsRepository
	Outbox            outboxEmitter
	Idempotency       idempotencyChecker
	Confirmer         confirmationSender
	TransactionRunner txRunner
	Logger            *logger.Logger
	Pipeline          *metrics.PipelineMetrics
}

// Service settles confirmed payments and handles refund and replacement.
type Service struct {
	leadsRepo     leadsRepository
	buyersRepo    buyersFinder
	interestsRepo interestsMarker
	payoutsRepo   payoutsRepository
	outbox        outboxEmitter
	idempotency   idempotencyChecker
	confirmer     confirmationSender
	txRunner      txRunner
	logg          *logger.Logger
	pipeline      *metrics.PipelineMetrics
}

// NewService validates dependencies and builds the settlement service.
// Confirmer and Pipeline are optional.
func NewService(params ServiceParams) (*Service, error) {
	if params.LeadsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "leads repo required")
	}
	if params.BuyersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "buyers repo required")
	}
	if params.InterestsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "interests repo required")
	}
	if params.PayoutsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payouts repo required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency manager required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		leadsRepo:     params.LeadsRepo,
		buyersRepo:    params.BuyersRepo,
		interestsRepo: params.InterestsRepo,
		payoutsRepo:   params.PayoutsRepo,
		outbox:        params.Outbox,
		idempotency:   params.Idempotency,
		confirmer:     params.Confirmer,
		txRunner:      params.TransactionRunner,
		logg:          params.Logger,
		pipeline:      params.Pipeline,
	}, nil
}

// ConfirmPayment settles a verified payment confirmation. The sold transition
// is a conditional UPDATE on status, so under concurrent confirmations for
// the same lead exactly one buyer wins and the rest get a state conflict.
func (s *Service) ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) (*SettleResult, error) {
	if confirmation.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event id required")
	}
	if confirmation.LeadID == uuid.Nil || confirmation.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead id and buyer id required")
	}
	if !confirmation.AmountPaid.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount paid must be positive")
	}

	alreadyProcessed, err := s.idempotency.CheckAndMarkProcessed(ctx, consumerName, confirmation.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment idempotency")
	}
	if alreadyProcessed {
		ctx = s.logg.WithFields(ctx, map[string]interface{}{
			"event_id": confirmation.EventID.String(),
			"lead_id":  confirmation.LeadID.String(),
		})
		s.logg.Info(ctx, "payment event already processed")
		return &SettleResult{AlreadySold: true}, nil
	}

	result, err := s.settle(ctx, confirmation)
	if err != nil {
		// Release the event key so provider redeliveries can retry a
		// transient failure. Terminal client errors keep the key.
		if pkgerrors.IsRetryable(err) {
			if delErr := s.idempotency.Delete(ctx, consumerName, confirmation.EventID); delErr != nil {
				s.logg.Error(ctx, "release payment event key", delErr)
			}
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) settle(ctx context.Context, confirmation PaymentConfirmation) (*SettleResult, error) {
	lead, err := s.leadsRepo.FindByID(ctx, confirmation.LeadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	buyer, err := s.buyersRepo.FindByID(ctx, confirmation.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if !buyer.IsBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "business is not a buyer").
			WithDetails(map[string]string{"buyer_id": buyer.ID.String()})
	}

	soldPrice := confirmation.AmountPaid
	adminFee := soldPrice.Mul(adminFeeRate).Round(2)
	payoutAmount := soldPrice.Sub(adminFee)
	paidAt := confirmation.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var payout *models.Payout
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.leadsRepo.MarkSold(ctx, tx, lead.ID, buyer.ID, soldPrice, adminFee, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark lead sold")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lead is no longer available").
				WithDetails(map[string]string{"status": string(lead.Status)})
		}

		if err := s.interestsRepo.MarkPurchased(ctx, tx, lead.ID, buyer.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark interest purchased")
		}

		payout = &models.Payout{
			SellerID: lead.SellerID,
			LeadID:   lead.ID,
			Amount:   payoutAmount,
			Status:   enums.PayoutStatusQueued,
		}
		if _, err := s.payoutsRepo.Create(ctx, tx, payout); err != nil {
			if db.IsUniqueViolation(err, "ux_payouts_lead") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already queued for lead").
					WithDetails(map[string]string{"lead_id": lead.ID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue payout")
		}

		saleEvent := SaleEvent{
			LeadID:    lead.ID,
			BuyerID:   buyer.ID,
			SoldPrice: soldPrice,
			AdminFee:  adminFee,
			SoldAt:    paidAt,
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadSold,
			AggregateType: enums.AggregateLead,
			AggregateID:   lead.ID,
			Data:          saleEvent,
		}); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutQueued,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Data: PayoutEvent{
				PayoutID: payout.ID,
				LeadID:   lead.ID,
				SellerID: lead.SellerID,
				Amount:   payoutAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	lead.Status = enums.LeadStatusSold
	lead.BuyerID = &buyer.ID
	lead.SoldPrice = &soldPrice
	lead.AdminFee = &adminFee
	lead.SoldAt = &paidAt

	s.pipeline.IncSalesSettled()
	s.pipeline.IncPayoutsQueued()

	ctx = s.logg.WithLeadID(ctx, lead.ID.String())
	ctx = s.logg.WithFields(ctx, map[string]interface{}{
		"buyer_id":   buyer.ID.String(),
		"sold_price": soldPrice.StringFixed(2),
		"admin_fee":  adminFee.StringFixed(2),
		"payout_id":  payout.ID.String(),
	})
	s.logg.Info(ctx, "lead settled")

	if s.confirmer != nil {
		if err := s.confirmer.SendSaleConfirmation(ctx, lead, buyer); err != nil {
			// The sale itself is committed. Contact delivery failure is
			// recoverable by support, not a settlement failure.
			s.logg.Error(ctx, "send sale confirmation", err)
		}
	}

	return &SettleResult{
		Lead:         lead,
		PayoutAmount: payoutAmount,
		AdminFee:     adminFee,
	}, nil
}

// Refund reverses a settled sale. Only sold leads with a still-queued payout
// are refundable; a paid-out lead needs manual clawback first. When the
// seller opted into replacement the lead reopens and re-enters matching.
func (s *Service) Refund(ctx context.Context, leadID uuid.UUID) (*models.Lead, error) {
	lead, err := s.leadsRepo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	if lead.Status != enums.LeadStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only sold leads can be refunded").
			WithDetails(map[string]string{"status": string(lead.Status)})
	}

	payout, err := s.payoutsRepo.FindByLeadID(ctx, leadID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}

	reopened := false
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if payout != nil {
			reversed, err := s.payoutsRepo.MarkReversed(ctx, tx, payout.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse payout")
			}
			if !reversed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already paid, manual clawback required").
					WithDetails(map[string]string{"payout_id": payout.ID.String()})
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutReversed,
				AggregateType: enums.AggregatePayout,
				AggregateID:   payout.ID,
				Data: PayoutEvent{
					PayoutID: payout.ID,
					LeadID:   lead.ID,
					SellerID: lead.SellerID,
					Amount:   payout.Amount,
				},
			}); err != nil {
				return err
			}
		}

		refunded, err := s.leadsRepo.MarkRefunded(ctx, tx, leadID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark lead refunded")
		}
		if !refunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lead state changed during refund")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadRefunded,
			AggregateType: enums.AggregateLead,
			AggregateID:   lead.ID,
			Data:          leads.LeadEvent{LeadID: lead.ID, Category: string(lead.Category), Zip: lead.Zip},
		}); err != nil {
			return err
		}

		if lead.OptInReplace {
			if _, err := s.leadsRepo.Reopen(ctx, tx, leadID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen lead")
			}
			reopened = true
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLeadReopened,
				AggregateType: enums.AggregateLead,
				AggregateID:   lead.ID,
				Data:          leads.LeadEvent{LeadID: lead.ID, Category: string(lead.Category), Zip: lead.Zip},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reopened {
		lead.Status = enums.LeadStatusNew
		lead.BuyerID = nil
		lead.SoldPrice = nil
		lead.AdminFee = nil
		lead.SoldAt = nil
	} else {
		lead.Status = enums.LeadStatusRefunded
	}

	ctx = s.logg.WithLeadID(ctx, lead.ID.String())
	ctx = s.logg.WithField(ctx, "reopened", reopened)
	s.logg.Info(ctx, "lead refunded")
	return lead, nil
}
