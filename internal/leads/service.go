package leads

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/metrics"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
	"github.com/zachbush96/treelead-backend/pkg/types"
)

var zipRe = regexp.MustCompile(`^\d{5}$`)

type leadsRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lead *models.Lead) (*models.Lead, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
}

type sellerRegistrar interface {
	EnsureSeller(ctx context.Context, tx *gorm.DB, input businesses.SellerInput) (*models.Business, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes lead intake and admin lifecycle operations.
type Service interface {
	CreateLead(ctx context.Context, input CreateLeadInput) (*models.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	Rematch(ctx context.Context, leadID uuid.UUID) error
}

type service struct {
	db       txRunner
	repo     leadsRepository
	sellers  sellerRegistrar
	outbox   outboxEmitter
	pipeline *metrics.PipelineMetrics
	logg     *logger.Logger
}

// CreateLeadInput carries one lead submission from the public form.
type CreateLeadInput struct {
	SellerName   string
	SellerEmail  string
	SellerPhone  string
	Category     enums.LeadCategory
	Zip          string
	City         string
	AskingPrice  decimal.Decimal
	Description  string
	Contact      types.Contact
	Exclusive    bool
	OptInReplace bool
}

// NewService builds the lead service.
func NewService(db txRunner, repo leadsRepository, sellers sellerRegistrar, emitter outboxEmitter, pipeline *metrics.PipelineMetrics, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller registrar required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		db:       db,
		repo:     repo,
		sellers:  sellers,
		outbox:   emitter,
		pipeline: pipeline,
		logg:     logg,
	}, nil
}

func (s *service) CreateLead(ctx context.Context, input CreateLeadInput) (*models.Lead, error) {
	if err := validateCreateLead(input); err != nil {
		return nil, err
	}

	var lead *models.Lead
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		seller, err := s.sellers.EnsureSeller(ctx, tx, businesses.SellerInput{
			Name:  input.SellerName,
			Email: input.SellerEmail,
			Phone: input.SellerPhone,
		})
		if err != nil {
			return err
		}

		candidate := &models.Lead{
			SellerID:     seller.ID,
			Category:     input.Category,
			Zip:          input.Zip,
			City:         strings.TrimSpace(input.City),
			AskingPrice:  input.AskingPrice,
			Contact:      input.Contact,
			Status:       enums.LeadStatusNew,
			Exclusive:    input.Exclusive,
			OptInReplace: input.OptInReplace,
		}
		if description := strings.TrimSpace(input.Description); description != "" {
			candidate.Description = &description
		}

		lead, err = s.repo.Create(ctx, tx, candidate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save lead")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadCreated,
			AggregateType: enums.AggregateLead,
			AggregateID:   lead.ID,
			Data: LeadEvent{
				LeadID:     lead.ID,
				Category:   lead.Category.String(),
				Zip:        lead.Zip,
				OccurredAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.pipeline.IncLeadsCreated()
	if s.logg != nil {
		logCtx := s.logg.WithLeadID(ctx, lead.ID.String())
		s.logg.Info(logCtx, "lead.created")
	}
	return lead, nil
}

func (s *service) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead id required")
	}
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	return lead, nil
}

// Rematch queues another matching pass for an unsold lead. Buyers already
// alerted stay claimed in interests, so only newcomers receive alerts.
func (s *service) Rematch(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Status != enums.LeadStatusNew {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only unsold leads can be rematched").
			WithDetails(map[string]any{"status": lead.Status.String()})
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadReopened,
			AggregateType: enums.AggregateLead,
			AggregateID:   lead.ID,
			Data: LeadEvent{
				LeadID:     lead.ID,
				Category:   lead.Category.String(),
				Zip:        lead.Zip,
				OccurredAt: time.Now().UTC(),
			},
		})
	})
}

func validateCreateLead(input CreateLeadInput) error {
	if strings.TrimSpace(input.SellerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller name is required")
	}
	if strings.TrimSpace(input.SellerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller email is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown lead category").
			WithDetails(map[string]any{"category": string(input.Category)})
	}
	if !zipRe.MatchString(input.Zip) {
		return pkgerrors.New(pkgerrors.CodeValidation, "zip must be a five digit ZIP code")
	}
	if input.AskingPrice.Cmp(decimal.Zero) <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "asking price must be positive")
	}
	if input.Contact.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer contact is required")
	}
	return nil
}
