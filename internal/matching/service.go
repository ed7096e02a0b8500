package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/dispatch"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

type leadsFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
}

type buyersLister interface {
	ListActiveBuyers(ctx context.Context) ([]models.Business, error)
}

type interestsClaimer interface {
	CreateIfAbsent(ctx context.Context, interest *models.Interest) (bool, error)
}

type alerter interface {
	Dispatch(ctx context.Context, alert dispatch.Alert, buyer *models.Business, channels []enums.InterestChannel) error
}

// Service runs the matching pipeline for one lead: find eligible buyers,
// claim each (lead, buyer) pair, and alert the buyers that were newly
// claimed. Claiming before sending makes the pipeline safe to re-run: a
// redelivered event or an admin rematch only reaches buyers not yet alerted.
type Service interface {
	ProcessLead(ctx context.Context, leadID uuid.UUID) error
}

type service struct {
	leads      leadsFinder
	buyers     buyersLister
	interests  interestsClaimer
	matcher    *Matcher
	dispatcher alerter
	logg       *logger.Logger
}

// NewService builds the matching pipeline service.
func NewService(leads leadsFinder, buyers buyersLister, interests interestsClaimer, matcher *Matcher, dispatcher alerter, logg *logger.Logger) (Service, error) {
	if leads == nil {
		return nil, fmt.Errorf("leads finder required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyers lister required")
	}
	if interests == nil {
		return nil, fmt.Errorf("interests claimer required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("matcher required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &service{
		leads:      leads,
		buyers:     buyers,
		interests:  interests,
		matcher:    matcher,
		dispatcher: dispatcher,
		logg:       logg,
	}, nil
}

func (s *service) ProcessLead(ctx context.Context, leadID uuid.UUID) error {
	if leadID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lead id required")
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithLeadID(ctx, leadID.String())
	}

	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// the event outlived the lead; nothing to do
			if s.logg != nil {
				s.logg.Warn(logCtx, "match.lead_missing")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lead")
	}
	if lead.Status != enums.LeadStatusNew {
		if s.logg != nil {
			s.logg.Info(logCtx, "match.lead_not_open")
		}
		return nil
	}

	candidates, err := s.buyers.ListActiveBuyers(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyers")
	}

	result := s.matcher.Match(ctx, lead, candidates)
	if s.logg != nil {
		for _, warning := range result.Warnings {
			s.logg.Warn(s.logg.WithField(logCtx, "detail", warning), "match.rule_skipped")
		}
	}

	alert := dispatch.NewAlert(lead)
	for i := range result.Buyers {
		buyer := &result.Buyers[i]
		channels := buyer.DeliveryPref.Channels()

		claimed, err := s.interests.CreateIfAbsent(ctx, &models.Interest{
			LeadID:   lead.ID,
			BuyerID:  buyer.ID,
			Channels: channels,
			Status:   enums.InterestStatusAlerted,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim interest")
		}
		if !claimed {
			// already alerted on a previous pass
			continue
		}

		// Delivery errors are logged inside the dispatcher and do not fail
		// the pipeline: the claim stands and the buyer shows up in the
		// interests table for manual follow-up.
		if err := s.dispatcher.Dispatch(ctx, alert, buyer, channels); err != nil && s.logg != nil {
			buyerCtx := s.logg.WithBusinessID(logCtx, buyer.ID.String())
			s.logg.Error(buyerCtx, "match.alert_incomplete", err)
		}
	}

	if s.logg != nil {
		doneCtx := s.logg.WithField(logCtx, "matched", len(result.Buyers))
		s.logg.Info(doneCtx, "match.completed")
	}
	return nil
}
