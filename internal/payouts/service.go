package payouts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/pagination"
)

type payoutsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, opts listQuery) ([]models.Payout, error)
	MarkPaid(ctx context.Context, id uuid.UUID, txRef string) (bool, error)
}

// Service exposes the operator-facing payout queue.
type Service interface {
	ListPayouts(ctx context.Context, params ListParams) (*ListResult, error)
	MarkPaid(ctx context.Context, id uuid.UUID, txRef string) (*models.Payout, error)
}

// ListParams filters and pages the payout queue.
type ListParams struct {
	Status     string
	Pagination pagination.Params
}

// ListResult is one page of payouts plus the cursor for the next page.
type ListResult struct {
	Payouts    []models.Payout `json:"payouts"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

type service struct {
	repo payoutsRepository
	logg *logger.Logger
}

// NewService builds the payout service.
func NewService(repo payoutsRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListPayouts(ctx context.Context, params ListParams) (*ListResult, error) {
	var status enums.PayoutStatus
	if raw := strings.TrimSpace(params.Status); raw != "" {
		parsed, err := enums.ParsePayoutStatus(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payout status").
				WithDetails(map[string]any{"status": raw})
		}
		status = parsed
	}

	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := params.Pagination.Limit
	rows, err := s.repo.List(ctx, listQuery{
		status: status,
		cursor: cursor,
		limit:  pagination.LimitWithBuffer(limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	page, hasNext := pagination.TrimPage(rows, limit)
	result := &ListResult{Payouts: page}
	if hasNext && len(page) > 0 {
		last := page[len(page)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, txRef string) (*models.Payout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if strings.TrimSpace(txRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}

	transitioned, err := s.repo.MarkPaid(ctx, id, strings.TrimSpace(txRef))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
	}
	if !transitioned {
		payout, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			if findErr == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load payout")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payout is not queued").
			WithDetails(map[string]any{"status": payout.Status.String()})
	}

	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"payout_id": payout.ID.String(),
			"paid_at":   time.Now().UTC(),
		})
		s.logg.Info(logCtx, "payout.paid")
	}
	return payout, nil
}
