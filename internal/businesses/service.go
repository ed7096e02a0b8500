package businesses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

type businessesRepository interface {
	UpsertByEmail(ctx context.Context, business *models.Business) (*models.Business, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListActiveBuyers(ctx context.Context) ([]models.Business, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	WithTx(tx *gorm.DB) *Repository
}

// Service exposes business registration for both sides of the exchange.
type Service interface {
	RegisterBuyer(ctx context.Context, input RegisterBuyerInput) (*models.Business, error)
	EnsureSeller(ctx context.Context, tx *gorm.DB, input SellerInput) (*models.Business, error)
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListActiveBuyers(ctx context.Context) ([]models.Business, error)
	VerifyBuyer(ctx context.Context, id uuid.UUID, verified bool) (*models.Business, error)
}

type service struct {
	repo        businessesRepository
	logg        *logger.Logger
	autoVerify  bool
	maxZipCount int
}

// RegisterBuyerInput carries a normalized buyer subscription.
type RegisterBuyerInput struct {
	Name         string
	Email        string
	Phone        string
	PrimaryZip   string
	ExtraZips    []string
	RadiusMiles  int
	Categories   []enums.LeadCategory
	MaxPrice     *decimal.Decimal
	DeliveryPref enums.DeliveryPref
}

// SellerInput carries the seller identity from a lead submission.
type SellerInput struct {
	Name  string
	Email string
	Phone string
}

// NewService builds the business service. autoVerify controls whether new
// buyers enter matching immediately or wait for operator review.
func NewService(repo businessesRepository, logg *logger.Logger, autoVerify bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("businesses repository required")
	}
	return &service{
		repo:        repo,
		logg:        logg,
		autoVerify:  autoVerify,
		maxZipCount: 50,
	}, nil
}

func (s *service) RegisterBuyer(ctx context.Context, input RegisterBuyerInput) (*models.Business, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	if input.PrimaryZip == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "primary zip is required")
	}
	if len(input.Categories) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one category is required")
	}
	for _, category := range input.Categories {
		if !category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown lead category").
				WithDetails(map[string]any{"category": string(category)})
		}
	}
	if !input.DeliveryPref.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery preference")
	}
	if input.RadiusMiles < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius must not be negative")
	}
	if len(input.ExtraZips) > s.maxZipCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many extra zips").
			WithDetails(map[string]any{"max": s.maxZipCount})
	}
	if input.MaxPrice != nil && input.MaxPrice.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max price must be positive")
	}

	business := &models.Business{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		IsBuyer:      true,
		PrimaryZip:   input.PrimaryZip,
		ExtraZips:    dedupeZips(input.ExtraZips),
		RadiusMiles:  input.RadiusMiles,
		Categories:   input.Categories,
		MaxPrice:     input.MaxPrice,
		DeliveryPref: input.DeliveryPref,
		Verified:     s.autoVerify,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		business.Phone = &phone
	}

	saved, err := s.repo.UpsertByEmail(ctx, business)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save buyer")
	}

	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, saved.ID.String())
		s.logg.Info(logCtx, "buyer.registered")
	}
	return saved, nil
}

func (s *service) EnsureSeller(ctx context.Context, tx *gorm.DB, input SellerInput) (*models.Business, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller email is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller name is required")
	}

	business := &models.Business{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		IsSeller: true,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		business.Phone = &phone
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	saved, err := repo.UpsertByEmail(ctx, business)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save seller")
	}
	return saved, nil
}

func (s *service) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func (s *service) ListActiveBuyers(ctx context.Context) ([]models.Business, error) {
	buyers, err := s.repo.ListActiveBuyers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyers")
	}
	return buyers, nil
}

// VerifyBuyer flips the verification gate that holds a buyer out of matching.
func (s *service) VerifyBuyer(ctx context.Context, id uuid.UUID, verified bool) (*models.Business, error) {
	business, err := s.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if !business.IsBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "business is not a buyer")
	}
	if err := s.repo.SetVerified(ctx, id, verified); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set verified")
	}
	business.Verified = verified
	if s.logg != nil {
		logCtx := s.logg.WithBusinessID(ctx, id.String())
		s.logg.Info(logCtx, "buyer.verification_updated")
	}
	return business, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func dedupeZips(zips []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(zips))
	for _, zip := range zips {
		zip = strings.TrimSpace(zip)
		if zip == "" {
			continue
		}
		if _, ok := seen[zip]; ok {
			continue
		}
		seen[zip] = struct{}{}
		out = append(out, zip)
	}
	return out
}
