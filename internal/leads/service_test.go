package leads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
	"github.com/zachbush96/treelead-backend/pkg/types"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLeadsRepo struct {
	byID map[uuid.UUID]*models.Lead
}

func newFakeLeadsRepo() *fakeLeadsRepo {
	return &fakeLeadsRepo{byID: map[uuid.UUID]*models.Lead{}}
}

func (f *fakeLeadsRepo) Create(_ context.Context, _ *gorm.DB, lead *models.Lead) (*models.Lead, error) {
	lead.ID = uuid.New()
	f.byID[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	if lead, ok := f.byID[id]; ok {
		return lead, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSellerRegistrar struct {
	seller models.Business
}

func (f *fakeSellerRegistrar) EnsureSeller(_ context.Context, _ *gorm.DB, input businesses.SellerInput) (*models.Business, error) {
	f.seller = models.Business{ID: uuid.New(), Name: input.Name, Email: input.Email, IsSeller: true}
	return &f.seller, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return f.Emit(ctx, tx, event)
}

func validLeadInput() CreateLeadInput {
	return CreateLeadInput{
		SellerName:  "Canopy Pros",
		SellerEmail: "dispatch@canopypros.com",
		Category:    enums.CategoryRemoval,
		Zip:         "15213",
		City:        "Pittsburgh",
		AskingPrice: decimal.NewFromInt(35),
		Description: "60ft oak overhanging garage",
		Contact: types.Contact{
			Name:  "Pat Homeowner",
			Phone: "4125550100",
		},
		Exclusive: true,
	}
}

func newTestService(t *testing.T) (Service, *fakeLeadsRepo, *fakeEmitter) {
	t.Helper()
	repo := newFakeLeadsRepo()
	emitter := &fakeEmitter{}
	svc, err := NewService(fakeTxRunner{}, repo, &fakeSellerRegistrar{}, emitter, nil, nil)
	require.NoError(t, err)
	return svc, repo, emitter
}

func TestCreateLeadPersistsAndEmits(t *testing.T) {
	svc, repo, emitter := newTestService(t)

	lead, err := svc.CreateLead(context.Background(), validLeadInput())
	require.NoError(t, err)

	assert.Equal(t, enums.LeadStatusNew, lead.Status)
	assert.NotEqual(t, uuid.Nil, lead.SellerID)
	require.NotNil(t, lead.Description)
	assert.Contains(t, *lead.Description, "oak")
	assert.Len(t, repo.byID, 1)

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, enums.EventLeadCreated, event.EventType)
	assert.Equal(t, enums.AggregateLead, event.AggregateType)
	assert.Equal(t, lead.ID, event.AggregateID)
}

func TestCreateLeadValidation(t *testing.T) {
	svc, _, emitter := newTestService(t)

	cases := map[string]func(*CreateLeadInput){
		"missing seller name":  func(i *CreateLeadInput) { i.SellerName = "" },
		"missing seller email": func(i *CreateLeadInput) { i.SellerEmail = "" },
		"bad category":         func(i *CreateLeadInput) { i.Category = "lawn" },
		"bad zip":              func(i *CreateLeadInput) { i.Zip = "1521" },
		"zero price":           func(i *CreateLeadInput) { i.AskingPrice = decimal.Zero },
		"missing contact":      func(i *CreateLeadInput) { i.Contact = types.Contact{} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validLeadInput()
			mutate(&input)
			_, err := svc.CreateLead(context.Background(), input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
	assert.Empty(t, emitter.events, "invalid submissions must not emit events")
}

func TestRematchEmitsReopenedEvent(t *testing.T) {
	svc, _, emitter := newTestService(t)

	lead, err := svc.CreateLead(context.Background(), validLeadInput())
	require.NoError(t, err)
	emitter.events = nil

	require.NoError(t, svc.Rematch(context.Background(), lead.ID))
	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventLeadReopened, emitter.events[0].EventType)
}

func TestRematchRejectsSoldLead(t *testing.T) {
	svc, repo, _ := newTestService(t)

	lead, err := svc.CreateLead(context.Background(), validLeadInput())
	require.NoError(t, err)
	repo.byID[lead.ID].Status = enums.LeadStatusSold

	err = svc.Rematch(context.Background(), lead.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestRematchUnknownLead(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Rematch(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
