package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
)

type fakeBusinessesService struct {
	registered []businesses.RegisterBuyerInput
	err        error
}

func (f *fakeBusinessesService) RegisterBuyer(_ context.Context, input businesses.RegisterBuyerInput) (*models.Business, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, input)
	return &models.Business{ID: uuid.New(), IsBuyer: true, Verified: true}, nil
}

func (f *fakeBusinessesService) EnsureSeller(context.Context, *gorm.DB, businesses.SellerInput) (*models.Business, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBusinessesService) GetBusiness(context.Context, uuid.UUID) (*models.Business, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBusinessesService) ListActiveBuyers(context.Context) ([]models.Business, error) {
	return nil, nil
}

func (f *fakeBusinessesService) VerifyBuyer(_ context.Context, id uuid.UUID, verified bool) (*models.Business, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Business{ID: id, IsBuyer: true, Verified: verified}, nil
}

func buyerForm() url.Values {
	form := url.Values{}
	form.Set("company", "Oak & Iron Tree Service")
	form.Set("email", "dispatch@oakiron.example")
	form.Set("phone", "412-555-0102")
	form.Set("zip", "15090")
	form.Set("extra_zips", "15213, 15217")
	form.Set("radius", "25")
	form.Add("cat[]", "Removal")
	form.Add("cat[]", "Stump")
	form.Set("max_price", "150")
	form.Set("delivery", "SmsAndEmail")
	return form
}

func TestSubmitBuyerAcceptsLegacyForm(t *testing.T) {
	svc := &fakeBusinessesService{}
	handler := SubmitBuyer(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/buyers", strings.NewReader(buyerForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.registered, 1)

	input := svc.registered[0]
	assert.Equal(t, "15090", input.PrimaryZip)
	assert.Equal(t, []string{"15213", "15217"}, input.ExtraZips)
	assert.Equal(t, 25, input.RadiusMiles)
	assert.ElementsMatch(t, []enums.LeadCategory{enums.CategoryRemoval, enums.CategoryStump}, input.Categories)
	assert.Equal(t, enums.DeliverySmsAndEmail, input.DeliveryPref)
	require.NotNil(t, input.MaxPrice)
	assert.Equal(t, "150", input.MaxPrice.String())
}

func TestSubmitBuyerAcceptsJSON(t *testing.T) {
	svc := &fakeBusinessesService{}
	handler := SubmitBuyer(svc, testLogger())

	body := `{"company":"Oak & Iron Tree Service","email":"dispatch@oakiron.example",` +
		`"zip":"15090","cat":["removal","crane"],"delivery":"email_only"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/buyers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.registered, 1)
	assert.Equal(t, enums.DeliveryEmailOnly, svc.registered[0].DeliveryPref)
	assert.Nil(t, svc.registered[0].MaxPrice)
}

func TestSubmitBuyerRejectsUnknownCategory(t *testing.T) {
	svc := &fakeBusinessesService{}
	handler := SubmitBuyer(svc, testLogger())

	form := buyerForm()
	form.Del("cat[]")
	form.Add("cat[]", "landscaping")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/buyers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.registered)
}

func TestSubmitBuyerRequiresCategory(t *testing.T) {
	svc := &fakeBusinessesService{}
	handler := SubmitBuyer(svc, testLogger())

	form := buyerForm()
	form.Del("cat[]")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/buyers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.registered)
}

func TestSubmitBuyerRejectsBadRadius(t *testing.T) {
	svc := &fakeBusinessesService{}
	handler := SubmitBuyer(svc, testLogger())

	form := buyerForm()
	form.Set("radius", "forty")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/buyers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "radius")
}
