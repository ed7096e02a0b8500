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

	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
)

type fakeLeadsService struct {
	created  []leads.CreateLeadInput
	rematch  []uuid.UUID
	err      error
	returned *models.Lead
}

func (f *fakeLeadsService) CreateLead(_ context.Context, input leads.CreateLeadInput) (*models.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	if f.returned != nil {
		return f.returned, nil
	}
	return &models.Lead{ID: uuid.New(), Status: enums.LeadStatusNew}, nil
}

func (f *fakeLeadsService) GetLead(context.Context, uuid.UUID) (*models.Lead, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
}

func (f *fakeLeadsService) Rematch(_ context.Context, leadID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.rematch = append(f.rematch, leadID)
	return nil
}

func sellerForm() url.Values {
	form := url.Values{}
	form.Set("company", "Shady Grove Tree Co")
	form.Set("email", "office@shadygrove.example")
	form.Set("category", "Removal")
	form.Set("zip", "15213")
	form.Set("city", "Pittsburgh")
	form.Set("ask", "85.00")
	form.Set("customer_name", "Pat Doyle")
	form.Set("customer_phone", "412-555-0188")
	form.Set("optin_replace", "yes")
	return form
}

func TestSubmitLeadAcceptsLegacyForm(t *testing.T) {
	svc := &fakeLeadsService{}
	handler := SubmitLead(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/leads", strings.NewReader(sellerForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.created, 1)

	input := svc.created[0]
	assert.Equal(t, enums.CategoryRemoval, input.Category)
	assert.Equal(t, "85", input.AskingPrice.String())
	assert.Equal(t, "Pat Doyle", input.Contact.Name)
	assert.True(t, input.OptInReplace)
	assert.False(t, input.Exclusive)
	assert.Contains(t, rec.Body.String(), "lead_id")
}

func TestSubmitLeadAcceptsJSON(t *testing.T) {
	svc := &fakeLeadsService{}
	handler := SubmitLead(svc, testLogger())

	body := `{"company":"Shady Grove Tree Co","email":"office@shadygrove.example",` +
		`"category":"removal","zip":"15213","ask":"120.50","customer_name":"Pat Doyle","exclusive":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.created, 1)
	assert.True(t, svc.created[0].Exclusive)
	assert.Equal(t, "120.5", svc.created[0].AskingPrice.String())
}

func TestSubmitLeadRejectsBadCategory(t *testing.T) {
	svc := &fakeLeadsService{}
	handler := SubmitLead(svc, testLogger())

	form := sellerForm()
	form.Set("category", "landscaping")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/leads", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created)
	assert.Contains(t, rec.Body.String(), "category")
}

func TestSubmitLeadRejectsMissingZip(t *testing.T) {
	svc := &fakeLeadsService{}
	handler := SubmitLead(svc, testLogger())

	form := sellerForm()
	form.Del("zip")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/leads", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created)
}

func TestSubmitLeadRejectsBadAsk(t *testing.T) {
	svc := &fakeLeadsService{}
	handler := SubmitLead(svc, testLogger())

	form := sellerForm()
	form.Set("ask", "eighty five")
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/leads", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ask")
}
