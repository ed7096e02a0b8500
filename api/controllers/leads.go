package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/api/validators"
	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/types"
)

// leadSubmission mirrors the legacy seller form contract; the same field
// names are accepted as JSON.
type leadSubmission struct {
	Company       string `json:"company" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,max=20"`
	Category      string `json:"category" validate:"required"`
	Zip           string `json:"zip" validate:"required,zip5"`
	City          string `json:"city" validate:"omitempty,max=80"`
	Ask           string `json:"ask" validate:"required"`
	Notes         string `json:"notes" validate:"omitempty,max=2000"`
	CustomerName  string `json:"customer_name" validate:"required,max=120"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	Exclusive     bool   `json:"exclusive"`
	OptInReplace  bool   `json:"optin_replace"`
}

// SubmitLead accepts the public seller form and posts the lead.
func SubmitLead(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "lead service unavailable"))
			return
		}

		var body leadSubmission
		if isJSONRequest(r) {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			if err := parseForm(w, r); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			body = leadSubmission{
				Company:       validators.SanitizeString(r.PostFormValue("company"), 120),
				Email:         validators.SanitizeString(r.PostFormValue("email"), 254),
				Phone:         validators.SanitizePhone(r.PostFormValue("phone")),
				Category:      validators.SanitizeString(r.PostFormValue("category"), 40),
				Zip:           validators.SanitizeString(r.PostFormValue("zip"), 10),
				City:          validators.SanitizeString(r.PostFormValue("city"), 80),
				Ask:           validators.SanitizeString(r.PostFormValue("ask"), 20),
				Notes:         validators.SanitizeString(r.PostFormValue("notes"), 2000),
				CustomerName:  validators.SanitizeString(r.PostFormValue("customer_name"), 120),
				CustomerPhone: validators.SanitizePhone(r.PostFormValue("customer_phone")),
				CustomerEmail: validators.SanitizeString(r.PostFormValue("customer_email"), 254),
				Exclusive:     formFlag(r, "exclusive"),
				OptInReplace:  formFlag(r, "optin_replace"),
			}
			if err := validators.ValidateStruct(&body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input, err := buildCreateLeadInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lead, err := svc.CreateLead(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"lead_id": lead.ID.String(),
			"status":  string(lead.Status),
		})
	}
}

func buildCreateLeadInput(body leadSubmission) (leads.CreateLeadInput, error) {
	category, err := enums.ParseLeadCategory(body.Category)
	if err != nil {
		return leads.CreateLeadInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"category": "is not a recognized category"})
	}
	askingPrice, err := decimal.NewFromString(body.Ask)
	if err != nil {
		return leads.CreateLeadInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"ask": "must be a decimal amount"})
	}
	return leads.CreateLeadInput{
		SellerName:  body.Company,
		SellerEmail: body.Email,
		SellerPhone: body.Phone,
		Category:    category,
		Zip:         body.Zip,
		City:        body.City,
		AskingPrice: askingPrice,
		Description: body.Notes,
		Contact: types.Contact{
			Name:  body.CustomerName,
			Phone: body.CustomerPhone,
			Email: body.CustomerEmail,
		},
		Exclusive:    body.Exclusive,
		OptInReplace: body.OptInReplace,
	}, nil
}
