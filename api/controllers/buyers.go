package controllers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/api/validators"
	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

// buyerSubmission mirrors the legacy buyer signup form. cat[] arrives as a
// repeated field in form bodies and as an array in JSON.
type buyerSubmission struct {
	Company    string   `json:"company" validate:"required,max=120"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"omitempty,max=20"`
	Zip        string   `json:"zip" validate:"required,zip5"`
	ExtraZips  []string `json:"extra_zips" validate:"omitempty,max=50,dive,zip5"`
	Radius     int      `json:"radius" validate:"omitempty,min=0,max=500"`
	Categories []string `json:"cat" validate:"required,min=1"`
	MaxPrice   string   `json:"max_price" validate:"omitempty"`
	Delivery   string   `json:"delivery" validate:"omitempty"`
}

// SubmitBuyer accepts the public buyer signup form and upserts the buyer.
func SubmitBuyer(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		var body buyerSubmission
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
			radius := 0
			if raw := r.PostFormValue("radius"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
							WithDetails(map[string]string{"radius": "must be a whole number of miles"}))
					return
				}
				radius = parsed
			}
			body = buyerSubmission{
				Company:    validators.SanitizeString(r.PostFormValue("company"), 120),
				Email:      validators.SanitizeString(r.PostFormValue("email"), 254),
				Phone:      validators.SanitizePhone(r.PostFormValue("phone")),
				Zip:        validators.SanitizeString(r.PostFormValue("zip"), 10),
				ExtraZips:  splitCommaList(r.PostFormValue("extra_zips")),
				Radius:     radius,
				Categories: r.PostForm["cat[]"],
				MaxPrice:   validators.SanitizeString(r.PostFormValue("max_price"), 20),
				Delivery:   validators.SanitizeString(r.PostFormValue("delivery"), 30),
			}
			if len(body.Categories) == 0 {
				body.Categories = r.PostForm["cat"]
			}
			if err := validators.ValidateStruct(&body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input, err := buildRegisterBuyerInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		business, err := svc.RegisterBuyer(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"business_id": business.ID.String(),
			"verified":    business.Verified,
		})
	}
}

func buildRegisterBuyerInput(body buyerSubmission) (businesses.RegisterBuyerInput, error) {
	categories := make([]enums.LeadCategory, 0, len(body.Categories))
	for _, raw := range body.Categories {
		category, err := enums.ParseLeadCategory(raw)
		if err != nil {
			return businesses.RegisterBuyerInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"cat": "contains an unrecognized category"})
		}
		categories = append(categories, category)
	}

	deliveryPref := enums.DeliveryEmailOnly
	if body.Delivery != "" {
		parsed, err := enums.ParseDeliveryPref(body.Delivery)
		if err != nil {
			return businesses.RegisterBuyerInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"delivery": "is not a recognized delivery preference"})
		}
		deliveryPref = parsed
	}

	var maxPrice *decimal.Decimal
	if body.MaxPrice != "" {
		parsed, err := decimal.NewFromString(body.MaxPrice)
		if err != nil {
			return businesses.RegisterBuyerInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"max_price": "must be a decimal amount"})
		}
		maxPrice = &parsed
	}

	return businesses.RegisterBuyerInput{
		Name:         body.Company,
		Email:        body.Email,
		Phone:        body.Phone,
		PrimaryZip:   body.Zip,
		ExtraZips:    body.ExtraZips,
		RadiusMiles:  body.Radius,
		Categories:   categories,
		MaxPrice:     maxPrice,
		DeliveryPref: deliveryPref,
	}, nil
}
