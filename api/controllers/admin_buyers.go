package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/api/validators"
	"github.com/zachbush96/treelead-backend/internal/businesses"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

type verifyBuyerBody struct {
	Verified *bool `json:"verified" validate:"required"`
}

// AdminVerifyBuyer flips a buyer's verification gate. Unverified buyers never
// appear in matching, so this is the operator's admission control.
func AdminVerifyBuyer(svc businesses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "businesses service unavailable"))
			return
		}
		businessID, err := validators.ParsePathUUID(chi.URLParam(r, "businessId"), "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body verifyBuyerBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ValidateStruct(body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		business, err := svc.VerifyBuyer(r.Context(), businessID, *body.Verified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"business_id": business.ID.String(),
			"verified":    business.Verified,
		})
	}
}
