package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/api/validators"
	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/db/models"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

type leadRefunder interface {
	Refund(ctx context.Context, leadID uuid.UUID) (*models.Lead, error)
}

// AdminRematchLead re-queues a still-open lead through the matching pipeline.
func AdminRematchLead(svc leads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "lead service unavailable"))
			return
		}
		leadID, err := validators.ParsePathUUID(chi.URLParam(r, "leadId"), "leadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Rematch(r.Context(), leadID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{
			"lead_id": leadID.String(),
			"status":  "rematch_queued",
		})
	}
}

// AdminRefundLead refunds a sold lead, reopening it when the seller opted in.
func AdminRefundLead(svc leadRefunder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		leadID, err := validators.ParsePathUUID(chi.URLParam(r, "leadId"), "leadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lead, err := svc.Refund(r.Context(), leadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lead": lead})
	}
}
