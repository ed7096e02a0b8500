package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zachbush96/treelead-backend/api/responses"
	"github.com/zachbush96/treelead-backend/api/validators"
	"github.com/zachbush96/treelead-backend/internal/payouts"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/pagination"
)

// AdminListPayouts pages through the payout queue, newest first.
func AdminListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPayouts(r.Context(), payouts.ListParams{
			Status: r.URL.Query().Get("status"),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessPage(w, map[string]any{"payouts": result.Payouts}, result.NextCursor)
	}
}

type markPaidBody struct {
	TxRef string `json:"tx_ref" validate:"required,max=120"`
}

// AdminMarkPayoutPaid records the external transfer reference and closes out
// a queued payout.
func AdminMarkPayoutPaid(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}
		payoutID, err := validators.ParsePathUUID(chi.URLParam(r, "payoutId"), "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body markPaidBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.MarkPaid(r.Context(), payoutID, body.TxRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"payout": payout})
	}
}
