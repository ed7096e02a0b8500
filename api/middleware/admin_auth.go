package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/zachbush96/treelead-backend/api/responses"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/logger"
)

const adminKeyHeader = "X-Admin-Key"

// AdminAuth gates the admin surface behind a shared API key.
func AdminAuth(apiKey string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin api key not configured"))
				return
			}

			presented := strings.TrimSpace(r.Header.Get(adminKeyHeader))
			if presented == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin api key required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"ip": clientIP(r)})
					logg.Warn(ctx, "admin.auth.rejected")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid admin api key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
