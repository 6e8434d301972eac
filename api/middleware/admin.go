package middleware

import (
	"net/http"
	"strings"

	"github.com/riversidefab/storefront-backend/api/responses"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/security"
)

const adminPasswordHeader = "X-Admin-Password"

// AdminPassword guards admin routes with the shared console password. An
// empty configured hash disables the whole admin surface.
func AdminPassword(passwordHash string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(passwordHash) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "not found"))
				return
			}

			password := r.Header.Get(adminPasswordHeader)
			if password == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin password required"))
				return
			}

			ok, err := security.VerifyPassword(password, passwordHash)
			if err != nil || !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin password"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
