package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/riversidefab/storefront-backend/api/responses"
	"github.com/riversidefab/storefront-backend/api/validators"
	contentsvc "github.com/riversidefab/storefront-backend/internal/content"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

type contentUpdateRequest struct {
	Version int           `json:"version" validate:"min=0"`
	Data    types.JSONMap `json:"data" validate:"required"`
}

// AdminGetContent returns the versioned settings document for a key.
func AdminGetContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		doc, err := svc.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}

// AdminPutContent writes a settings document guarded by its version.
func AdminPutContent(svc contentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		var payload contentUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Update(r.Context(), chi.URLParam(r, "key"), payload.Version, payload.Data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}
