package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/api/responses"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
)

// PublicValidateEvaluation resolves a report validation token without
// requiring authentication. Unknown tokens surface as not found.
func PublicValidateEvaluation(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "token"))
		if raw == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation token is required"))
			return
		}

		token, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid validation token"))
			return
		}

		result, err := svc.ValidateToken(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
