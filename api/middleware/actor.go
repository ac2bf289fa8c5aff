package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/api/responses"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// ActorContext reads the identity headers set by the upstream gateway and
// seeds the request context with them. Requests without a parseable actor id
// are rejected before reaching any handler.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "actor id header required").WithDetails(map[string]any{"header": actorIDHeader}))
				return
			}

			actorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id"))
				return
			}

			role := strings.TrimSpace(r.Header.Get(actorRoleHeader))

			ctx := context.WithValue(r.Context(), ctxActorID, actorID.String())
			if role != "" {
				ctx = context.WithValue(ctx, ctxActorRole, role)
			}

			if logg != nil {
				fields := map[string]any{"actor_id": actorID.String()}
				if role != "" {
					fields["actor_role"] = role
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func ActorRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(string); ok {
		return v
	}
	return ""
}

// WithActorID injects the actor identifier into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}

// WithActorRole injects the actor role into the context.
func WithActorRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorRole, role)
}
