package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/drivelane/appraisal-backend/api/responses"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/db"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/redis"
	"github.com/drivelane/appraisal-backend/pkg/storage/gcs"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Appraisal-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. A nil pinger is treated as
// deliberately unwired (local tooling) and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	checks := []struct {
		name string
		ping pinger
	}{
		{"database", dbP},
		{"redis", redisP},
		{"gcs", gcsP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		w.Header().Set("X-Appraisal-Env", cfg.App.Env)

		failed := map[string]string{}
		for _, check := range checks {
			if check.ping == nil {
				continue
			}
			if err := check.ping.Ping(ctx); err != nil {
				failed[check.name] = err.Error()
			}
		}

		if len(failed) > 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(map[string]any{"components": failed}))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
