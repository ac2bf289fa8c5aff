package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/drivelane/appraisal-backend/api/controllers"
	"github.com/drivelane/appraisal-backend/api/middleware"
	"github.com/drivelane/appraisal-backend/internal/notifications"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/db"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/redis"
	"github.com/drivelane/appraisal-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	evaluationsService controllers.EvaluationsService,
	photosService controllers.PhotosService,
	notificationsService notifications.Service,
) http.Handler {
	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, gcsClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/evaluations/validate/{token}", controllers.PublicValidateEvaluation(evaluationsService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1/evaluations", func(r chi.Router) {
			r.Post("/", controllers.EvaluationCreate(evaluationsService, logg))
			r.Get("/", controllers.EvaluationList(evaluationsService, logg))

			r.Route("/{evaluationId}", func(r chi.Router) {
				r.Get("/", controllers.EvaluationDetail(evaluationsService, logg))
				r.Patch("/vehicle", controllers.EvaluationUpdateVehicle(evaluationsService, logg))

				r.Post("/items", controllers.EvaluationAddItem(evaluationsService, logg))
				r.Delete("/items/{itemId}", controllers.EvaluationRemoveItem(evaluationsService, logg))
				r.Put("/checklist", controllers.EvaluationUpsertChecklist(evaluationsService, logg))

				r.Post("/calculate", controllers.EvaluationCalculate(evaluationsService, logg))
				r.Post("/submit", controllers.EvaluationSubmit(evaluationsService, logg))
				r.Post("/approve", controllers.EvaluationApprove(evaluationsService, logg))
				r.Post("/reject", controllers.EvaluationReject(evaluationsService, logg))
				r.Post("/cancel", controllers.EvaluationCancel(evaluationsService, logg))

				r.Route("/photos", func(r chi.Router) {
					r.Get("/", controllers.PhotoList(photosService, logg))
					r.Post("/presign", controllers.PhotoPresign(photosService, logg))
					r.Post("/{photoId}/confirm", controllers.PhotoConfirm(photosService, logg))
					r.Delete("/{photoId}", controllers.PhotoDelete(photosService, logg))
				})
			})
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(notificationsService, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(notificationsService, logg))
		})
	})

	return r
}
