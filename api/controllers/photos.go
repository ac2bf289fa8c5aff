package controllers

import (
	"net/http"

	"github.com/drivelane/appraisal-backend/api/responses"
	"github.com/drivelane/appraisal-backend/api/validators"
	"github.com/drivelane/appraisal-backend/internal/photos"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
)

type presignPhotoPayload struct {
	FileName  string  `json:"file_name" validate:"required,max=256"`
	MimeType  string  `json:"mime_type" validate:"required"`
	SizeBytes int64   `json:"size_bytes" validate:"required,min=1"`
	Caption   *string `json:"caption" validate:"omitempty,max=256"`
}

// PhotoPresign reserves a photo slot and returns a signed upload URL.
func PhotoPresign(svc PhotosService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photos service unavailable"))
			return
		}

		evaluationID, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload presignPhotoPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out, err := svc.PresignUpload(ctx, evaluationID, photos.PresignInput{
			FileName:  validators.SanitizeString(payload.FileName, 256),
			MimeType:  validators.SanitizeString(payload.MimeType, 64),
			SizeBytes: payload.SizeBytes,
			Caption:   payload.Caption,
			ActorID:   actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// PhotoConfirm marks a pending photo as uploaded after the client PUT succeeds.
func PhotoConfirm(svc PhotosService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photos service unavailable"))
			return
		}

		evaluationID, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		photoID, err := parsePathUUID(r, "photoId", "photo id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		photo, err := svc.ConfirmUpload(ctx, evaluationID, photoID, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"photo_id":    photo.ID,
			"object_key":  photo.ObjectKey,
			"status":      photo.Status,
			"uploaded_at": photo.UploadedAt,
		})
	}
}

// PhotoList returns the evaluation's photos with temporary download URLs.
func PhotoList(svc PhotosService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photos service unavailable"))
			return
		}

		evaluationID, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views, err := svc.List(ctx, evaluationID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"photos": views})
	}
}

// PhotoDelete soft-deletes a photo and removes the stored object.
func PhotoDelete(svc PhotosService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "photos service unavailable"))
			return
		}

		evaluationID, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		photoID, err := parsePathUUID(r, "photoId", "photo id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, evaluationID, photoID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
