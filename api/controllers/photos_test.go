package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/internal/photos"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
)

func TestPhotoPresign(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()
	evaluationID := uuid.New()
	params := map[string]string{"evaluationId": evaluationID.String()}

	t.Run("success", func(t *testing.T) {
		stub := &stubPhotosService{
			presign: func(ctx context.Context, gotEvaluation uuid.UUID, input photos.PresignInput) (*photos.PresignOutput, error) {
				if gotEvaluation != evaluationID {
					t.Fatalf("unexpected evaluation id")
				}
				if input.ActorID != actorID {
					t.Fatalf("expected actor propagated")
				}
				return &photos.PresignOutput{
					PhotoID:      uuid.New(),
					ObjectKey:    "evaluations/" + gotEvaluation.String() + "/photos/x/front.png",
					SignedPUTURL: "https://storage.googleapis.com/bucket/object?sig",
					ContentType:  input.MimeType,
					ExpiresAt:    time.Now().Add(15 * time.Minute),
				}, nil
			},
		}
		body := `{"file_name":"front.png","mime_type":"image/png","size_bytes":52311}`
		req := actorRequest(http.MethodPost, "/api/v1/evaluations/"+evaluationID.String()+"/photos/presign", strings.NewReader(body), actorID, params)
		rec := httptest.NewRecorder()
		PhotoPresign(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data photos.PresignOutput `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.SignedPUTURL == "" {
			t.Fatalf("expected signed url in payload")
		}
	})

	t.Run("missing size rejected", func(t *testing.T) {
		body := `{"file_name":"front.png","mime_type":"image/png"}`
		req := actorRequest(http.MethodPost, "/api/v1/evaluations/"+evaluationID.String()+"/photos/presign", strings.NewReader(body), actorID, params)
		rec := httptest.NewRecorder()
		PhotoPresign(&stubPhotosService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("guard rejections propagate", func(t *testing.T) {
		stub := &stubPhotosService{
			presign: func(ctx context.Context, gotEvaluation uuid.UUID, input photos.PresignInput) (*photos.PresignOutput, error) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, "operation not allowed in current status")
			},
		}
		body := `{"file_name":"front.png","mime_type":"image/png","size_bytes":52311}`
		req := actorRequest(http.MethodPost, "/api/v1/evaluations/"+evaluationID.String()+"/photos/presign", strings.NewReader(body), actorID, params)
		rec := httptest.NewRecorder()
		PhotoPresign(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestPhotoConfirm(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()
	evaluationID := uuid.New()
	photoID := uuid.New()
	params := map[string]string{"evaluationId": evaluationID.String(), "photoId": photoID.String()}

	t.Run("success", func(t *testing.T) {
		uploadedAt := time.Now()
		stub := &stubPhotosService{
			confirm: func(ctx context.Context, gotEvaluation, gotPhoto, gotActor uuid.UUID) (*models.EvaluationPhoto, error) {
				if gotPhoto != photoID || gotActor != actorID {
					t.Fatalf("unexpected confirm arguments")
				}
				return &models.EvaluationPhoto{
					ID:          gotPhoto,
					ObjectKey:   "evaluations/key",
					Status:      enums.PhotoStatusUploaded,
					UploadedAt:  &uploadedAt,
					ContentType: "image/png",
				}, nil
			},
		}
		req := actorRequest(http.MethodPost, "/api/v1/evaluations/"+evaluationID.String()+"/photos/"+photoID.String()+"/confirm", strings.NewReader(`{}`), actorID, params)
		rec := httptest.NewRecorder()
		PhotoConfirm(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid photo id", func(t *testing.T) {
		badParams := map[string]string{"evaluationId": evaluationID.String(), "photoId": "nope"}
		req := actorRequest(http.MethodPost, "/api/v1/evaluations/"+evaluationID.String()+"/photos/nope/confirm", strings.NewReader(`{}`), actorID, badParams)
		rec := httptest.NewRecorder()
		PhotoConfirm(&stubPhotosService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPhotoListAndDelete(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()
	evaluationID := uuid.New()
	params := map[string]string{"evaluationId": evaluationID.String()}

	t.Run("list", func(t *testing.T) {
		stub := &stubPhotosService{
			listPhotos: func(ctx context.Context, gotEvaluation uuid.UUID) ([]photos.PhotoView, error) {
				return []photos.PhotoView{{ID: uuid.New(), Status: enums.PhotoStatusUploaded, DownloadURL: "https://signed"}}, nil
			},
		}
		req := actorRequest(http.MethodGet, "/api/v1/evaluations/"+evaluationID.String()+"/photos", nil, actorID, params)
		rec := httptest.NewRecorder()
		PhotoList(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var envelope struct {
			Data struct {
				Photos []photos.PhotoView `json:"photos"`
			} `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(envelope.Data.Photos) != 1 {
			t.Fatalf("expected one photo, got %d", len(envelope.Data.Photos))
		}
	})

	t.Run("delete", func(t *testing.T) {
		photoID := uuid.New()
		deleteParams := map[string]string{"evaluationId": evaluationID.String(), "photoId": photoID.String()}
		var deleted uuid.UUID
		stub := &stubPhotosService{
			deletePhoto: func(ctx context.Context, gotEvaluation, gotPhoto uuid.UUID) error {
				deleted = gotPhoto
				return nil
			},
		}
		req := actorRequest(http.MethodDelete, "/api/v1/evaluations/"+evaluationID.String()+"/photos/"+photoID.String(), nil, actorID, deleteParams)
		rec := httptest.NewRecorder()
		PhotoDelete(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != photoID {
			t.Fatalf("expected delete forwarded to service")
		}
	})
}

type stubPhotosService struct {
	presign     func(context.Context, uuid.UUID, photos.PresignInput) (*photos.PresignOutput, error)
	confirm     func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*models.EvaluationPhoto, error)
	listPhotos  func(context.Context, uuid.UUID) ([]photos.PhotoView, error)
	deletePhoto func(context.Context, uuid.UUID, uuid.UUID) error
}

func (s *stubPhotosService) PresignUpload(ctx context.Context, evaluationID uuid.UUID, input photos.PresignInput) (*photos.PresignOutput, error) {
	if s.presign == nil {
		panic("unexpected PresignUpload call")
	}
	return s.presign(ctx, evaluationID, input)
}

func (s *stubPhotosService) ConfirmUpload(ctx context.Context, evaluationID, photoID uuid.UUID, actorID uuid.UUID) (*models.EvaluationPhoto, error) {
	if s.confirm == nil {
		panic("unexpected ConfirmUpload call")
	}
	return s.confirm(ctx, evaluationID, photoID, actorID)
}

func (s *stubPhotosService) List(ctx context.Context, evaluationID uuid.UUID) ([]photos.PhotoView, error) {
	if s.listPhotos == nil {
		panic("unexpected List call")
	}
	return s.listPhotos(ctx, evaluationID)
}

func (s *stubPhotosService) Delete(ctx context.Context, evaluationID, photoID uuid.UUID) error {
	if s.deletePhoto == nil {
		panic("unexpected Delete call")
	}
	return s.deletePhoto(ctx, evaluationID, photoID)
}
