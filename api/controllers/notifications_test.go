package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/internal/notifications"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
)

type stubNotificationsService struct {
	list        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markRead    func(ctx context.Context, recipientID, notificationID uuid.UUID) error
	markAllRead func(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

func (s *stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.list == nil {
		panic("unexpected List call")
	}
	return s.list(ctx, params)
}

func (s *stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if s.markRead == nil {
		panic("unexpected MarkRead call")
	}
	return s.markRead(ctx, recipientID, notificationID)
}

func (s *stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if s.markAllRead == nil {
		panic("unexpected MarkAllRead call")
	}
	return s.markAllRead(ctx, recipientID)
}

func TestNotificationList(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()

	t.Run("success with unread filter", func(t *testing.T) {
		readAt := time.Now()
		stub := &stubNotificationsService{
			list: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
				if params.RecipientID != actorID {
					t.Fatalf("recipient %s, want actor %s", params.RecipientID, actorID)
				}
				if !params.UnreadOnly {
					t.Fatal("expected unread filter to be set")
				}
				if params.Limit != 10 {
					t.Fatalf("unexpected limit %d", params.Limit)
				}
				return &notifications.ListResult{
					Items: []models.Notification{
						{
							ID:           uuid.New(),
							RecipientID:  actorID,
							EvaluationID: uuid.New(),
							Type:         enums.NotificationTypeDecision,
							Title:        "Evaluation approved",
							Message:      "Evaluation approved.",
							ReadAt:       &readAt,
						},
					},
					Cursor: "next",
				}, nil
			},
		}

		req := actorRequest(http.MethodGet, "/api/v1/notifications?unread=true&limit=10", nil, actorID, nil)
		rec := httptest.NewRecorder()
		NotificationList(stub, logg)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		var payload struct {
			Data struct {
				Notifications []notificationView `json:"notifications"`
				NextCursor    string             `json:"next_cursor"`
			} `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(payload.Data.Notifications) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(payload.Data.Notifications))
		}
		if payload.Data.Notifications[0].Type != string(enums.NotificationTypeDecision) {
			t.Fatalf("unexpected type %q", payload.Data.Notifications[0].Type)
		}
		if payload.Data.NextCursor != "next" {
			t.Fatalf("unexpected cursor %q", payload.Data.NextCursor)
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		req := actorRequest(http.MethodGet, "/api/v1/notifications?limit=9999", nil, actorID, nil)
		rec := httptest.NewRecorder()
		NotificationList(&stubNotificationsService{}, logg)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestNotificationMarkRead(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()
	notificationID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubNotificationsService{
			markRead: func(ctx context.Context, recipientID, id uuid.UUID) error {
				if recipientID != actorID || id != notificationID {
					t.Fatalf("unexpected args %s %s", recipientID, id)
				}
				return nil
			},
		}

		req := actorRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil, actorID,
			map[string]string{"notificationId": notificationID.String()})
		rec := httptest.NewRecorder()
		NotificationMarkRead(stub, logg)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		stub := &stubNotificationsService{
			markRead: func(ctx context.Context, recipientID, id uuid.UUID) error {
				return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
			},
		}

		req := actorRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil, actorID,
			map[string]string{"notificationId": notificationID.String()})
		rec := httptest.NewRecorder()
		NotificationMarkRead(stub, logg)(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		req := actorRequest(http.MethodPost, "/api/v1/notifications/nope/read", nil, actorID,
			map[string]string{"notificationId": "nope"})
		rec := httptest.NewRecorder()
		NotificationMarkRead(&stubNotificationsService{}, logg)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
		if code := errorCode(t, rec.Body); code != "VALIDATION_ERROR" {
			t.Fatalf("unexpected code %q", code)
		}
	})
}

func TestNotificationMarkAllRead(t *testing.T) {
	logg := testLogger()
	actorID := uuid.New()

	stub := &stubNotificationsService{
		markAllRead: func(ctx context.Context, recipientID uuid.UUID) (int64, error) {
			if recipientID != actorID {
				t.Fatalf("recipient %s, want actor %s", recipientID, actorID)
			}
			return 4, nil
		},
	}

	req := actorRequest(http.MethodPost, "/api/v1/notifications/read-all", nil, actorID, nil)
	rec := httptest.NewRecorder()
	NotificationMarkAllRead(stub, logg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var payload struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Updated != 4 {
		t.Fatalf("expected 4 updated, got %d", payload.Data.Updated)
	}
}
