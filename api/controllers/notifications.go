package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/api/responses"
	"github.com/drivelane/appraisal-backend/api/validators"
	"github.com/drivelane/appraisal-backend/internal/notifications"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

type notificationView struct {
	ID           uuid.UUID  `json:"id"`
	EvaluationID uuid.UUID  `json:"evaluation_id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Link         *string    `json:"link,omitempty"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newNotificationView(n models.Notification) notificationView {
	return notificationView{
		ID:           n.ID,
		EvaluationID: n.EvaluationID,
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Link:         n.Link,
		ReadAt:       n.ReadAt,
		CreatedAt:    n.CreatedAt,
	}
}

// NotificationList returns the caller's notifications, newest first.
func NotificationList(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), notifications.ListParams{
			RecipientID: actorID,
			Limit:       limit,
			Cursor:      strings.TrimSpace(r.URL.Query().Get("cursor")),
			UnreadOnly:  r.URL.Query().Get("unread") == "true",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]notificationView, 0, len(result.Items))
		for _, item := range result.Items {
			views = append(views, newNotificationView(item))
		}
		responses.WriteSuccess(w, map[string]any{
			"notifications": views,
			"next_cursor":   result.Cursor,
		})
	}
}

// NotificationMarkRead marks a single notification as read.
func NotificationMarkRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := parsePathUUID(r, "notificationId", "notification id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), actorID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "read"})
	}
}

// NotificationMarkAllRead marks every unread notification for the caller.
func NotificationMarkAllRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": count})
	}
}
