package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/vestgate/internal/middleware"
	"github.com/hitoshi/vestgate/internal/model"
)

// NotificationClientInterface は通知プロキシが必要とするアップストリームクライアント。
type NotificationClientInterface interface {
	ListNotifications(ctx context.Context, sess *model.Session) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, sess *model.Session, id string) error
}

// TagStripper は通知本文からHTMLタグを除去する。
type TagStripper interface {
	StripTags(rawHTML string) string
}

// NotificationHandler は通知関連のHTTPハンドラー。
// アップストリーム由来のタイトルと本文はタグを除去してから返す。
type NotificationHandler struct {
	client    NotificationClientInterface
	sanitizer TagStripper
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(client NotificationClientInterface, sanitizer TagStripper) *NotificationHandler {
	return &NotificationHandler{
		client:    client,
		sanitizer: sanitizer,
	}
}

type notificationListResponse struct {
	Notifications []*model.Notification `json:"notifications"`
}

// List は通知一覧をアップストリームから取得して返す。
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	notifications, err := h.client.ListNotifications(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}

	for _, n := range notifications {
		n.Title = h.sanitizer.StripTags(n.Title)
		n.Message = h.sanitizer.StripTags(n.Message)
	}

	writeJSON(w, http.StatusOK, notificationListResponse{Notifications: notifications})
}

type readAllResponse struct {
	MarkedCount int `json:"markedCount"`
}

// ReadAll は未読の通知をすべて既読にする。
// POST /api/notifications/read-all
func (h *NotificationHandler) ReadAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	notifications, err := h.client.ListNotifications(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	marked := 0
	for _, n := range notifications {
		if n.IsRead {
			continue
		}
		if err := h.client.MarkNotificationRead(r.Context(), sess, n.ID); err != nil {
			middleware.WriteAPIError(w, err)
			return
		}
		marked++
	}

	writeJSON(w, http.StatusOK, readAllResponse{MarkedCount: marked})
}

// MarkRead は通知を既読にする。
// PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id", "通知IDを指定してください。"))
		return
	}

	if err := h.client.MarkNotificationRead(r.Context(), sess, id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
