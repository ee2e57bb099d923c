package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gramline/internal/domain"
	"gramline/internal/service"
)

type createNotificationRequest struct {
	Type     string  `json:"type"`
	FromUser string  `json:"fromUser"`
	ToUser   string  `json:"toUser"`
	Post     *string `json:"post,omitempty"`
}

// handleCreateNotification records a social event and pushes it to the
// recipient when online. A self-notification is accepted but dropped, so
// callers never special-case acting on their own content.
func handleCreateNotification(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createNotificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		view, err := notifSvc.Notify(r.Context(), domain.NotificationType(req.Type), req.FromUser, req.ToUser, req.Post)
		if err != nil {
			writeError(w, err)
			return
		}
		if view == nil {
			// Dropped self-notification.
			writeJSON(w, http.StatusOK, map[string]string{"message": "notification skipped"})
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func handleListNotifications(notifSvc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		views, err := notifSvc.ListForUser(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}
