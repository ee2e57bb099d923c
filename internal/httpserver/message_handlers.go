package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gramline/internal/service"
)

type sendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// handleSendMessage appends a message and pushes it to the receiver when
// online. Delivery is best effort: the response is 201 either way, the
// receiver catches up over the list endpoint.
func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		res, err := msgSvc.Send(r.Context(), req.SenderID, req.ReceiverID, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res.Message)
	}
}

// handleListMessages returns the full history between two users, oldest
// first. Either order of the path segments resolves to the same chat.
func handleListMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID1 := chi.URLParam(r, "userID1")
		userID2 := chi.URLParam(r, "userID2")

		messages, err := msgSvc.ListBetween(r.Context(), userID1, userID2)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}
