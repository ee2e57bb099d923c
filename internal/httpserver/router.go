package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gramline/internal/config"
	"gramline/internal/domain"
	"gramline/internal/security"
	"gramline/internal/service"
	"gramline/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware. The ws hub doubles as the presence registry the dispatchers
// push through.
func NewRouter(cfg *config.Config, repos domain.Repositories, hub *ws.Hub, tokenSvc *security.TokenService, hasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(repos.Users, tokenSvc, hasher)
	chatSvc := service.NewChatService(repos.Chats, repos.Users)
	msgSvc := service.NewMessageService(repos.Messages, hub)
	notifSvc := service.NewNotificationService(repos.Notifications, repos.Posts, repos.Users, hub)

	// The request timeout covers the REST surface only. Socket connections
	// live far longer than any request deadline, so /ws stays outside the
	// group; the gateway bounds its own store calls instead.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Chat lifecycle requires an authenticated caller; the unread counts
		// in the list are scoped to that caller.
		r.Route("/chat", func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.Users))
			r.Post("/start", handleStartChat(chatSvc))
			r.Get("/list", handleListChats(chatSvc))
			r.Post("/{chatID}/read", handleMarkChatRead(chatSvc))
		})

		// Message and notification routes identify participants in the
		// request itself, matching the socket protocol.
		r.Post("/messages", handleSendMessage(msgSvc))
		r.Get("/messages/{userID1}/{userID2}", handleListMessages(msgSvc))

		r.Post("/notification", handleCreateNotification(notifSvc))
		r.Get("/notification/{userID}", handleListNotifications(notifSvc))
	})

	// Realtime gateway
	r.Get("/ws", ws.MakeHandler(hub, msgSvc, cfg.PersistTimeout))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors onto status codes. Anything unmapped is a
// persistence or internal failure and surfaces as 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidParticipant),
		errors.Is(err, domain.ErrEmptyText),
		errors.Is(err, domain.ErrSelfAction),
		errors.Is(err, service.ErrUnknownNotificationType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
