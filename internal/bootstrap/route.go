package bootstrap

import (
	"net/http"
	"time"

	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/controller"
	"github.com/evidark-org/evidark/internal/middleware"
	"github.com/evidark-org/evidark/internal/telemetry"

	"github.com/go-chi/chi/v5"
)

type Route struct {
	cfg                 *config.AppConfig
	chi                 *chi.Mux
	metrics             *telemetry.Metrics
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	chatController      *controller.ChatController
	messageController   *controller.MessageController
	wsController        *controller.WebSocketController
	healthController    *controller.HealthController
}

func NewRoute(
	cfg *config.AppConfig,
	chi *chi.Mux,
	metrics *telemetry.Metrics,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	chatController *controller.ChatController,
	messageController *controller.MessageController,
	wsController *controller.WebSocketController,
	healthController *controller.HealthController,
) *Route {
	return &Route{
		cfg:                 cfg,
		chi:                 chi,
		metrics:             metrics,
		authMiddleware:      authMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		chatController:      chatController,
		messageController:   messageController,
		wsController:        wsController,
		healthController:    healthController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to EviDark"))
	})

	route.chi.Get("/healthz", route.healthController.Healthz)
	route.chi.Handle("/metrics", route.metrics.Handler())
	route.chi.Get("/ws", route.wsController.ServeWS)

	route.chi.Route("/api", func(r chi.Router) {
		r.Use(route.authMiddleware.VerifyToken)

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", route.chatController.GetChats)
			r.With(route.rateLimitMiddleware.Limit("create_chat", 20, time.Minute)).Post("/", route.chatController.CreateChat)

			r.Route("/{chatId}", func(r chi.Router) {
				r.Get("/", route.chatController.GetChat)
				r.Put("/", route.chatController.UpdateChat)
				r.Delete("/", route.chatController.DeleteChat)

				r.Get("/messages", route.messageController.GetMessages)
				r.With(route.rateLimitMiddleware.Limit("send_message", route.cfg.RateLimitSendPerMinute, time.Minute)).Post("/messages", route.messageController.SendMessage)
				r.Get("/unread", route.messageController.GetUnreadCount)
			})
		})

		r.Route("/messages/{messageId}", func(r chi.Router) {
			r.Put("/", route.messageController.EditMessage)
			r.Delete("/", route.messageController.DeleteMessage)
			r.Post("/reactions", route.messageController.SetReaction)
			r.Delete("/reactions", route.messageController.RemoveReaction)
			r.Post("/read", route.messageController.MarkAsRead)
		})
	})
}
