package bootstrap

import (
	"github.com/evidark-org/evidark/internal/adapter"
	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/controller"
	"github.com/evidark-org/evidark/internal/middleware"
	"github.com/evidark-org/evidark/internal/repository"
	"github.com/evidark-org/evidark/internal/scheduler"
	"github.com/evidark-org/evidark/internal/service"
	"github.com/evidark-org/evidark/internal/telemetry"
	"github.com/evidark-org/evidark/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// App holds the long-lived pieces main has to start and stop.
type App struct {
	Hub       *websocket.Hub
	Scheduler *scheduler.Scheduler
	Metrics   *telemetry.Metrics

	eventLimiter *config.RateLimiter
}

// Close releases background resources owned by the app.
func (a *App) Close() {
	a.eventLimiter.Stop()
}

func Init(appConfig *config.AppConfig, db *gorm.DB, redisAdapter *adapter.RedisAdapter, validator *validator.Validate, chiMux *chi.Mux) *App {
	repo := repository.NewRepository(db, redisAdapter)
	metrics := telemetry.NewMetrics()

	presenceService := service.NewPresenceService(repo)
	hub := websocket.NewHub(presenceService, metrics)

	identityService := service.NewIdentityService(repo)
	chatService := service.NewChatService(repo, validator, presenceService, hub)
	messageService := service.NewMessageService(repo, appConfig, validator, chatService, hub, metrics)

	eventLimiter := config.NewWSEventRateLimiter(appConfig)
	dispatcher := websocket.NewDispatcher(hub, chatService, messageService, eventLimiter, metrics)

	authMiddleware := middleware.NewAuthMiddleware(identityService, appConfig)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(repo.RateLimit, appConfig)

	chatController := controller.NewChatController(chatService)
	messageController := controller.NewMessageController(messageService)
	wsController := controller.NewWebSocketController(hub, dispatcher, identityService, appConfig)
	healthController := controller.NewHealthController(redisAdapter)

	route := NewRoute(appConfig, chiMux, metrics, authMiddleware, rateLimitMiddleware, chatController, messageController, wsController, healthController)
	route.Register()

	return &App{
		Hub:          hub,
		Scheduler:    scheduler.New(appConfig, presenceService, hub),
		Metrics:      metrics,
		eventLimiter: eventLimiter,
	}
}
