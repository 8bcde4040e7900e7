package bootstrap

import (
	"chat-portal/internal/config"
	"chat-portal/internal/controller"
	"chat-portal/internal/pkg/logger"
	"chat-portal/internal/repository/memory"
	"chat-portal/internal/service"
	"chat-portal/internal/websocket"
	"chat-portal/pkg/backend"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	PageController   controller.IPageController
	ChatController   controller.IChatController
	FileController   controller.IFileController
	StreamController controller.IStreamController

	// Shared infrastructure
	SessionService service.ISessionService
	WebSocketHub   *websocket.Hub
	Logger         logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Session storage + adapter
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL)
	sessionService := service.NewSessionService(sessionRepo, cfg.Session.Secret, cfg.Session.TTL)

	// 3. Backend gateway
	backendClient := backend.NewClient(cfg.Backend.APIURL, sysLogger)

	// 4. WebSocket hub for the chat event stream
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 5. Services
	authService := service.NewAuthService(backendClient, sessionService, sysLogger)
	chatService := service.NewChatService(backendClient, sysLogger)

	// 6. Controllers
	return &Container{
		AuthController:   controller.NewAuthController(authService, cfg.Session.TTL),
		PageController:   controller.NewPageController(chatService, cfg.Backend.PublicAPIURL),
		ChatController:   controller.NewChatController(chatService),
		FileController:   controller.NewFileController(chatService),
		StreamController: controller.NewStreamController(chatService, wsHub),

		SessionService: sessionService,
		WebSocketHub:   wsHub,
		Logger:         sysLogger,
	}
}
