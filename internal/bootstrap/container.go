package bootstrap

import (
	"context"
	"log"

	"ai-roleplay-be/internal/config"
	"ai-roleplay-be/internal/controller"
	"ai-roleplay-be/internal/handler"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/memory"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/internal/service"
	"ai-roleplay-be/internal/websocket"
	"ai-roleplay-be/pkg/embedding"

	pktNats "ai-roleplay-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	CharacterController controller.ICharacterController
	LoreController      controller.ILoreController
	BackendController   controller.IBackendController
	ChatController      controller.IChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Streaming fan-out
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus for the async embedding worker
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider for lore retrieval
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// In-memory controller registry; generation state lives here between
	// requests
	registry := memory.NewControllerRegistry()

	// 2.5 Infrastructure
	// NATS carries the durable chat session log
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis fans stream events out across instances
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub on its own log file; delta flushes are too chatty for
	// the main log
	wsLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.EmbedLoreTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, cfg, sysLogger, natsPub)
	characterService := service.NewCharacterService(uowFactory, sysLogger)
	loreService := service.NewLoreService(uowFactory, pubSub, cfg.Ai.EmbedLoreTopic, embeddingProvider, sysLogger)
	backendService := service.NewBackendConfigService(uowFactory, cfg, sysLogger)

	chatService := service.NewChatService(
		uowFactory,
		registry,
		backendService,
		wsHub,
		natsPub,
		embeddingProvider,
		sysLogger,
	)

	streamHandler := handler.NewStreamHandler(chatService, wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		AuthController:      controller.NewAuthController(authService),
		CharacterController: controller.NewCharacterController(characterService),
		LoreController:      controller.NewLoreController(loreService),
		BackendController:   controller.NewBackendController(backendService),
		ChatController:      controller.NewChatController(chatService),

		ConsumerService: consumerService,

		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,
	}
}
