package di

import (
	"devforge/backend/ai"
	"devforge/backend/internal/models"
	"devforge/backend/internal/service"
	"devforge/backend/internal/ws"
	"devforge/backend/pkg/cache"
	"devforge/backend/pkg/config"
	"devforge/backend/pkg/jwt"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/resilience"
	"devforge/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB             *gorm.DB
	Logger         *logger.Logger
	Redis          *redis.Client
	JWTService     *jwt.Service
	UserService    *service.UserService
	ProjectService *service.ProjectService
	MessageService *service.MessageService
	PaymentService *service.PaymentService
	AIClient       *ai.Client
	Dispatcher     *ws.Dispatcher
	AISender       models.MessageSender
}

// New creates a new dependency injection container from configuration
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	redisClient := redis.NewClient(redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry, redisClient)

	var projectCache *cache.Cache
	if cfg.Cache.Enabled {
		projectCache = cache.NewCache()
	}

	userService := service.NewUserService(db, jwtService)
	projectService := service.NewProjectService(db, projectCache)
	messageService := service.NewMessageService(db)
	paymentService := service.NewPaymentService(db, service.PaymentConfig{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
	})

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("completion-service"), log)
	aiClient, err := ai.NewClient(ai.Config{
		ServiceURL: cfg.AI.ServiceURL,
		APIKey:     cfg.AI.APIKey,
		Timeout:    cfg.AI.Timeout,
	}, breaker)
	if err != nil {
		return nil, err
	}

	aiSender := models.MessageSender{
		ID:    cfg.AI.UserID,
		Name:  cfg.AI.UserName,
		Email: cfg.AI.UserEmail,
	}

	dispatcher := ws.NewDispatcher(aiClient, messageService, ws.DispatcherConfig{
		Marker:   cfg.AI.Marker,
		Fallback: cfg.AI.Fallback,
		Identity: aiSender,
	}, log)

	return &Container{
		DB:             db,
		Logger:         log,
		Redis:          redisClient,
		JWTService:     jwtService,
		UserService:    userService,
		ProjectService: projectService,
		MessageService: messageService,
		PaymentService: paymentService,
		AIClient:       aiClient,
		Dispatcher:     dispatcher,
		AISender:       aiSender,
	}, nil
}
