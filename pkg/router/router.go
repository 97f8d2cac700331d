package router

import (
	"context"
	"time"

	"devforge/backend/internal/api"
	"devforge/backend/internal/ws"
	"devforge/backend/pkg/config"
	"devforge/backend/pkg/di"
	"devforge/backend/pkg/errors"
	"devforge/backend/pkg/health"
	"devforge/backend/pkg/logger"
	"devforge/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.New()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Assign request IDs before anything logs
	engine.Use(middleware.RequestIDMiddleware())

	// Use the logger middleware to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Create rate limiter with configured limits
	limiterOpts := middleware.DefaultRateLimiterOptions()
	if cfg.Security.RateLimit > 0 {
		limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
		limiterOpts.Burst = cfg.Security.RateLimitBurst
	}
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)

	// Apply rate limiting to all routes
	engine.Use(rateLimiter.Middleware())

	// Initialize the chat hub against the persisted message store
	hub := ws.NewHub(container.MessageService, container.Dispatcher, container.Logger)

	// Start the hub
	go hub.Run()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	// Create JWT auth middleware
	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Container.JWTService, r.Logger)
	userHandler := api.NewUserHandler(r.Container.UserService, r.Logger)
	projectHandler := api.NewProjectHandler(r.Container.ProjectService, r.Logger)
	messageHandler := api.NewMessageHandler(
		r.Container.MessageService,
		r.Container.ProjectService,
		r.Container.AISender,
		r.Logger,
	)
	paymentHandler := api.NewPaymentHandler(r.Container.PaymentService, r.Container.UserService, r.Logger)
	oauthHandler := api.NewOAuthHandler(r.Container.UserService, api.OAuthConfig{
		GoogleClientID:     r.Config.OAuth.GoogleClientID,
		GoogleClientSecret: r.Config.OAuth.GoogleClientSecret,
		GithubClientID:     r.Config.OAuth.GithubClientID,
		GithubClientSecret: r.Config.OAuth.GithubClientSecret,
		CallbackBaseURL:    r.Config.OAuth.CallbackBaseURL,
		FrontendURL:        r.Config.Server.FrontendURL,
	}, r.Logger)

	// Health and metrics endpoints
	r.setupHealthRoutes()
	r.Engine.GET("/health/components", gin.WrapF(r.startHealthChecker().HTTPHandler()))
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// OAuth routes live outside /api, the providers redirect back to them
	oauthHandler.RegisterRoutes(r.Engine)

	apiRoutes := r.Engine.Group("/api")

	// Auth routes
	authRoutes := apiRoutes.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", jwtAuth, authHandler.Logout)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	// Protected routes (require authentication)
	protectedRoutes := apiRoutes.Group("/")
	protectedRoutes.Use(jwtAuth)
	{
		userHandler.RegisterRoutes(protectedRoutes)
		projectHandler.RegisterRoutes(protectedRoutes)
		messageHandler.RegisterRoutes(protectedRoutes)
		paymentHandler.RegisterRoutes(protectedRoutes)
	}

	// WebSocket route. The handler authenticates and authorizes before
	// upgrading, so no jwtAuth middleware here.
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, r.Container.JWTService, r.Container.ProjectService, c)
	})
}

// startHealthChecker wires the periodic component checker against the
// container's database and revocation store.
func (r *Router) startHealthChecker() *health.Checker {
	checker := health.NewChecker(r.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return r.Container.DB.Exec("SELECT 1").Error
	})
	checker.RegisterRedisCheck(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return r.Container.Redis.Ping(ctx)
	})
	checker.Start()
	return checker
}

// corsMiddleware allows the configured frontend origins, plus the headers
// a websocket upgrade through a proxy needs.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowedSet[origin]; ok || len(allowedSet) == 0 {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
