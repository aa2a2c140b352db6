// Package server contains HTTP and WebSocket handlers for the MindBridge API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "mindbridge/docs" // swagger docs
	"mindbridge/internal/cache"
	"mindbridge/internal/config"
	"mindbridge/internal/database"
	"mindbridge/internal/featureflags"
	"mindbridge/internal/middleware"
	"mindbridge/internal/models"
	"mindbridge/internal/notifications"
	"mindbridge/internal/repository"
	"mindbridge/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	circleRepo       repository.CircleRepository
	postRepo         repository.PostRepository
	journalRepo      repository.JournalRepository
	moodRepo         repository.MoodRepository
	notificationRepo repository.NotificationRepository

	circleService *service.CircleService
	moodService   *service.MoodService

	notifier *notifications.Notifier
	hub      *notifications.Hub
	flags    *featureflags.Manager

	// googleTokenInfoURL is swapped out in tests to avoid real network calls.
	googleTokenInfoURL string
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	prom := middleware.InitMetrics("mindbridge-api")

	server := &Server{
		config:             cfg,
		db:                 db,
		redis:              redisClient,
		promMiddleware:     prom,
		userRepo:           repository.NewUserRepository(db),
		circleRepo:         repository.NewCircleRepository(db),
		postRepo:           repository.NewPostRepository(db),
		journalRepo:        repository.NewJournalRepository(db),
		moodRepo:           repository.NewMoodRepository(db),
		notificationRepo:   repository.NewNotificationRepository(db),
		flags:              featureflags.NewManager(cfg.FeatureFlags),
		googleTokenInfoURL: defaultGoogleTokenInfoURL,
	}
	server.circleService = service.NewCircleService(server.circleRepo, server)
	server.moodService = service.NewMoodService(server.moodRepo)

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub(redisClient)
	} else {
		// Single-instance fallback: local fan-out still works without Redis.
		server.hub = notifications.NewHub()
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses. AllowCredentials is required for the session cookie.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "MindBridge Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/google", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "google_login"), s.GoogleLogin)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	// Everything below requires a session
	protected := api.Group("", middleware.AuthRequired)

	// Profile setup + uploads
	upload := protected.Group("/upload")
	upload.Get("/signature", s.UploadSignature)
	upload.Patch("/complete-setup", s.CompleteSetup)

	// Circle routes. Specific /admin and /:id/:action routes go before the
	// generic /:id route.
	circles := protected.Group("/circles")
	circles.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "create_circle"), s.CreateCircle)
	circles.Get("/", s.GetTopCircles)
	circles.Get("/mine", s.GetMyCircles)
	circles.Get("/admin/pending-requests", s.GetPendingJoinRequests)
	circles.Post("/:id/join", s.JoinCircle)
	circles.Post("/:id/leave", s.LeaveCircle)
	circles.Post("/:id/promote", s.PromoteMember)
	circles.Post("/:id/demote", s.DemoteMember)
	circles.Post("/:id/remove-member", s.RemoveCircleMember)
	circles.Post("/:id/request-action", s.ActOnJoinRequest)
	circles.Get("/:id", s.GetCircle)

	// Post routes
	posts := protected.Group("/posts")
	posts.Get("/circle/:circleId", s.GetCirclePosts)
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/comment", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/comments", s.GetComments)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)
	posts.Get("/:id", s.GetPost)

	// Journal routes
	journals := protected.Group("/journals")
	journals.Get("/", s.GetJournals)
	journals.Get("/recent", s.GetRecentJournals)
	journals.Post("/", s.CreateJournal)
	journals.Delete("/:id", s.DeleteJournal)

	// Mood routes
	mood := protected.Group("/mood")
	mood.Post("/sync", s.SyncMood)
	mood.Get("/history", s.GetMoodHistory)

	// Notification routes
	nots := protected.Group("/notifications")
	nots.Get("/", s.GetNotifications)
	nots.Post("/:id/read", s.MarkNotificationRead)
	nots.Post("/read-all", s.MarkAllNotificationsRead)

	// Websocket endpoint. The session cookie authenticates the handshake.
	api.Get("/ws", middleware.WebSocketAuthRequired, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "MindBridge",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "MindBridge API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
