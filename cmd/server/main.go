package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lineup-social/backend/internal/auth"
	"github.com/lineup-social/backend/internal/cache"
	"github.com/lineup-social/backend/internal/config"
	"github.com/lineup-social/backend/internal/database"
	"github.com/lineup-social/backend/internal/handlers"
	"github.com/lineup-social/backend/internal/logger"
	"github.com/lineup-social/backend/internal/middleware"
	"github.com/lineup-social/backend/internal/realtime"
	"github.com/lineup-social/backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("LineUp backend starting", zap.String("port", cfg.Port))

	db, err := database.Connect(cfg, cfg.LogLevel == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis backs rate limiting and the feed response cache. The server runs
	// without it; those middlewares degrade to pass-through.
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting and response caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	authService := auth.NewService(db, []byte(cfg.JWTSecret))

	h := handlers.NewHandlers(db, authService)

	// Object storage is optional in development
	if cfg.AWSBucket != "" {
		s3Storage, err := storage.NewS3Storage(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		if err := s3Storage.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed, uploads will fail", zap.Error(err))
		}
		h.SetStorage(s3Storage)
	} else {
		logger.Log.Warn("AWS_BUCKET not set, uploads disabled")
	}

	// Realtime hub for websocket delivery
	hub := realtime.NewHub()
	go hub.Run()
	rtHandler := realtime.NewHandler(hub, authService, db)
	rtHandler.RegisterDefaultHandlers()
	h.SetRealtimeHandler(rtHandler)

	router := buildRouter(cfg, db, redisClient, authService, h, rtHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rtHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown incomplete", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Forced shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func buildRouter(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *cache.RedisClient,
	authService *auth.Service,
	h *handlers.Handlers,
	rtHandler *realtime.Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.GinLogger())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(db); err != nil {
			logger.Log.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unavailable",
				"timestamp": time.Now().UTC(),
				"service":   "lineup-backend",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "lineup-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimit(redisClient, 300, time.Minute))

	// Public auth routes get a tighter limit
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RedisRateLimit(redisClient, 20, time.Minute))
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	authed := api.Group("")
	authed.Use(authService.Middleware())
	{
		// Engagement counters are rebuilt from raw rows on every request,
		// so the feed must never sit behind the response cache.
		authed.GET("/feed", h.GetFeed)

		authed.GET("/comments", h.GetComments)

		posts := authed.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/comments", h.CreateComment)
			posts.POST("/:id/like", h.LikePost)
			posts.DELETE("/:id/like", h.UnlikePost)
			posts.POST("/:id/bookmark", h.BookmarkPost)
			posts.DELETE("/:id/bookmark", h.UnbookmarkPost)
		}
		authed.GET("/bookmarks", h.GetBookmarks)

		users := authed.Group("/users")
		{
			users.GET("/me", h.GetMe)
			users.PUT("/me", h.UpdateMe)
			users.POST("/me/avatar", h.UploadProfilePicture)
			users.GET("/search", h.SearchUsers)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/posts", h.GetUserPosts)
		}

		uploads := authed.Group("/uploads")
		{
			uploads.POST("/presign", h.PresignAttachment)
		}

		connections := authed.Group("/connections")
		{
			connections.POST("", h.RequestConnection)
			connections.GET("", h.GetConnections)
			connections.GET("/pending", h.GetPendingConnections)
			connections.PUT("/:id", h.RespondToConnection)
			connections.DELETE("/:id", h.RemoveConnection)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", h.GetNotifications)
			notifications.PUT("/:id/read", h.MarkNotificationRead)
			notifications.PUT("/read-all", h.MarkAllNotificationsRead)
		}

		conversations := authed.Group("/conversations")
		{
			conversations.POST("", h.StartConversation)
			conversations.GET("", h.GetConversations)
			conversations.POST("/:id/messages", h.SendMessage)
			conversations.GET("/:id/messages", h.GetMessages)
		}

		services := authed.Group("/services")
		{
			services.POST("", h.CreateServiceListing)
			services.GET("", middleware.ResponseCache(redisClient, 30*time.Second), h.GetServiceListings)
			services.PUT("/:id", h.UpdateServiceListing)
			services.DELETE("/:id", h.DeleteServiceListing)
		}

		ws := authed.Group("/ws")
		{
			ws.GET("/metrics", rtHandler.HandleMetrics)
			ws.POST("/online", rtHandler.HandleOnlineStatus)
		}
	}

	// WebSocket upgrade authenticates itself via ?token= or the
	// Authorization header, so it sits outside the middleware chain
	api.GET("/ws", rtHandler.HandleWebSocket)

	admin := api.Group("/admin")
	admin.Use(authService.Middleware(), middleware.RequireAdmin(db))
	{
		admin.GET("/ws/metrics", rtHandler.HandleMetrics)
	}

	return r
}
