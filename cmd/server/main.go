package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/schemaforge/backend/internal/application/services"
	"github.com/schemaforge/backend/internal/bootstrap"
	"github.com/schemaforge/backend/internal/infrastructure/database"
	"github.com/schemaforge/backend/internal/infrastructure/llm"
	"github.com/schemaforge/backend/internal/interfaces/middleware"
	"github.com/schemaforge/backend/internal/interfaces/rest"
	"github.com/schemaforge/backend/internal/observability"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("📄 Loaded environment from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	// Generation client. A missing API key is tolerated here; the generate
	// endpoint returns a configuration error until one is supplied.
	generator := llm.NewClient(llm.Config{
		BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:     os.Getenv("GENERATE_MODEL"),
		MaxTokens: envInt("GENERATE_MAX_TOKENS"),
		Timeout:   time.Duration(envInt("GENERATE_TIMEOUT_SECONDS")) * time.Second,
	})
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		log.Println("⚠️  ANTHROPIC_API_KEY not set, /api/generate will return 503")
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db, generator)
	log.Println("🔧 Service manager initialized")

	// Clear out session rows whose tokens can no longer authenticate
	if _, err := svcMgr.Auth.CleanupExpiredSessions(context.Background()); err != nil {
		log.Printf("⚠️  Warning: Failed to clean up expired sessions: %v", err)
	}

	// Create Gin router
	router := gin.Default()

	// CORS middleware - Allow credentials from any origin
	router.Use(middleware.Cors())
	router.Use(observability.RequestMetrics())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Prometheus metrics
	router.GET("/metrics", observability.MetricsHandler())

	// Debug/pprof endpoints for goroutine debugging
	// Access: http://localhost:3001/debug/pprof/
	debug := router.Group("/debug/pprof")
	{
		debug.GET("/goroutine", gin.WrapH(http.DefaultServeMux))
		debug.GET("/heap", gin.WrapH(http.DefaultServeMux))
		debug.GET("/profile", gin.WrapH(http.DefaultServeMux))
		debug.GET("/trace", gin.WrapH(http.DefaultServeMux))
	}

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	userHandler := rest.NewUserHandler(svcMgr)
	generateHandler := rest.NewGenerateHandler(svcMgr)
	usageHandler := rest.NewUsageHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()

	// API routes
	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)

			auth.POST("/register", requireAuth, requireAdmin, userHandler.Register)
			auth.GET("/users", requireAuth, requireAdmin, userHandler.GetUsers)
			auth.PUT("/users/:id/plan", requireAuth, requireAdmin, userHandler.ChangePlan)
		}

		api.POST("/generate", requireAuth, generateHandler.Generate)
		api.GET("/usage/me", requireAuth, usageHandler.GetMyUsage)
		api.GET("/plans", requireAuth, usageHandler.GetPlans)
	}

	// Start server
	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 SchemaForge Backend Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:         http://localhost:%s", port)
	log.Printf("🔐 Auth API:       http://localhost:%s/api/auth", port)
	log.Printf("🧠 Generate API:   http://localhost:%s/api/generate", port)
	log.Printf("📈 Metrics:        http://localhost:%s/metrics", port)
	log.Printf("💚 Health check:   http://localhost:%s/health\n", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default", key, v)
		return 0
	}
	return n
}
