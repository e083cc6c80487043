package main

import (
	"timetracker-service/internal/handler"
	"timetracker-service/internal/middleware"
	"timetracker-service/pkg/config"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/jwtutil"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting time tracker service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire handlers to the database
	handler.Init(cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Timer lifecycle and entry queries
	entries := api.Group("/time-entries")
	entries.POST("", handler.StartTimer)
	entries.POST("/:id/stop", handler.StopTimer)
	entries.PUT("/:id", handler.UpdateEntry)
	entries.DELETE("/:id", handler.DeleteEntry)
	entries.GET("", handler.ListEntries)
	entries.GET("/user/:userId/running", handler.GetRunningEntry)

	// Projects and clients
	projects := api.Group("/projects")
	projects.POST("", handler.CreateProject)
	projects.GET("", handler.ListProjects)
	projects.PUT("/:id", handler.UpdateProject)

	clients := api.Group("/clients")
	clients.POST("", handler.CreateClient)
	clients.GET("", handler.ListClients)
	clients.PUT("/:id", handler.UpdateClient)

	// Reports
	api.GET("/reports/summary", handler.GetSummary)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.POST("/change-password", handler.ChangePassword)
	users.POST("", handler.CreateUser)

	// Company administration (root only)
	companies := api.Group("/companies")
	companies.POST("", handler.CreateCompany)
	companies.GET("", handler.ListCompanies)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
