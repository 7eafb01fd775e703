package main

import (
	"github.com/ReyPJ/syncserv/internal/handler"
	"github.com/ReyPJ/syncserv/internal/middleware"
	"github.com/ReyPJ/syncserv/internal/model"
	"github.com/ReyPJ/syncserv/pkg/config"
	"github.com/ReyPJ/syncserv/pkg/database"
	"github.com/ReyPJ/syncserv/pkg/jwtutil"
	"github.com/ReyPJ/syncserv/pkg/logger"
	"github.com/ReyPJ/syncserv/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("syncserv")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting sync service...", cfg.LogConfig()...)

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.Tenant{},
		&model.Cliente{},
		&model.Case{},
		&model.Invoice{},
		&model.InvoiceItem{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migrated")

	// Initialize JWT utility and handlers
	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	handler.Init(jwtUtil, cfg.IsProduction())

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.GET("/verify", handler.Verify)

	// Resource routes - all require a valid session token
	authRequired := middleware.JWTAuthMiddleware(jwtUtil)

	clientes := e.Group("/api/clientes", authRequired)
	clientes.GET("", handler.ListClientes)
	clientes.POST("", handler.CreateCliente)
	clientes.GET("/:id", handler.GetCliente)
	clientes.PUT("/:id", handler.UpsertCliente)
	clientes.DELETE("/:id", handler.DeleteCliente)

	cases := e.Group("/api/cases", authRequired)
	cases.GET("", handler.ListCases)
	cases.POST("", handler.CreateCase)
	cases.GET("/:id", handler.GetCase)
	cases.PUT("/:id", handler.UpsertCase)
	cases.DELETE("/:id", handler.DeleteCase)

	invoices := e.Group("/api/invoices", authRequired)
	invoices.GET("", handler.ListInvoices)
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("/:id", handler.GetInvoice)
	invoices.PUT("/:id", handler.UpsertInvoice)
	invoices.DELETE("/:id", handler.DeleteInvoice)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
