package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/memoralabs/memora/backend/handlers"
	"github.com/memoralabs/memora/backend/middleware"
	webmodels "github.com/memoralabs/memora/backend/models"
	webservices "github.com/memoralabs/memora/backend/services"
	"github.com/memoralabs/memora/memora"
	"github.com/memoralabs/memora/memora/audit"
	"github.com/memoralabs/memora/memora/claims"
	"github.com/memoralabs/memora/memora/database"
	"github.com/memoralabs/memora/memora/database/repositories"
	"github.com/memoralabs/memora/memora/logger"
	"github.com/memoralabs/memora/memora/services"
	"github.com/memoralabs/memora/memora/staff"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Initialize logger first
	customHandler := logger.NewHandler("Memora")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Memora API",
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("type", "sys"))

	cfg, err := memora.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("Connecting to databases...")
	db, err := database.New(ctx, cfg.Mongo, cfg.Postgres)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Databases connected successfully")

	// Initialize repositories
	repos := webmodels.NewRepositories(
		repositories.NewClaimRequestRepository(db.Mongo()),
		repositories.NewMemoryRepository(db.Mongo()),
		repositories.NewOrderRepository(db.Mongo()),
		repositories.NewStaffRepository(db.BunDB()),
		repositories.NewSecurityEventRepository(db.BunDB()),
	)

	// Initialize services
	spacesService := services.NewSpacesService(
		cfg.Spaces.Key,
		cfg.Spaces.Secret,
		cfg.Spaces.Region,
		cfg.Spaces.Bucket,
		cfg.Spaces.PhotoRoot,
	)
	previewService := services.NewPreviewImageService()
	nfcService := services.NewNFCService(cfg.Web.PublicBaseURL)
	sessionService := webservices.NewSessionService(cfg)

	// Claim redemption pipeline
	auditLogger := audit.NewLogger(repos.SecurityEvent)
	resolver := claims.NewTenantResolver(cfg.Tenants)
	processor := claims.NewProcessor(repos.ClaimRequest, repos.Memory, repos.Order, resolver, auditLogger)
	if cfg.Claims.LinkValidityHours > 0 {
		processor.SetLinkValidity(time.Duration(cfg.Claims.LinkValidityHours) * time.Hour)
	}

	// Initialize Fiber as API-only backend
	app := fiber.New(fiber.Config{
		AppName:      "Memora API",
		ServerHeader: "Memora",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Cookie",
		AllowCredentials: true,
	}))
	app.Use(middleware.LoggingMiddleware())

	webApp := &handlers.WebApp{
		Config:         cfg,
		DB:             db,
		Repos:          repos,
		SpacesService:  spacesService,
		PreviewService: previewService,
		NFCService:     nfcService,
		SessionService: sessionService,
		Processor:      processor,
		Audit:          auditLogger,
		Version:        version,
		Commit:         commit,
	}

	setupRoutes(app, webApp)

	address := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	slog.Info("Starting server", slog.String("address", address))

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-c
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	db.Close(shutdownCtx)

	slog.Info("Shutdown complete")
}

func allowedOrigins(cfg *memora.Config) string {
	if len(cfg.Web.AllowedOrigins) == 0 {
		return "http://localhost:3000"
	}
	origins := cfg.Web.AllowedOrigins[0]
	for _, o := range cfg.Web.AllowedOrigins[1:] {
		origins += "," + o
	}
	return origins
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Memora API",
			"version": webApp.Version,
			"status":  "running",
		})
	})

	// Staff authentication
	auth := app.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimit(), handlers.Login(webApp))
	auth.Post("/logout", handlers.Logout(webApp))
	app.Get("/api/auth/validate", handlers.ValidateSession(webApp))

	// Public customer-facing routes
	api := app.Group("/api")
	api.Post("/claims/decode", middleware.ClaimRateLimit(), handlers.DecodeClaimToken(webApp))
	api.Post("/claims/redeem", middleware.ClaimRateLimit(), handlers.RedeemClaim(webApp))
	api.Get("/pages/:pageID", handlers.PublicPage(webApp))

	// Customer authoring routes, authorized by the claim link token
	memories := api.Group("/memories")
	memories.Get("/", handlers.ListMyMemories(webApp))
	memories.Get("/:id", handlers.GetMemory(webApp))
	memories.Put("/:id", handlers.UpdateMemory(webApp))
	memories.Post("/:id/publish", handlers.PublishMemory(webApp))
	memories.Post("/:id/photos", middleware.UploadRateLimit(), handlers.UploadMemoryPhoto(webApp))

	// Staff CRM routes
	admin := app.Group("/admin/api")
	admin.Use(middleware.AuthRequired(webApp))

	admin.Get("/dashboard/stats", handlers.DashboardStatsAPI(webApp))

	orders := admin.Group("/orders")
	orders.Get("/", middleware.PermissionRequired(webApp, staff.PermViewOrders), handlers.OrdersAPI(webApp))
	orders.Get("/:id", middleware.PermissionRequired(webApp, staff.PermViewOrders), handlers.OrderDetail(webApp))
	orders.Post("/", middleware.PermissionRequired(webApp, staff.PermManageTenant), handlers.OrderCreate(webApp))
	orders.Post("/:id/claim-link", middleware.PermissionRequired(webApp, staff.PermEditMemories), middleware.AuditLogMiddleware("issue_claim_link"), handlers.IssueClaimLink(webApp))
	orders.Post("/:id/tag", middleware.PermissionRequired(webApp, staff.PermWriteTags), middleware.AuditLogMiddleware("write_tag_serial"), handlers.WriteTagSerial(webApp))
	orders.Get("/:id/tag-payload", middleware.PermissionRequired(webApp, staff.PermWriteTags), handlers.TagPayload(webApp))

	adminMemories := admin.Group("/memories")
	adminMemories.Get("/:id/preview", middleware.PermissionRequired(webApp, staff.PermEditMemories), handlers.MemoryPreview(webApp))
	adminMemories.Put("/:id/status", middleware.PermissionRequired(webApp, staff.PermEditMemories), middleware.AuditLogMiddleware("set_memory_status"), handlers.SetMemoryStatus(webApp))

	staffRoutes := admin.Group("/staff")
	staffRoutes.Get("/", middleware.PermissionRequired(webApp, staff.PermManageStaff), handlers.StaffList(webApp))
	staffRoutes.Post("/", middleware.PermissionRequired(webApp, staff.PermManageStaff), middleware.AuditLogMiddleware("upsert_staff"), handlers.StaffUpsert(webApp))

	admin.Get("/events", middleware.PermissionRequired(webApp, staff.PermManageTenant), handlers.SecurityEventsAPI(webApp))

	// Fallback for unmatched routes
	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return c.Status(404).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested endpoint does not exist",
		})
	})
}
