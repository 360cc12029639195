package router

import (
	"log/slog"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/elektrine/mailroute/internal/address"
	"github.com/elektrine/mailroute/internal/api/handlers"
	"github.com/elektrine/mailroute/internal/api/middleware"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/sender"
	"github.com/elektrine/mailroute/internal/smtp"
	"github.com/elektrine/mailroute/internal/storage"
	"github.com/elektrine/mailroute/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	FileStorage storage.FileStorage
	Domains     address.DomainSet
	Pipeline    *sender.Pipeline
	Inbound     *smtp.Backend
	Hub         *websocket.Hub
	Logger      *slog.Logger
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
	EnableAuth     bool     // Enable API key authentication
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	aliasRepo := repository.NewAliasRepository(cfg.DB)
	mailboxRepo := repository.NewMailboxRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB, cfg.FileStorage)

	// Routing engine and write-time guard share the same directories the
	// delivery path uses, so API-side validation and live resolution agree.
	engine := routing.NewEngine(cfg.Domains, aliasRepo, mailboxRepo)
	guard := routing.NewWriteTimeGuard(engine)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	mailboxHandler := handlers.NewMailboxHandler(mailboxRepo, guard)
	aliasHandler := handlers.NewAliasHandler(aliasRepo, messageRepo, guard)
	messageHandler := handlers.NewMessageHandler(messageRepo, mailboxRepo)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentRepo, messageRepo, cfg.FileStorage)
	resolveHandler := handlers.NewResolveHandler(engine)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// WebSocket route
	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Logger)
		e.GET("/ws", wsHandler.Serve)
	}

	// API routes
	api := e.Group("/api")

	// Apply API key authentication if enabled
	// Set API_KEY env var if provided in config
	if cfg.EnableAuth && cfg.APIKey != "" {
		os.Setenv("API_KEY", cfg.APIKey)
	}
	api.Use(middleware.APIKeyAuth(cfg.Logger))

	// Mailbox routes
	mailboxes := api.Group("/mailboxes")
	mailboxes.POST("", mailboxHandler.Create)
	mailboxes.POST("/random", mailboxHandler.CreateRandom)
	mailboxes.GET("", mailboxHandler.List)
	mailboxes.GET("/:id", mailboxHandler.Get)
	mailboxes.PUT("/:id/forwarding", mailboxHandler.UpdateForwarding)
	mailboxes.DELETE("/:id", mailboxHandler.Delete)

	// Alias routes
	aliases := api.Group("/aliases")
	aliases.POST("", aliasHandler.Create)
	aliases.GET("", aliasHandler.List)
	aliases.GET("/:id", aliasHandler.Get)
	aliases.PUT("/:id", aliasHandler.Update)
	aliases.DELETE("/:id", aliasHandler.Delete)

	// Message routes (nested under mailboxes)
	mailboxes.GET("/:mailbox_id/messages", messageHandler.List)

	// Message routes (standalone)
	messages := api.Group("/messages")
	messages.GET("/:id", messageHandler.Get)
	messages.PATCH("/:id/read", messageHandler.MarkAsRead)
	messages.DELETE("/:id", messageHandler.Delete)

	// Outbound send route
	if cfg.Pipeline != nil {
		sendHandler := handlers.NewSendHandler(cfg.Pipeline)
		messages.POST("/send", sendHandler.Send)
	}

	// Attachment routes (nested under messages)
	messages.GET("/:message_id/attachments", attachmentHandler.List)

	// Attachment routes (standalone)
	attachments := api.Group("/attachments")
	attachments.GET("/:id", attachmentHandler.Get)
	attachments.GET("/:id/download", attachmentHandler.Download)

	// Inbound webhook route, for provider-terminated SMTP
	if cfg.Inbound != nil {
		webhookHandler := handlers.NewWebhookHandler(cfg.Inbound)
		api.POST("/inbound", webhookHandler.Inbound)
	}

	// Resolution inspection route
	api.GET("/resolve", resolveHandler.Resolve)

	return e
}
