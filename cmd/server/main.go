package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elektrine/mailroute/internal/address"
	api "github.com/elektrine/mailroute/internal/api/router"
	"github.com/elektrine/mailroute/internal/config"
	"github.com/elektrine/mailroute/internal/database"
	seclog "github.com/elektrine/mailroute/internal/logger"
	"github.com/elektrine/mailroute/internal/repository"
	"github.com/elektrine/mailroute/internal/routing"
	"github.com/elektrine/mailroute/internal/sender"
	"github.com/elektrine/mailroute/internal/smtp"
	"github.com/elektrine/mailroute/internal/storage"
	"github.com/elektrine/mailroute/internal/websocket"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting mail routing server...")

	// Load configuration
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	cfg.LogConfig(logger)

	// Connect to database and migrate
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// File storage for attachments
	fileStorage, err := storage.NewLocalStorage(cfg.AttachmentStoragePath)
	if err != nil {
		slog.Error("failed to initialize file storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	aliasRepo := repository.NewAliasRepository(db)
	mailboxRepo := repository.NewMailboxRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Routing engine shared by the SMTP, API, and send paths
	domains := address.NewDomainSet(cfg.MailDomains...)
	engine := routing.NewEngine(domains, aliasRepo, mailboxRepo)
	inbound := routing.NewInboundRouteResolver(engine, aliasRepo)
	classifier := routing.NewOutboundRoutingClassifier(engine)

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Outbound pipeline: relay transport plus a per-sender sliding window
	pipeline := sender.NewPipeline(&sender.PipelineConfig{
		Classifier: classifier,
		Domains:    domains,
		Mailboxes:  mailboxRepo,
		Messages:   messageRepo,
		Transport:  sender.NewRelayTransport(cfg.OutboundRelayAddr),
		Gate:       sender.NewSlidingWindowGate(cfg.OutboundRateLimit, time.Minute),
		Hub:        hub,
		Logger:     logger,
	})

	// SMTP server
	backend := smtp.NewBackend(&smtp.BackendConfig{
		Engine:        engine,
		Inbound:       inbound,
		MailboxRepo:   mailboxRepo,
		MessageRepo:   messageRepo,
		FileStorage:   fileStorage,
		WSHub:         hub,
		Forwarder:     pipeline,
		AutoProvision: cfg.AutoProvisioningEnabled,
		Logger:        logger,
		Events:        seclog.NewSecurityLogger(),
	})

	smtpCfg := smtp.LoadServerConfigFromEnv()
	smtpCfg.Addr = fmt.Sprintf(":%d", cfg.SMTPPort)
	smtpServer := smtp.NewSecureServer(backend, smtpCfg)

	go func() {
		slog.Info("SMTP server listening", slog.String("addr", smtpCfg.Addr))
		if err := smtpServer.ListenAndServe(); err != nil {
			slog.Error("SMTP server stopped", slog.Any("error", err))
		}
	}()

	// HTTP API server
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	e := api.NewRouter(&api.RouterConfig{
		DB:             db,
		FileStorage:    fileStorage,
		Domains:        domains,
		Pipeline:       pipeline,
		Inbound:        backend,
		Hub:            hub,
		Logger:         logger,
		APIKey:         cfg.APIKey,
		AllowedOrigins: origins,
		RateLimit:      int(cfg.RateLimitRequests),
		RateBurst:      cfg.RateLimitBurst,
		EnableAuth:     cfg.APIKey != "",
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		slog.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", slog.Any("error", err))
	}
	if err := smtpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("SMTP shutdown error", slog.Any("error", err))
	}

	slog.Info("Server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
