package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/handler"
	"mahabharata-landing/internal/middleware"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/internal/waitlist"
	"mahabharata-landing/pkg/logger"
	"mahabharata-landing/pkg/telemetry"
)

const (
	notifyRetryCount = 3
	notifyRetryDelay = 2 * time.Second
	cleanupInterval  = time.Hour
)

func main() {
	// Create .env from .env.example if not exists
	if err := ensureEnvFile(); err != nil {
		log.Printf("Warning: Failed to create .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.Server.LogLevel)
	appLogger.Info("Starting Mahabharata landing service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	tp, err := telemetry.InitProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to flush traces", "error", err)
		}
	}()

	// Outbound HTTP client shared by the gateway clients
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("Failed to create cookie jar: %v", err)
	}
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Jar:       jar,
	}

	orderClient := gateway.NewOrderClient(cfg.Gateway.CreateOrderURL,
		gateway.WithHTTPClient(httpClient),
		gateway.WithTimeout(cfg.Gateway.Timeout),
	)
	statusClient := gateway.NewStatusClient(cfg.Gateway.StatusURL,
		gateway.WithHTTPClient(httpClient),
		gateway.WithTimeout(cfg.Gateway.Timeout),
	)
	waitlistClient := waitlist.NewClient(cfg.Waitlist.URL, cfg.Waitlist.Timeout,
		&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	)

	// Initialize order store
	orderRepo, err := repository.NewOrderRepository(cfg.Storage.OrderDBPath)
	if err != nil {
		appLogger.Error("Failed to open order store", "error", err)
		log.Fatalf("Failed to open order store: %v", err)
	}
	defer orderRepo.Close()

	// Initialize notifications
	var (
		notifier     service.Notifier = service.NopNotifier{}
		groupLister  handler.GroupLister
		connReporter handler.ConnectionReporter
	)
	if cfg.Notify.Enabled {
		whatsappNotifier, err := service.NewWhatsAppNotifier(&cfg.Notify, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize WhatsApp notifier", "error", err)
			log.Fatalf("Failed to initialize WhatsApp notifier: %v", err)
		}
		if err := whatsappNotifier.Connect(ctx); err != nil {
			appLogger.Error("Failed to connect to WhatsApp", "error", err)
			log.Fatalf("Failed to connect to WhatsApp: %v\nPlease scan QR code first", err)
		}
		defer whatsappNotifier.Disconnect()

		notifier = service.NewRetryingNotifier(whatsappNotifier, notifyRetryCount, notifyRetryDelay, appLogger)
		groupLister = whatsappNotifier
		connReporter = whatsappNotifier
	}

	// Initialize services
	contributionService := service.NewContributionService(orderClient, orderRepo, cfg, appLogger)
	statusPoller := service.NewStatusPoller(statusClient, orderRepo, notifier, cfg, appLogger)
	waitlistService := service.NewWaitlistService(waitlistClient, notifier, appLogger)

	go contributionService.RunCleanup(ctx, cleanupInterval)
	go statusPoller.Run(ctx, cfg.Polling.Sweep)

	// Setup HTTP routes
	router := handler.NewRouter(handler.Routes{
		Health:        handler.NewHealthHandler(contributionService, connReporter, cfg, appLogger),
		Contributions: handler.NewContributionHandler(contributionService, statusPoller, appLogger),
		Waitlist:      handler.NewWaitlistHandler(waitlistService, appLogger),
		Orders:        handler.NewOrdersHandler(contributionService, appLogger),
		Groups:        handler.NewGroupsHandler(groupLister, appLogger),
		Auth:          middleware.NewAuthMiddleware(cfg.Security.APIKey, appLogger),
	}, cfg.Server.CORSAllowedOrigins, appLogger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, cfg.Telemetry.ServiceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: statusPoller.MaxWait() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("Mahabharata landing service started successfully",
		"address", addr,
		"notifications_enabled", cfg.Notify.Enabled,
	)

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		appLogger.Error("HTTP server error", "error", err)
	}

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		return
	}

	appLogger.Info("Server stopped gracefully")
}

// ensureEnvFile creates .env from .env.example if .env doesn't exist
func ensureEnvFile() error {
	if _, err := os.Stat(".env"); err == nil {
		return nil
	}

	if _, err := os.Stat(".env.example"); os.IsNotExist(err) {
		return fmt.Errorf(".env.example not found")
	}

	source, err := os.Open(".env.example")
	if err != nil {
		return fmt.Errorf("failed to open .env.example: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(".env")
	if err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("failed to copy .env.example to .env: %w", err)
	}

	log.Println("Created .env file from .env.example")
	return nil
}
