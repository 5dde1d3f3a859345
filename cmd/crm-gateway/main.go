// cmd/crm-gateway/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"crm-gateway/internal/api"
	"crm-gateway/internal/common/auth"
	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/common/observability"
	"crm-gateway/internal/common/salesforce"
	"crm-gateway/internal/handlers/contact"
	customerservice "crm-gateway/internal/handlers/customer-service"
	scriptcase "crm-gateway/internal/handlers/script-case"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	zapLog.Info("Starting crm gateway...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	// The session is established lazily on the first CRM call or readiness check.
	session, err := auth.NewSession(cfg.Salesforce, log)
	if err != nil {
		zapLog.Fatal("salesforce session setup failed", zap.Error(err))
	}
	crm := salesforce.NewClient(session, cfg.Salesforce, obs, log)

	contactHandler, err := contact.NewHandler(contact.HandlerOptions{
		AppConfig: cfg,
		Remote:    crm,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create contact handler", zap.Error(err))
	}

	customerServiceHandler, err := customerservice.NewHandler(customerservice.HandlerOptions{
		AppConfig: cfg,
		Remote:    crm,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create customer service handler", zap.Error(err))
	}

	scriptCaseHandler, err := scriptcase.NewHandler(scriptcase.HandlerOptions{
		AppConfig: cfg,
		Remote:    crm,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create script case handler", zap.Error(err))
	}

	router := api.NewRouter(api.RouterOptions{
		Logger:             log,
		Ready:              crm,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Handlers: []api.RouteRegistrar{
			contactHandler,
			customerServiceHandler,
			scriptCaseHandler,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("CRM gateway stopped gracefully")
}
