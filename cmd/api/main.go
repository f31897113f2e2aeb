package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/application/service"
	"github.com/pipecenter/pipecenter-api/internal/config"
	"github.com/pipecenter/pipecenter-api/internal/infrastructure/blob"
	"github.com/pipecenter/pipecenter-api/internal/infrastructure/repository"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/handler"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/routes"
	"github.com/pipecenter/pipecenter-api/pkg/pdf"
	"github.com/pipecenter/pipecenter-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := newLogger(&cfg.Log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage backend
	blobs, closeBlobs, err := blob.NewFromConfig(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Storage.Backend).Fatal("Failed to initialize storage backend")
	}
	defer func() {
		if err := closeBlobs(); err != nil {
			log.WithError(err).Warn("Failed to close storage backend")
		}
	}()
	if !blobs.Persistent() {
		log.Warn("Using in-memory storage: data will be lost on restart. Set BLOB_READ_WRITE_TOKEN or STORAGE_BACKEND for persistence")
	}
	if !cfg.Auth.SecretSet {
		log.Warn("AUTH_SECRET is not set, tokens are signed with the development secret")
	}
	if cfg.Auth.Username == "" || cfg.Auth.Password == "" {
		log.Warn("AUTH_USERNAME or AUTH_PASSWORD is not set, every login will be rejected")
	}

	// Initialize repositories
	ids := utils.NewIDGenerator(time.Now)
	store := repository.NewStore(blobs, log, time.Now)
	configRepo := repository.NewConfigurationRepository(store, ids)
	quotationRepo := repository.NewQuotationRepository(store, ids, cfg.Retention.RetentionWindow())

	// Initialize services
	jwtManager := utils.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.App.Name)
	authService, err := service.NewAuthService(&cfg.Auth, jwtManager)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize auth service")
	}
	renderer := pdf.NewRenderer(pdf.Company{
		Name:     cfg.Company.Name,
		Address:  cfg.Company.Address,
		Contact:  cfg.Company.Contact,
		GSTLabel: cfg.Company.GSTLabel,
	})
	configService := service.NewConfigurationService(configRepo)
	quotationService := service.NewQuotationService(quotationRepo, renderer)
	healthService := service.NewHealthService(cfg, blobs, time.Now)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Configuration: handler.NewConfigurationHandler(configService),
		Quotation:     handler.NewQuotationHandler(quotationService, time.Now),
		Health:        handler.NewHealthHandler(healthService),
	}

	loginLimiter := routes.NewLoginLimiter(&cfg.RateLimit)
	defer loginLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Verifier:     authService,
		Cfg:          cfg,
		Logger:       log,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.App.Port,
			"env":     cfg.App.Env,
			"storage": blobs.Name(),
		}).Infof("Starting %s server", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
