package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/egresados-intake/api/swagger"
	"github.com/noah-isme/egresados-intake/internal/handler"
	"github.com/noah-isme/egresados-intake/internal/repository"
	"github.com/noah-isme/egresados-intake/internal/service"
	"github.com/noah-isme/egresados-intake/internal/web"
	"github.com/noah-isme/egresados-intake/pkg/cache"
	"github.com/noah-isme/egresados-intake/pkg/config"
	"github.com/noah-isme/egresados-intake/pkg/database"
	"github.com/noah-isme/egresados-intake/pkg/jobs"
	"github.com/noah-isme/egresados-intake/pkg/logger"
	"github.com/noah-isme/egresados-intake/pkg/session"
	"github.com/noah-isme/egresados-intake/pkg/storage"
)

// @title CETIS 54 Egresados Intake
// @version 1.0.0
// @description Graduate-certificate request intake and review console
// @BasePath /
// @schemes http

func main() {
	if err := run(); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	switch command {
	case "serve":
		return serve(cfg, logr)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return migrate(cfg, logr, os.Args[2])
	default:
		return fmt.Errorf("unknown command: %s\navailable commands: serve, migrate", command)
	}
}

func migrate(cfg *config.Config, logr *zap.Logger, direction string) error {
	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, direction); err != nil {
		return err
	}
	version, dirty, err := database.MigrationVersion(db)
	if err != nil {
		return err
	}
	logr.Info("migrations applied", zap.String("direction", direction), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func serve(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logr.Info("database connected", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, "up"); err != nil {
			return err
		}
	}

	documents, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, status counts will not be cached", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	applications := repository.NewApplicationRepository(db)
	admins := repository.NewAdminRepository(db)

	registrar := service.NewRegistrarService(applications, documents, cacheSvc, metrics, validate, logr, service.RegistrarConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		StaleUploadAge:    cfg.Uploads.StaleAfter,
	})
	auth := service.NewAuthService(admins, metrics, validate, logr)
	review := service.NewReviewService(applications, documents, cacheSvc, metrics, logr)
	exports := service.NewExportService(applications, metrics, logr, service.ExportConfig{
		InstitutionName: cfg.Reports.InstitutionName,
		StatusColors:    cfg.Reports.StatusColors,
	}, nil, nil, nil)
	wizard := service.NewWizardService(cfg.Wizard.EnforceSequence)

	sessions := session.NewManager(session.Config{
		Secret:      cfg.Session.Secret,
		SessionTTL:  cfg.Session.TTL,
		ProgressTTL: cfg.Session.WizardTTL,
		Secure:      cfg.Session.CookieSecure,
	})

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Logger:    logr,
		Metrics:   metrics,
		Sessions:  sessions,
		Wizard:    wizard,
		Templates: tmpl,
		TLS:       cfg.Session.CookieSecure,
		Docs:      cfg.Env != config.EnvProduction,
	}, handler.Handlers{
		Intake:  handler.NewIntakeHandler(sessions, wizard, registrar, cfg.Uploads.MaxFileSizeBytes, logr),
		Auth:    handler.NewAuthHandler(sessions, auth),
		Admin:   handler.NewAdminHandler(sessions, review),
		Export:  handler.NewExportHandler(sessions, exports),
		Metrics: handler.NewMetricsHandler(metrics, db),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reconcileQueue *jobs.Queue
	if cfg.Reconcile.Enabled {
		reconciler := service.NewReconcileService(applications, documents, metrics, logr, cfg.Reconcile.GracePeriod)
		reconcileQueue = jobs.NewQueue("reconcile", reconciler.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 1, Logger: logr})
		reconcileQueue.Start(ctx)
		if err := reconcileQueue.Enqueue(jobs.Job{Type: service.ReconcileJobType}); err != nil {
			logr.Warn("initial reconcile sweep not queued", zap.Error(err))
		}
		if err := reconcileQueue.Every(cfg.Reconcile.Interval, service.ReconcileJobType, nil); err != nil {
			return fmt.Errorf("schedule reconcile sweep: %w", err)
		}
		logr.Info("orphan reconciliation scheduled", zap.Duration("interval", cfg.Reconcile.Interval), zap.Duration("grace", cfg.Reconcile.GracePeriod))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if reconcileQueue != nil {
		reconcileQueue.Stop()
	}
	logr.Info("server stopped gracefully")
	return nil
}
