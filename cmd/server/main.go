package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/database"
	"github.com/iftf/duoverkoop/internal/logger"
	"github.com/iftf/duoverkoop/internal/mail"
	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/queue"
	"github.com/iftf/duoverkoop/internal/repository"
	"github.com/iftf/duoverkoop/internal/router"
	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/store/memory"
	"github.com/iftf/duoverkoop/internal/verification"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Info("redis disabled or unreachable: response cache and rate limiting are off")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	m := metrics.New()
	mailer := mail.New(cfg.Mail, log)
	var notifier service.Notifier = mailer
	if cfg.NotifyMode == config.NotifyQueue {
		notifier = queue.NewPublisher(cfg.RabbitMQURL, log)
		go func() {
			err := queue.StartConfirmationConsumer(ctx, cfg.RabbitMQURL, mailer.PurchaseConfirmed, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("confirmation consumer stopped", zap.Error(err))
			}
		}()
	}

	audit := service.NewAuditLog(st)
	catalog := service.NewCatalogService(st)
	if cfg.IsDev() && cfg.StoreDriver == config.StoreMemory {
		if err := catalog.SeedDev(ctx); err != nil {
			log.Fatal("seed dev catalog", zap.Error(err))
		}
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Store:     st,
		Redis:     rdb,
		Metrics:   m,
		Log:       log,
		Purchases: service.NewPurchaseService(st, audit,
			service.WithNotifier(notifier),
			service.WithMetrics(m),
			service.WithLogger(log),
			service.WithCodeGenerator(verification.NewGenerator(nil), cfg.CodeMaxAttempts),
		),
		Audit:    audit,
		Catalog:  catalog,
		Verify:   service.NewVerifyService(st, m),
		Exporter: service.NewExporter(st),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver), zap.String("notify", notifier.Channel()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

// openStore returns the configured store and a function releasing it.  The
// mysql driver applies the embedded schema on start.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store: data is lost on restart")
		return memory.New(), func() {}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewStore(db), func() { _ = db.Close() }, nil
}
