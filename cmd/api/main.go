package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/idempotency"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/repository"
	"storefront/internal/routes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logrus.WithError(err).Error("storefront stopped")
		os.Exit(1)
	}
}

// run arma todo y sirve hasta que ctx se cancela; los defers siempre corren
func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			log.WithError(err).Warn("mongo disconnect")
		}
	}()

	db := client.Database(cfg.MongoDB)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	productRepo := repository.NewProductRepository(db.Collection(repository.ProductsCollection))
	accountRepo := repository.NewAccountRepository(db.Collection(repository.AccountsCollection))
	categoryRepo := repository.NewCategoryRepository(db.Collection(repository.CategoriesCollection))
	commentRepo := repository.NewCommentRepository(db.Collection(repository.CommentsCollection))
	blogRepo := repository.NewBlogRepository(db.Collection(repository.BlogsCollection))
	orderRepo := repository.NewOrderRepository(db.Collection(repository.OrdersCollection))

	catalogCache := cache.New(5*time.Minute, time.Minute)
	defer catalogCache.Close()

	m := metrics.New()

	checks := map[string]handlers.HealthCheck{
		"mongo": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}

	// Idempotencia del checkout: Redis si está configurado
	var guard orders.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		guard = idempotency.NewRedisGuard(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.WithField("addr", cfg.RedisAddr).Info("checkout idempotency backed by redis")
	} else {
		guard = idempotency.NewLocalGuard(idempotency.KeyTTL)
		log.Warn("REDIS_ADDR not set, checkout idempotency is per process")
	}

	var publisher events.Publisher = events.Noop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp, err := events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic)
		if err != nil {
			return fmt.Errorf("kafka client: %w", err)
		}
		publisher = kp
		log.WithField("topic", cfg.KafkaOrderTopic).Info("order events published to kafka")
	}
	defer publisher.Close()

	orderService := orders.NewService(orders.Deps{
		Products: productRepo,
		Orders:   orderRepo,
		Accounts: accountRepo,
		Guard:    guard,
		Events:   publisher,
		Metrics:  m,
		Cache:    catalogCache,
	})

	stripeWebhook := payments.NewStripeWebhook(cfg.StripeWebhookSecret)
	if !stripeWebhook.Enabled() {
		log.Info("STRIPE_WEBHOOK_SECRET not set, payment webhook disabled")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, 5)
	loginLimiter.StartCleanup(ctx, 10*time.Minute)

	router := routes.NewRouter(
		middleware.NewAuth(tokens, accountRepo),
		routes.Handlers{
			Auth:       handlers.NewAuthHandler(accountRepo, tokens),
			Accounts:   handlers.NewAccountHandler(accountRepo),
			Cart:       handlers.NewCartHandler(accountRepo, productRepo),
			Products:   handlers.NewProductHandler(productRepo, categoryRepo, catalogCache),
			Categories: handlers.NewCategoryHandler(categoryRepo, productRepo, catalogCache),
			Blogs:      handlers.NewBlogHandler(blogRepo, catalogCache),
			Comments:   handlers.NewCommentHandler(commentRepo, productRepo),
			Orders:     handlers.NewOrderHandler(orderService),
			Uploads:    handlers.NewUploadHandler(cfg.UploadDir, cfg.MaxUploadMB),
			Payments:   handlers.NewPaymentHandler(stripeWebhook, orderService),
			Health:     handlers.NewHealthHandler(checks),
		},
		routes.Options{
			Log:          log,
			Metrics:      m,
			Origins:      cfg.Origins(),
			LoginLimiter: loginLimiter,
			UploadDir:    cfg.UploadDir,
		},
	)
	router.MaxMultipartMemory = cfg.MaxUploadMB << 20

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
