package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkingiwoods/sokohub-backend/api/routes"
	cartsvc "github.com/inkingiwoods/sokohub-backend/internal/cart"
	deliverysvc "github.com/inkingiwoods/sokohub-backend/internal/delivery"
	"github.com/inkingiwoods/sokohub-backend/internal/inventory"
	"github.com/inkingiwoods/sokohub-backend/internal/notifications"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/internal/users"
	"github.com/inkingiwoods/sokohub-backend/internal/webhooks"
	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/db"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
	"github.com/inkingiwoods/sokohub-backend/pkg/metrics"
	"github.com/inkingiwoods/sokohub-backend/pkg/migrate"
	"github.com/inkingiwoods/sokohub-backend/pkg/redis"
	pkgstripe "github.com/inkingiwoods/sokohub-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to initialize stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, checkout and webhooks disabled")
	}

	registry := prometheus.NewRegistry()
	payMetrics := metrics.NewPaymentMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	orderRepo := ordersvc.NewRepository(conn)
	purchaseRepo := payments.NewRepository(conn)
	purchaseLogRepo := payments.NewLogRepository(conn)
	deliveryRepo := deliverysvc.NewRepository(conn)
	webhookRepo := webhooks.NewRepository(conn)

	userService, err := users.NewService(userRepo, cfg.JWT)
	exitOn(logg, "users service", err)

	cartService, err := cartsvc.NewService(redisClient, cfg.Checkout.CartTTL)
	exitOn(logg, "cart service", err)

	deliveryService, err := deliverysvc.NewService(deliveryRepo)
	exitOn(logg, "delivery service", err)

	orderService, err := ordersvc.NewService(orderRepo, inventoryRepo, userRepo, dbClient, deliveryService, cfg.Checkout)
	exitOn(logg, "orders service", err)

	inventoryService, err := inventory.NewService(inventoryRepo)
	exitOn(logg, "inventory service", err)

	mailer := notifications.NewMailer(cfg.Mail)
	notifier, err := notifications.NewService(mailer, userRepo, logg)
	exitOn(logg, "notifications service", err)

	engine, err := payments.NewEngine(purchaseRepo, purchaseLogRepo, orderRepo, inventoryService, dbClient, notifier, payMetrics, logg)
	exitOn(logg, "payment engine", err)

	checkoutService, err := payments.NewCheckoutService(orderRepo, payments.NewStripeClient(stripeClient), cfg.Stripe, cfg.Checkout, logg)
	exitOn(logg, "checkout service", err)

	webhookService, err := webhooks.NewService(webhookRepo, engine, stripeClient, redisClient, nil, payMetrics, logg)
	exitOn(logg, "webhook service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Users:    userService,
			Cart:     cartService,
			Orders:   orderService,
			Delivery: deliveryService,
			Checkout: checkoutService,
			Engine:   engine,
			Webhooks: webhookService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOn(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
