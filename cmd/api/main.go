package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/lankapos/pos-backend/api/routes"
	authsvc "github.com/lankapos/pos-backend/internal/auth"
	"github.com/lankapos/pos-backend/internal/catalog"
	checkoutsvc "github.com/lankapos/pos-backend/internal/checkout"
	"github.com/lankapos/pos-backend/internal/discounts"
	"github.com/lankapos/pos-backend/internal/heldbills"
	"github.com/lankapos/pos-backend/internal/inventory"
	"github.com/lankapos/pos-backend/internal/loyalty"
	"github.com/lankapos/pos-backend/internal/payments"
	"github.com/lankapos/pos-backend/internal/sales"
	"github.com/lankapos/pos-backend/internal/scanner"
	"github.com/lankapos/pos-backend/internal/users"
	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/metrics"
	"github.com/lankapos/pos-backend/pkg/migrate"
	"github.com/lankapos/pos-backend/pkg/outbox"
	"github.com/lankapos/pos-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.Features.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	if err := checkReadiness(context.Background(), dbClient, redisClient); err != nil {
		logg.Error(context.Background(), "dependency readiness check failed", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	usersRepo := users.NewRepository(gormDB)
	usersSvc, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}
	authService, err := authsvc.NewService(usersRepo, redisClient, cfg.JWT)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}

	productRepo := catalog.NewProductRepository(gormDB)
	customerRepo := catalog.NewCustomerRepository(gormDB)
	catalogSvc, err := catalog.NewService(productRepo, customerRepo)
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}

	ruleRepo := discounts.NewRuleRepository(gormDB)
	discountSvc, err := discounts.NewService(ruleRepo)
	if err != nil {
		fatal(logg, "failed to create discount service", err)
	}
	ruleEngine, err := discounts.NewEngine(ruleRepo)
	if err != nil {
		fatal(logg, "failed to create discount engine", err)
	}

	loyaltySvc, err := loyalty.NewService(loyalty.NewRepository(gormDB), customerRepo, outboxSvc)
	if err != nil {
		fatal(logg, "failed to create loyalty service", err)
	}

	inventorySvc, err := inventory.NewService(dbClient, productRepo, inventory.NewLogRepository(gormDB), outboxSvc)
	if err != nil {
		fatal(logg, "failed to create inventory service", err)
	}

	salesSvc, err := sales.NewService(dbClient, sales.NewRepository(gormDB), inventorySvc, loyaltySvc, outboxSvc, posMetrics, logg)
	if err != nil {
		fatal(logg, "failed to create sales service", err)
	}

	heldBillSvc, err := heldbills.NewService(heldbills.NewRepository(gormDB))
	if err != nil {
		fatal(logg, "failed to create held bill service", err)
	}

	var gateway payments.Gateway
	if cfg.Stripe.APIKey != "" {
		client, err := payments.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			fatal(logg, "failed to create card gateway", err)
		}
		gateway = client
	}

	sessionManager := checkoutsvc.NewSessionManager(cfg.Store.DefaultCashier)
	checkoutService, err := checkoutsvc.NewService(
		sessionManager,
		catalogSvc,
		ruleEngine,
		loyaltySvc,
		heldBillSvc,
		salesSvc,
		gateway,
		posMetrics,
		logg,
		cfg.Checkout,
		cfg.Store,
	)
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}

	go sweepIdleSessions(context.Background(), logg, sessionManager, cfg.Checkout.SessionIdleTTL)

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Registry:  registry,
		Auth:      authService,
		Users:     usersSvc,
		Catalog:   catalogSvc,
		Discounts: discountSvc,
		Loyalty:   loyaltySvc,
		Inventory: inventorySvc,
		Sales:     salesSvc,
		HeldBills: heldBillSvc,
		Checkout:  checkoutService,
		Scanner:   scanner.NewPipeline(cfg.Scanner),
	})

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
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// sweepIdleSessions drops carts abandoned past the idle TTL so a terminal
// that went offline overnight comes back to a clean register.
func sweepIdleSessions(ctx context.Context, logg *logger.Logger, manager *checkoutsvc.SessionManager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if dropped := manager.SweepIdle(ttl); dropped > 0 {
			logg.Info(logg.WithField(ctx, "dropped", dropped), "swept idle cart sessions")
		}
	}
}

// checkReadiness pings every hard dependency up front so a misconfigured
// terminal fails at boot with one combined error instead of on first request.
func checkReadiness(ctx context.Context, database *db.Client, cache *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var err error
	if pingErr := database.Ping(ctx); pingErr != nil {
		err = multierr.Append(err, fmt.Errorf("database: %w", pingErr))
	}
	if pingErr := cache.Ping(ctx); pingErr != nil {
		err = multierr.Append(err, fmt.Errorf("redis: %w", pingErr))
	}
	return err
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
