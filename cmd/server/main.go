package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/stock-reservation/internal/config"
	"github.com/iliyamo/stock-reservation/internal/database"
	"github.com/iliyamo/stock-reservation/internal/handler"
	"github.com/iliyamo/stock-reservation/internal/middleware"
	"github.com/iliyamo/stock-reservation/internal/queue"
	"github.com/iliyamo/stock-reservation/internal/repository"
	"github.com/iliyamo/stock-reservation/internal/router"
	"github.com/iliyamo/stock-reservation/internal/scheduler"
	"github.com/iliyamo/stock-reservation/internal/seed"
	"github.com/iliyamo/stock-reservation/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	productRepo := repository.NewProductRepo(db)
	reservationRepo := repository.NewReservationRepo(db, productRepo)

	if err := seed.Products(ctx, productRepo); err != nil {
		log.Printf("seed: %v", err)
	}

	// With a broker configured, expirations ride RabbitMQ's TTL +
	// dead-letter queues; without one they run on in-process timers.
	// Either way the recovery scan below re-derives anything pending
	// from the persisted expiration timestamps.
	var (
		sched service.ExpiryScheduler
		svc   *service.ReservationService
	)
	if cfg.AMQPURL != "" {
		sched = queue.NewPublisher(cfg.AMQPURL)
	} else {
		sched = scheduler.NewTimer(func(ctx context.Context, id uint64) error {
			return svc.ExpireReservation(ctx, id)
		})
	}
	svc = service.NewReservationService(productRepo, reservationRepo, sched, cfg.HoldTTL)

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartExpireConsumer(cfg.AMQPURL, svc); err != nil {
				log.Printf("expire-consumer: %v", err)
			}
		}()
	}
	if err := svc.RecoverPendingExpirations(ctx); err != nil {
		log.Printf("recovery: %v", err)
	}

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e, handler.NewProductHandler(svc), handler.NewReservationHandler(svc), cacheMW, limitMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, hold_ttl=%s)", addr, cfg.Env, cfg.HoldTTL)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
