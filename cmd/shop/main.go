package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/cli"
	"github.com/flicky/go-ecommerce-cli/internal/config"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/logger"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
	"github.com/flicky/go-ecommerce-cli/internal/repository/memory"
	"github.com/flicky/go-ecommerce-cli/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("shop stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		log.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// Storage
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
		log.Info("using in-memory storage")
	default:
		pool, err := openPostgres(ctx, cfg.DB, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = repository.NewStore(pool)
	}

	// Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to Redis: %w", err)
		}
		log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}
	productCache := cache.NewProductCache(redisClient, cfg.Redis.ProductTTL, log)

	// RabbitMQ
	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQ.Enabled() {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer ch.Close()

		if err := events.Setup(ch, cfg.RabbitMQ.Exchange); err != nil {
			return fmt.Errorf("setup RabbitMQ: %w", err)
		}
		publisher = events.NewAMQPPublisher(ch, cfg.RabbitMQ.Exchange)
		log.Info("connected to RabbitMQ", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	// Services
	svc := cli.Services{
		Auth: service.NewAuthService(store, productCache, publisher, log, service.AuthOptions{
			Secret:   cfg.Session.Secret,
			TTL:      cfg.Session.TTL,
			HashCost: cfg.Session.HashCost,
		}),
		Products: service.NewProductService(store, productCache, log),
		Carts:    service.NewCartService(store, log),
		Orders:   service.NewOrderService(store, productCache, publisher, log),
	}

	app := cli.New(svc, os.Stdin, os.Stdout, log)
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The read on stdin cannot be interrupted; leave it behind.
		fmt.Fprintln(os.Stdout, "\nInterrupted, bye!")
		return nil
	}
}

func openPostgres(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	if cfg.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return pool, nil
}
