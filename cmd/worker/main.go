package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/email"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/logging"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	bootLogger := logging.New(os.Stderr, config.LogConfig{})
	cfgPath, err := config.PathFromArgs("worker", os.Args[1:])
	if err != nil {
		bootLogger.Error("parse flags", "error", err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Booking.Location()
	if err != nil {
		logger.Error("load timezone", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	events := kafka.NewEventPublisher(producer, cfg.Kafka.BookingTopic, cfg.Kafka.NotificationsTopic, cfg.Kafka.PublishRetries)
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL())

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewBusRepository(pool),
		repository.NewUserRepository(pool),
		redisCache,
		events,
		loc,
		cfg.Booking.HoldTTL(),
		logger,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	emailSender := email.NewSender(cfg.SMTP, logger)

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			logger.Error("consumer stopped", "error", err)
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpireStale(ctx)
			if err != nil {
				logger.Error("expire bookings", "error", err)
				continue
			}
			if len(expired) > 0 {
				logger.Info("expired bookings", "count", len(expired))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
