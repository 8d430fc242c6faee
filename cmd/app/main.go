package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/auth"
	"github.com/Domenick1991/busbooking/internal/bootstrap"
	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/logging"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/catalog"
	"github.com/Domenick1991/busbooking/internal/service/feedback"
	"github.com/Domenick1991/busbooking/internal/service/payment"
	"github.com/Domenick1991/busbooking/internal/service/tickets"
	"github.com/Domenick1991/busbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	bootLogger := logging.New(os.Stderr, config.LogConfig{})
	cfgPath, err := config.PathFromArgs("app", os.Args[1:])
	if err != nil {
		bootLogger.Error("parse flags", "error", err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log)
	gin.SetMode(gin.ReleaseMode)

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

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Error("migrate", "error", err)
			os.Exit(1)
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL())
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, running without cache", "error", err)
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	events := kafka.NewEventPublisher(producer, cfg.Kafka.BookingTopic, cfg.Kafka.NotificationsTopic, cfg.Kafka.PublishRetries)

	routeRepo := repository.NewRouteRepository(pool)
	busRepo := repository.NewBusRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	catalogService := catalog.NewCatalogService(routeRepo, busRepo, bookingRepo, redisCache, loc, logger)
	bookingService := booking.NewBookingService(bookingRepo, busRepo, userRepo, redisCache, events, loc,
		cfg.Booking.HoldTTL(), logger, booking.WithSeatLockTTL(cfg.Booking.SeatLockTTL()))
	paymentService := payment.NewPaymentService(bookingRepo, paymentRepo, userRepo, events, logger)
	ticketsService := tickets.NewTicketsService(bookingRepo, paymentRepo, loc, logger)
	usersService := users.NewUsersService(userRepo, tokens, logger)
	feedbackService := feedback.NewFeedbackService(repository.NewComplaintRepository(pool), repository.NewRefundRepository(pool), bookingRepo, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Tokens:         tokens,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, api.Handlers{
		Bookings: api.NewBookingHandler(catalogService, bookingService, loc),
		Payments: api.NewPaymentHandler(bookingService, paymentService),
		Tickets:  api.NewTicketsHandler(ticketsService, bookingService),
		Users:    api.NewUsersHandler(usersService),
		Feedback: api.NewFeedbackHandler(feedbackService),
		Admin:    api.NewAdminHandler(catalogService, bookingService, paymentService, usersService, feedbackService),
	})

	if err := bootstrap.Run(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
