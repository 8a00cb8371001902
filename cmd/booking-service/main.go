package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cinema-booking/internal/auth"
	"cinema-booking/internal/booking"
	"cinema-booking/internal/booking/api"
	bookingdb "cinema-booking/internal/booking/db"
	"cinema-booking/internal/catalog"
	"cinema-booking/internal/config"
	"cinema-booking/internal/database/migrations"
	"cinema-booking/internal/kafka"
	"cinema-booking/internal/ledger"
	ledgerredis "cinema-booking/internal/ledger/redis"
	"cinema-booking/internal/logger"
	"cinema-booking/internal/tickets"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	// --- Postgres ---
	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("open postgres: %v", err))
	}
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("ping postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	log.Info("DATABASE", "Connected to Postgres")

	if cfg.Booking.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Booking.MigrationsDir)
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("run migrations: %v", err))
		}
		if version, _, err := runner.Version(); err == nil {
			log.Info("DATABASE", fmt.Sprintf("Schema version %d", version))
		}
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("connect redis: %v", err))
	}
	log.Info("REDIS", "Connected to Redis")

	// --- Kafka ---
	var producer booking.Publisher
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		for _, topic := range []string{kafka.TopicBookingPlaced, kafka.TopicSeatStatus} {
			if err := kafka.CreateTopicIfNotExists(cfg.Kafka.Brokers, topic); err != nil {
				log.Warn("KAFKA", fmt.Sprintf("ensure topic %s: %v", topic, err))
			}
		}
		producer = kafkaProducer
		log.Info("KAFKA", fmt.Sprintf("Producing to %v", cfg.Kafka.Brokers))
	} else {
		log.Warn("KAFKA", "Kafka disabled, booking events will not be published")
	}

	// --- Core wiring ---
	qrGen, err := tickets.NewQRGenerator(cfg.Auth.QRSecret)
	if err != nil {
		log.Fatal("TICKET", fmt.Sprintf("qr generator: %v", err))
	}

	store := catalog.NewStore(bunDB)
	seatLedger := ledger.New(bunDB)
	holds := ledgerredis.NewHolds(redisClient, cfg.Booking.SeatHoldTTL)
	service := booking.NewService(&bookingdb.DB{Bun: bunDB}, store, seatLedger, holds, producer, qrGen, log)
	handler := &api.Handler{Booking: service, Catalog: store, Logger: log}

	// --- Router ---
	r := chi.NewRouter()
	r.Get("/api/v1/showtimes", handler.GetShowtimes)
	r.Get("/api/v1/showings/{showingID}/seats", handler.GetOccupiedSeats)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		r.Post("/api/v1/bills", handler.PlaceBooking)
		r.Get("/api/v1/bills/{billID}", handler.GetBill)
		r.Post("/api/v1/tickets/{ticketID}/check-in", handler.CheckInTicket)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Booking service listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("http server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("forced shutdown: %v", err))
	}
	log.Info("SERVER", "Server exited gracefully")
}
