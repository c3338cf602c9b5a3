package main // Entry point package

import (
    "os"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/config"
    "github.com/courtclub/session-booking/internal/database"
    "github.com/courtclub/session-booking/internal/handler"
    "github.com/courtclub/session-booking/internal/middleware"
    "github.com/courtclub/session-booking/internal/queue"
    "github.com/courtclub/session-booking/internal/repository"
    "github.com/courtclub/session-booking/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments set the environment directly

    log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "booking-api").Logger()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatal().Err(err).Msg("database connection failed")
    }
    defer db.Close()

    store := repository.NewStore(db, log)
    clk := clock.NewSystem()

    // The broker is optional: without AMQP_URL events are simply not
    // published and waitlist grants are only visible through the API.
    var events booking.EventPublisher
    var notifier booking.Notifier
    if cfg.AMQPURL != "" {
        pub := queue.NewPublisher(cfg.AMQPURL, log)
        events = pub
        notifier = pub
        go func() {
            if err := queue.StartConsumers(cfg.AMQPURL); err != nil {
                log.Error().Err(err).Msg("event consumer stopped")
            }
        }()
    }

    lifecycle := booking.NewLifecycle(store, store, clk, events, log)
    waitlist := booking.NewWaitlist(store, store, clk, notifier, log)

    handlers := router.Handlers{
        Session:  handler.NewSessionHandler(store, clk),
        Booking:  handler.NewBookingHandler(lifecycle, store),
        Payment:  handler.NewPaymentHandler(lifecycle),
        Waitlist: handler.NewWaitlistHandler(waitlist),
        Ticket:   handler.NewTicketHandler(store, booking.NewTicketLedger(store, log)),
    }

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())

    // Booking launches are stampedes; shed excess per-client load in Redis
    // before it reaches the database.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Warn().Msg("redis unavailable; rate limiting disabled")
    }
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e, handlers)
    router.RegisterMember(e, handlers, cfg.JWTSecret)
    router.RegisterOrganizer(e, handlers, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
    if err := e.Start(addr); err != nil {
        log.Fatal().Err(err).Msg("server stopped")
    }
}
