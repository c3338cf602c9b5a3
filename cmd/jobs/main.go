// The jobs binary runs the background sweeps: the payment deadline reaper,
// the waitlist scheduler and the birthday bonus grants.  It shares the
// engine and store with the API server but holds no HTTP surface, so it can
// be scaled and restarted independently.
package main

import (
    "context"
    "os"
    "os/signal"
    "sync"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/config"
    "github.com/courtclub/session-booking/internal/database"
    "github.com/courtclub/session-booking/internal/queue"
    "github.com/courtclub/session-booking/internal/repository"
)

func main() {
    _ = godotenv.Load()

    log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "booking-jobs").Logger()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatal().Err(err).Msg("database connection failed")
    }
    defer db.Close()

    store := repository.NewStore(db, log)
    clk := clock.NewSystem()

    var events booking.EventPublisher
    var notifier booking.Notifier
    if cfg.AMQPURL != "" {
        pub := queue.NewPublisher(cfg.AMQPURL, log)
        events = pub
        notifier = pub
    }

    lifecycle := booking.NewLifecycle(store, store, clk, events, log)
    reaper := booking.NewReaper(store, lifecycle, clk, log)
    waitlist := booking.NewWaitlist(store, store, clk, notifier, log)
    birthdays := booking.NewBirthdayGrants(store, store, clk, log)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    var wg sync.WaitGroup
    wg.Add(3)
    go func() {
        defer wg.Done()
        reaper.Run(ctx, cfg.ReaperInterval)
    }()
    go func() {
        defer wg.Done()
        waitlist.Run(ctx, cfg.WaitlistInterval)
    }()
    go func() {
        defer wg.Done()
        birthdays.Run(ctx, cfg.BirthdayInterval)
    }()

    log.Info().
        Dur("reaper_interval", cfg.ReaperInterval).
        Dur("waitlist_interval", cfg.WaitlistInterval).
        Dur("birthday_interval", cfg.BirthdayInterval).
        Msg("background jobs started")

    <-ctx.Done()
    log.Info().Msg("shutting down")
    wg.Wait()
}
