package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// background job intervals.
type Config struct {
    Env              string        // application environment (e.g. "dev", "prod")
    Port             string        // HTTP port to listen on
    DBUser           string        // database username
    DBPass           string        // database password (optional)
    DBHost           string        // database host address
    DBPort           string        // database port number
    DBName           string        // database name
    JWTSecret        string        // secret used to verify JWTs issued by the identity service
    AMQPURL          string        // RabbitMQ connection URL (empty disables event publishing)
    ReaperInterval   time.Duration // how often unpaid bookings are swept
    WaitlistInterval time.Duration // how often waitlist openings are advanced
    BirthdayInterval time.Duration // how often birthday bonuses are allocated
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),      // environment (dev/test/prod)
        Port:             must("APP_PORT"),     // port to bind the HTTP server
        DBUser:           must("DB_USER"),      // database user
        DBPass:           os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:           must("DB_HOST"),      // database host
        DBPort:           must("DB_PORT"),      // database port
        DBName:           must("DB_NAME"),      // database name
        JWTSecret:        must("JWT_SECRET"),   // secret used for verifying JWTs
        AMQPURL:          os.Getenv("AMQP_URL"),
        ReaperInterval:   minutes("REAPER_INTERVAL_MIN", 1),
        WaitlistInterval: minutes("WAITLIST_INTERVAL_MIN", 15),
        BirthdayInterval: minutes("BIRTHDAY_INTERVAL_MIN", 24*60),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// minutes reads an optional integer environment variable expressed in
// minutes, falling back to def when unset.  Invalid values are fatal.
func minutes(key string, def int) time.Duration {
    s, ok := os.LookupEnv(key)
    if !ok || s == "" {
        return time.Duration(def) * time.Minute
    }
    n, err := strconv.Atoi(s)
    if err != nil || n < 1 {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return time.Duration(n) * time.Minute
}
