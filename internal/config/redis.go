package config

// Redis backs the distributed rate limiter.  The client is optional: when no
// server is reachable at startup the constructor returns nil and the
// middleware lets requests through unthrottled.

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from environment variables.
// REDIS_ADDR is the host:port shorthand; REDIS_HOST/REDIS_PORT override it
// when both are set.  REDIS_PASSWORD, REDIS_DB and REDIS_TLS are optional.
// Returns nil when the server does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    db := 0
    if s := os.Getenv("REDIS_DB"); s != "" {
        if n, err := strconv.Atoi(s); err == nil {
            db = n
        }
    }

    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); v == "1" || strings.EqualFold(v, "true") {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        db,
        TLSConfig: tlsConf,
    })

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}
