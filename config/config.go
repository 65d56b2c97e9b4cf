package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects all runtime settings read from the environment.
type Config struct {
	Port        string
	StoreDriver string // "mysql" or "memory"

	HoldTTL       time.Duration
	SweepInterval time.Duration

	RedisAddr string
	AMQPURL   string
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envMinutes(key string, def int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(def) * time.Minute
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("warning: invalid %s=%q, using default %d", key, raw, def)
		return time.Duration(def) * time.Minute
	}
	return time.Duration(n) * time.Minute
}

func envSeconds(key string, def int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(def) * time.Second
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("warning: invalid %s=%q, using default %d", key, raw, def)
		return time.Duration(def) * time.Second
	}
	return time.Duration(n) * time.Second
}

// Load reads the configuration from environment variables.
func Load() Config {
	return Config{
		Port:        envOrDefault("PORT", "8080"),
		StoreDriver: strings.ToLower(envOrDefault("STORE_DRIVER", "mysql")),

		HoldTTL:       envMinutes("HOLD_TTL_MINUTES", 15),
		SweepInterval: envSeconds("SWEEP_INTERVAL_SECONDS", 0),

		RedisAddr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		AMQPURL:   strings.TrimSpace(os.Getenv("AMQP_URL")),
	}
}
