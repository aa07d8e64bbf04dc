package app

import (
	"time"

	"github.com/kysclient/foodly-backend/internal/jobs"
	"github.com/kysclient/foodly-backend/internal/pkg/envutil"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	RedisAddr      string
	Worker         jobs.Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		JWTSecretKey:   envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RedisAddr:      envutil.Str("REDIS_ADDR", ""),
		Worker: jobs.Config{
			Concurrency:       envutil.Int("JOB_WORKER_CONCURRENCY", 4),
			PollInterval:      time.Duration(envutil.Int("JOB_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
			MaxAttempts:       envutil.Int("JOB_MAX_ATTEMPTS", 1),
			RetryDelay:        time.Duration(envutil.Int("JOB_RETRY_DELAY_SECONDS", 30)) * time.Second,
			StaleRunning:      time.Duration(envutil.Int("JOB_STALE_RUNNING_SECONDS", 120)) * time.Second,
			HeartbeatInterval: time.Duration(envutil.Int("JOB_HEARTBEAT_SECONDS", 15)) * time.Second,
		},
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using default (do not do this in production)")
	}
	return cfg
}
