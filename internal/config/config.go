package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	EnvStage = "Stage"
	EnvLive  = "Live"
)

const (
	DefaultChunkSize    = 100
	DefaultPollInterval = 5 * time.Second
	MaxUploadBytes      = 10 * 1024 * 1024
)

var (
	envMu      sync.RWMutex
	currentEnv = EnvStage
)

func init() {
	if env := os.Getenv("PC_ENVIRONMENT"); env != "" {
		currentEnv = normalizeEnv(env)
	}
}

func normalizeEnv(env string) string {
	if env == EnvLive || env == "live" || env == "LIVE" {
		return EnvLive
	}
	return EnvStage
}

// Environment returns the active target environment tag (Stage or Live).
func Environment() string {
	envMu.RLock()
	defer envMu.RUnlock()
	return currentEnv
}

// SetEnvironment switches the active environment tag. Callers are expected to
// invalidate environment-scoped caches afterwards.
func SetEnvironment(env string) {
	envMu.Lock()
	defer envMu.Unlock()
	currentEnv = normalizeEnv(env)
}

// EnvironmentSwitchPassword gates the Stage/Live switch.
func EnvironmentSwitchPassword() string {
	return os.Getenv("PC_ENV_SWITCH_PASSWORD")
}

// ArtemisBaseURL is the base URL of the remote listing validator.
func ArtemisBaseURL() string {
	return os.Getenv("ARTEMIS_API_BASE_URL")
}

// ArtemisToken is the bearer token for the remote listing validator.
func ArtemisToken() string {
	return os.Getenv("ARTEMIS_API_TOKEN")
}

// ChunkSize is the batch writer commit size.
func ChunkSize() int {
	if v := os.Getenv("PC_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultChunkSize
}

// PollInterval is the reconciling poller tick interval.
func PollInterval() time.Duration {
	if v := os.Getenv("PC_POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return DefaultPollInterval
}

// InitDB opens the product checker database from DB_* environment variables.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_NAME", "product_checker"),
			getenv("DB_PORT", "5432"),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
