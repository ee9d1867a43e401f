package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Store drivers
const (
	StoreJSON     = "json"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

const (
	DefaultPort           = "8080"
	DefaultCardsFile      = "cards.json"
	DefaultBoltFile       = "cards.db"
	DefaultFetchTimeout   = 30 * time.Second
	DefaultRefreshWorkers = 1
	DefaultDetailsURL     = "https://mp-search-api.tcgplayer.com/v1/product/%d/details"
	DefaultSalesURL       = "https://mpapi.tcgplayer.com/v2/product/%d/latestsales?mpfev=4622"
)

// Config holds everything read from the environment
type Config struct {
	Port     string
	LogLevel string

	StoreDriver string
	CardsFile   string
	BoltFile    string
	DatabaseURL string

	DetailsURL     string
	SalesURL       string
	FetchTimeout   time.Duration
	RefreshWorkers int

	SkipInitialRefresh bool
}

// LoadEnv loads variables from a .env file if there is one
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env file not found or cannot be loaded: %v", err)
		return
	}
	log.Info(".env file loaded.")
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func Load() Config {
	cfg := Config{
		Port:               getEnv("PORT", DefaultPort),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StoreDriver:        strings.ToLower(getEnv("CARD_STORE", StoreJSON)),
		CardsFile:          getEnv("CARDS_FILE", DefaultCardsFile),
		BoltFile:           getEnv("BOLT_FILE", DefaultBoltFile),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DetailsURL:         getEnv("TCGPLAYER_DETAILS_URL", DefaultDetailsURL),
		SalesURL:           getEnv("TCGPLAYER_SALES_URL", DefaultSalesURL),
		FetchTimeout:       getDuration("FETCH_TIMEOUT", DefaultFetchTimeout),
		RefreshWorkers:     getInt("REFRESH_WORKERS", DefaultRefreshWorkers),
		SkipInitialRefresh: getBool("SKIP_INITIAL_REFRESH", true),
	}

	if cfg.DatabaseURL == "" && os.Getenv("DB_HOST") != "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			getEnv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
		)
	}

	if cfg.RefreshWorkers < 1 {
		log.Warnf("REFRESH_WORKERS must be at least 1, using %d", DefaultRefreshWorkers)
		cfg.RefreshWorkers = DefaultRefreshWorkers
	}

	return cfg
}

// Logging configures the global logger
func Logging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
