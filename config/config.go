package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	MaxConcurrency int
	PolitenessMs   int
	MaxRetries     int
	TimeoutSec     int
	MaxPages       int
	PerPage        int

	CacheDir          string
	BrandFilter       string
	MarketID          string
	TestMode          bool
	PDFSupport        bool
	LowCountThreshold int
	Verbose           bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "ceni_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		PolitenessMs:   getEnvInt("POLITENESS_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		TimeoutSec:     getEnvInt("TIMEOUT_SEC", 15),
		MaxPages:       getEnvInt("MAX_PAGES", 100),
		PerPage:        getEnvInt("PER_PAGE", 100),

		CacheDir:          getEnv("CACHE_DIR", "./cache"),
		BrandFilter:       getEnv("BRAND", ""),
		MarketID:          getEnv("MARKET_ID", ""),
		TestMode:          getEnvBool("TEST_MODE", false),
		PDFSupport:        getEnvBool("PDF_SUPPORT", true),
		LowCountThreshold: getEnvInt("LOW_COUNT_THRESHOLD", 10),
		Verbose:           getEnvBool("VERBOSE", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
