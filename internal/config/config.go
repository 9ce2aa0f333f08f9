package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr           string
	DBPath               string
	LogLevel             string
	LogFile              string
	DefaultLowStockLevel int64
	DefaultOverdueDays   int64
}

func Load() *Config {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	return &Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		DBPath:               getEnv("DB_PATH", "/data/vestiaire.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
		DefaultLowStockLevel: getEnvInt("DEFAULT_LOW_STOCK_THRESHOLD", 5),
		DefaultOverdueDays:   getEnvInt("DEFAULT_OVERDUE_DAYS", 30),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int64) int64 {
	if val, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}
