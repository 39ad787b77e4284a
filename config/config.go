// Package config loads server configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port          int
	DatabasePath  string
	DrainInterval time.Duration
	TelegramToken string
	LogLevel      string
}

// Load reads the configuration. A missing .env file is fine; values
// then come from the process environment or the defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		DatabasePath:  getEnv("DATABASE_PATH", "vacation.db"),
		DrainInterval: getEnvAsDuration("NOTIFY_DRAIN_INTERVAL", 30*time.Second),
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}
