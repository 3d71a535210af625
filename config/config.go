package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort       string
	LogLevel         string
	CacheTTLMinutes  string
	ChampionshipURL  string
	RoundURL         string
	ScoreboardAPIURL string
}

// GetCacheTTL returns the championship cache TTL from environment or the
// 15 minute default.
func (c *Config) GetCacheTTL() time.Duration {
	if c.CacheTTLMinutes == "" {
		return 15 * time.Minute
	}

	minutes, err := strconv.Atoi(c.CacheTTLMinutes)
	if err != nil {
		logrus.Warnf("Invalid CACHE_TTL_MINUTES value: %s, using default 15 minutes", c.CacheTTLMinutes)
		return 15 * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}

// GetLogLevel parses the configured logrus level, defaulting to info.
func (c *Config) GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		return logrus.InfoLevel
	}
	return level
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CacheTTLMinutes:  getEnv("CACHE_TTL_MINUTES", "15"),
		ChampionshipURL:  getEnv("CHAMPIONSHIP_URL", ""),
		RoundURL:         getEnv("ROUND_URL", ""),
		ScoreboardAPIURL: getEnv("SCOREBOARD_API_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
