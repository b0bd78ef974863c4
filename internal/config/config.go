package config

import (
	"errors"
	"fmt"
	"os"
	"salarymap/internal/engine"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Data        DataConfig
	Cache       CacheConfig
	Layout      engine.Options
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CorsOrigins     []string
	RateLimit       float64 // requests per second per client, 0 disables
}

// DataConfig locates the startup inputs
type DataConfig struct {
	SalariesPath  string
	IncomesPath   string
	GeographyPath string
}

// CacheConfig bounds the computed view cache
type CacheConfig struct {
	Views int
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	layout := engine.DefaultOptions()
	layout.MapWidth = getEnvAsFloat("MAP_WIDTH", layout.MapWidth)
	layout.MapHeight = getEnvAsFloat("MAP_HEIGHT", layout.MapHeight)
	layout.HistogramBins = getEnvAsInt("HISTOGRAM_BINS", layout.HistogramBins)
	layout.Histogram.Width = getEnvAsFloat("HISTOGRAM_WIDTH", layout.Histogram.Width)
	layout.Histogram.Height = getEnvAsFloat("HISTOGRAM_HEIGHT", layout.Histogram.Height)
	layout.Histogram.Y = getEnvAsFloat("HISTOGRAM_Y", layout.Histogram.Y)
	layout.Histogram.AxisMargin = getEnvAsFloat("HISTOGRAM_AXIS_MARGIN", layout.Histogram.AxisMargin)
	layout.Histogram.BottomMargin = getEnvAsFloat("HISTOGRAM_BOTTOM_MARGIN", layout.Histogram.BottomMargin)
	layout.Zoom.National = getEnvAsFloat("ZOOM_NATIONAL", layout.Zoom.National)
	layout.Zoom.State = getEnvAsFloat("ZOOM_STATE", layout.Zoom.State)
	layout.LowQuantile = getEnvAsFloat("COLOR_LOW_QUANTILE", layout.LowQuantile)
	layout.HighQuantile = getEnvAsFloat("COLOR_HIGH_QUANTILE", layout.HighQuantile)

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			RateLimit:       getEnvAsFloat("SERVER_RATE_LIMIT", 50),
		},
		Data: DataConfig{
			SalariesPath:  getEnv("DATA_SALARIES", "data/h1bs.csv"),
			IncomesPath:   getEnv("DATA_INCOMES", "data/county-median-incomes.json"),
			GeographyPath: getEnv("DATA_GEOGRAPHY", "data/us-states.json"),
		},
		Cache: CacheConfig{
			Views: getEnvAsInt("CACHE_VIEWS", 256),
		},
		Layout: layout,
	}

	return config, validate(config)
}

// Address is the listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Paths returns the loader inputs.
func (c Config) Paths() engine.Paths {
	return engine.Paths{
		Salaries:  c.Data.SalariesPath,
		Incomes:   c.Data.IncomesPath,
		Geography: c.Data.GeographyPath,
	}
}

// Level maps LogLevel onto the logger's levels.
func (c Config) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// validate checks if config is valid
func validate(config Config) error {
	l := config.Layout
	if l.HistogramBins < 1 {
		return fmt.Errorf("histogram bins must be positive, got %d", l.HistogramBins)
	}
	if l.MapWidth <= 0 || l.MapHeight <= 0 {
		return fmt.Errorf("map size must be positive, got %gx%g", l.MapWidth, l.MapHeight)
	}
	if l.Histogram.Width <= l.Histogram.AxisMargin {
		return fmt.Errorf("histogram width %g leaves no room past axis margin %g", l.Histogram.Width, l.Histogram.AxisMargin)
	}
	if !(0 <= l.LowQuantile && l.LowQuantile < l.HighQuantile && l.HighQuantile <= 1) {
		return fmt.Errorf("color quantiles must satisfy 0 <= low < high <= 1, got %g and %g", l.LowQuantile, l.HighQuantile)
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Data.SalariesPath == "" || config.Data.IncomesPath == "" {
		return fmt.Errorf("salaries and incomes paths must be set")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
