package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable for the pipeline and monitor binaries.
// It is populated once at startup and passed to each component by
// reference; no component reads the environment after Load returns.
type Config struct {
	LokiURL       string
	StreamURL     string
	ModelName     string
	ConfThreshold float64

	FrameStride int     // Process every Nth frame (12 = every 12th)
	DedupWindow int     // Suppression window, in sampled frames
	DedupMinIoU float64 // Boxes overlapping at least this much count as the same position
	InputSize   int     // Square model input resolution

	ArchiveDB string // SQLite archive path; empty disables the archive
	LiveAddr  string // Live view listen address; empty disables the server

	LogDirectory string

	// Monitor binary settings
	MonitorService      string
	RecordingsDir       string
	RetentionHours      int
	HealthInterval      int // seconds
	MaintenanceInterval int // seconds
}

// Load reads an optional .env file, then builds the Config from the
// environment with defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LokiURL:       getEnv("LOKI_URL", ""),
		StreamURL:     getEnv("STREAM_URL", ""),
		ModelName:     getEnv("MODEL_NAME", "yolo11n.onnx"),
		ConfThreshold: getEnvAsFloat("CONF_THRESHOLD", 0.6),

		FrameStride: getEnvAsInt("FRAME_STRIDE", 12),
		DedupWindow: getEnvAsInt("DEDUP_WINDOW", 5),
		DedupMinIoU: getEnvAsFloat("DEDUP_MIN_IOU", 0.45),
		InputSize:   getEnvAsInt("INPUT_SIZE", 640),

		ArchiveDB: getEnv("ARCHIVE_DB", ""),
		LiveAddr:  getEnv("LIVE_ADDR", ""),

		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		MonitorService:      getEnv("MONITOR_SERVICE", "mediamtx"),
		RecordingsDir:       getEnv("RECORDINGS_DIR", "/opt/recordings"),
		RetentionHours:      getEnvAsInt("RETENTION_HOURS", 24),
		HealthInterval:      getEnvAsInt("HEALTH_INTERVAL", 60),
		MaintenanceInterval: getEnvAsInt("MAINTENANCE_INTERVAL", 900),
	}
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.StreamURL == "" {
		return fmt.Errorf("STREAM_URL is required")
	}
	if c.LokiURL == "" {
		return fmt.Errorf("LOKI_URL is required")
	}
	if c.FrameStride < 1 {
		return fmt.Errorf("FRAME_STRIDE must be at least 1, got %d", c.FrameStride)
	}
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		return fmt.Errorf("CONF_THRESHOLD must be within [0,1], got %g", c.ConfThreshold)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
