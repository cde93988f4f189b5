package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DB     DBConfig
	JWT    JWTConfig
	Server ServerConfig
	Upload UploadConfig
}

type DBConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port   string
	WebDir string
}

type UploadConfig struct {
	Root         string
	MaxFileSize  int64
	AllowedTypes []string
}

func Load() *Config {
	// missing .env files are fine; env vars win either way
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "gallery.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gallery"),
			Password: getEnv("DB_PASSWORD", "gallery_secret"),
			Name:     getEnv("DB_NAME", "gallery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port:   getEnv("SERVER_PORT", "3000"),
			WebDir: getEnv("WEB_DIR", "web"),
		},
		Upload: UploadConfig{
			Root:         getEnv("UPLOAD_ROOT", "uploads"),
			MaxFileSize:  getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024),
			AllowedTypes: getEnvAsList("UPLOAD_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/gif", "image/webp"}),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		cleaned := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return fallback
}
