// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"securebank/pkg/db" // Import db package for its Config struct
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort         string
	LogLevel           string
	StorageBackend     string
	StorageDir         string
	DB                 db.Config
	RedisURL           string
	RedisPrefix        string
	PasswordHashing    string
	NotificationTTL    time.Duration
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_BACKEND", BackendFile)
	v.SetDefault("STORAGE_DIR", "data")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "securebank")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_PREFIX", "securebank")
	v.SetDefault("PASSWORD_HASHING", "plain")
	v.SetDefault("NOTIFICATION_TTL", "3s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	backend := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND")))
	switch backend {
	case BackendMemory, BackendFile, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", backend)
	}

	dbPort := v.GetInt("DB_PORT")
	if dbPort <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT: %q", v.GetString("DB_PORT"))
	}

	ttl, err := time.ParseDuration(v.GetString("NOTIFICATION_TTL"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid NOTIFICATION_TTL %q", v.GetString("NOTIFICATION_TTL"))
	}

	var origins []string
	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &AppConfig{
		ServerPort:     v.GetString("SERVER_PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		StorageBackend: backend,
		StorageDir:     v.GetString("STORAGE_DIR"),
		DB: db.Config{
			Host:     v.GetString("DB_HOST"),
			Port:     dbPort,
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		RedisURL:           v.GetString("REDIS_URL"),
		RedisPrefix:        v.GetString("REDIS_PREFIX"),
		PasswordHashing:    v.GetString("PASSWORD_HASHING"),
		NotificationTTL:    ttl,
		CORSAllowedOrigins: origins,
	}, nil
}
