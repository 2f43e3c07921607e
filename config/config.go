package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/SainiAdi-04/Task-Manager/logging"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	MongoURI         string
	MongoDBName      string
	JWTSecret        string
	AdminInviteToken string
	ClientURL        string
	UploadDir        string
	LogFile          string
	LogLevel         string
	NATSURL          string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Infof("Event ID: ENV_FILE_SKIPPED, Description: No .env file loaded: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults and checking required keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:             get("PORT", "5000"),
		MongoURI:         get("MONGO_URI", ""),
		MongoDBName:      get("MONGO_DB_NAME", "task_manager"),
		JWTSecret:        get("JWT_SECRET", ""),
		AdminInviteToken: get("ADMIN_INVITE_TOKEN", ""),
		ClientURL:        get("CLIENT_URL", "*"),
		UploadDir:        get("UPLOAD_DIR", "uploads"),
		LogFile:          get("LOG_FILE", "logs/task-manager.log"),
		LogLevel:         get("LOG_LEVEL", "info"),
		NATSURL:          get("NATS_URL", ""),
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AllowedOrigins splits CLIENT_URL on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ClientURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
