package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and supporting services.
type Config struct {
	VerifyToken        string
	WhatsAppToken      string
	PhoneNumberID      string
	GraphBaseURL       string
	GoogleAPIKey       string
	GeminiBaseURL      string
	DatabasePath       string
	PlaceholderBaseURL string
	RequestTimeout     time.Duration
	Debug              bool
	Port               int
	AdminUsername      string
	AdminPassword      string
	S3Endpoint         string
	S3Region           string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3PublicBaseURL    string
	S3UsePathStyle     bool
	S3Prefix           string
}

// MirrorConfigured reports whether the optional S3 media mirror has enough
// configuration to be enabled.
func (c Config) MirrorConfigured() bool {
	return c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" &&
		c.S3Bucket != "" && c.S3PublicBaseURL != ""
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		VerifyToken:        getEnv("VERIFY_TOKEN", "imagegenie2024"),
		GraphBaseURL:       normalizeBaseURL(getEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v18.0")),
		GeminiBaseURL:      normalizeBaseURL(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		DatabasePath:       getEnv("DATABASE_PATH", "imagegenie.db"),
		PlaceholderBaseURL: normalizeBaseURL(getEnv("PLACEHOLDER_BASE_URL", "https://picsum.photos")),
		RequestTimeout:     time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 15)),
		Debug:              getBool("DEBUG_MODE", true),
		Port:               getInt("PORT", 5000),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", "change-me"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Region:           os.Getenv("S3_REGION"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:     getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:           getEnv("S3_PREFIX", "generations"),
	}

	cfg.WhatsAppToken = os.Getenv("WHATSAPP_TOKEN")
	cfg.PhoneNumberID = os.Getenv("PHONE_NUMBER_ID")
	// Without a Google key the enhancement step is skipped and the raw
	// prompt is used as-is.
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	var missing []string
	if cfg.WhatsAppToken == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}
	if cfg.PhoneNumberID == "" {
		missing = append(missing, "PHONE_NUMBER_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
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
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No env file is fine; everything can come from the process environment.
	return nil
}
