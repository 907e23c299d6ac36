// Package config loads client configuration from the environment. A .env
// file next to the binary is honored when present. Everything has a default:
// the storefront must start with zero configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL  string        // MEETFLIX_API_URL
	UserID      int           // MEETFLIX_USER_ID, used only to prefill checkout
	HTTPTimeout time.Duration // MEETFLIX_HTTP_TIMEOUT_SEC
	Debug       bool          // MEETFLIX_DEBUG enables the file log
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIBaseURL:  getenv("MEETFLIX_API_URL", ""),
		UserID:      getenvInt("MEETFLIX_USER_ID", 0),
		HTTPTimeout: time.Duration(getenvInt("MEETFLIX_HTTP_TIMEOUT_SEC", 12)) * time.Second,
		Debug:       getenvBool("MEETFLIX_DEBUG"),
	}
}

func getenv(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
