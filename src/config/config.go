package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel string
	Port     string

	// Mail archive and parsed-order storage.
	DatabasePath string
	OrdersPath   string

	// IMAP download.
	IMAPHost            string
	IMAPUsername        string
	IMAPPassword        string
	IMAPFolders         []string
	IMAPSince           time.Time // zero means fetch everything
	IMAPFetchSize       int
	IMAPRequestInterval time.Duration

	// Reporting.
	OutputSince     time.Time // zero means no lower bound
	OutputUntil     time.Time // zero means no upper bound
	NormalizeTitles bool
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		DatabasePath: getEnv("DATABASE_PATH", "./walkermail.db"),
		OrdersPath:   getEnv("ORDERS_PATH", "./orders.json"),

		IMAPHost:            getEnv("IMAP_HOST", ""),
		IMAPUsername:        getEnv("IMAP_USERNAME", ""),
		IMAPPassword:        getEnv("IMAP_PASSWORD", ""),
		IMAPFolders:         getEnvAsList("IMAP_FOLDERS", "INBOX"),
		IMAPSince:           getEnvAsDate("IMAP_SINCE", time.Time{}),
		IMAPFetchSize:       getEnvAsInt("IMAP_FETCH_SIZE", 100),
		IMAPRequestInterval: getEnvAsDuration("IMAP_REQUEST_INTERVAL", time.Second),

		OutputSince:     getEnvAsDate("OUTPUT_SINCE", time.Time{}),
		OutputUntil:     getEnvAsDate("OUTPUT_UNTIL", time.Time{}),
		NormalizeTitles: getEnvAsBool("NORMALIZE_TITLES", false),
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, OrdersPath=%s, IMAPHost=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.OrdersPath, Cfg.IMAPHost)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsDate accepts either a date ("2006-01-02") or an RFC3339 timestamp.
func getEnvAsDate(key string, fallback time.Time) time.Time {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.Parse("2006-01-02", valueStr); err == nil {
		return value
	}
	if value, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return value
	}
	log.Printf("Invalid date value for %s ('%s'), using default: %s", key, valueStr, fallback)
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	valueStr := getEnv(key, fallback)
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
