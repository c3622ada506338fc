// The config package holds process-wide configuration sourced from the
// environment (a .env file is loaded by main before anything reads it).
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Verbose gates chatty logging across the process.
var Verbose bool

// Config carries the credentials and endpoints of the external
// collaborators. Empty sections disable the corresponding feature.
type Config struct {
	// Reasoning service backing the vision provider.
	VisionEndpoint string
	VisionAPIKey   string
	VisionModel    string

	// VMS backend.
	VMSBaseURL  string
	VMSUsername string
	VMSPassword string

	// Telegram job notifications.
	TelegramToken  string
	TelegramChatID int64

	// Optional postgres persistence.
	PostgresAddr     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
}

// LoadFromEnv reads the configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		VisionEndpoint: os.Getenv("VISION_ENDPOINT"),
		VisionAPIKey:   os.Getenv("VISION_API_KEY"),
		VisionModel:    os.Getenv("VISION_MODEL"),

		VMSBaseURL:  os.Getenv("VMS_BASE_URL"),
		VMSUsername: os.Getenv("VMS_USERNAME"),
		VMSPassword: os.Getenv("VMS_PASSWORD"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		PostgresAddr:     os.Getenv("POSTGRES_ADDR"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDatabase: os.Getenv("POSTGRES_DATABASE"),
	}

	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TELEGRAM_CHAT_ID '%s': %v", chat, err)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}
