package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ChannelSecret      string
	ChannelAccessToken string

	GeminiAPIKey string
	MapsAPIKey   string

	// Optional Google Drive pair used once at startup to provision the
	// medicine dataset. Both must be set for the download to run.
	DriveCredentialsJSON string
	DriveFileID          string

	BaseURL string
	Port    string
	DataDir string
}

func Load() (*Config, error) {
	// .env is optional — env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	cfg := &Config{
		ChannelSecret:        os.Getenv("LINE_CHANNEL_SECRET"),
		ChannelAccessToken:   os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		MapsAPIKey:           os.Getenv("GOOGLE_MAP_API_KEY"),
		DriveCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		DriveFileID:          os.Getenv("GOOGLE_DRIVE_FILE_ID"),
		BaseURL:              os.Getenv("BASE_URL"),
		Port:                 os.Getenv("PORT"),
		DataDir:              os.Getenv("DATA_DIR"),
	}

	if cfg.Port == "" {
		cfg.Port = "7860"
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	for _, req := range []struct {
		name, val string
	}{
		{"LINE_CHANNEL_SECRET", cfg.ChannelSecret},
		{"LINE_CHANNEL_ACCESS_TOKEN", cfg.ChannelAccessToken},
		{"GEMINI_API_KEY", cfg.GeminiAPIKey},
		{"GOOGLE_MAP_API_KEY", cfg.MapsAPIKey},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("required env var %s is not set", req.name)
		}
	}

	return cfg, nil
}
