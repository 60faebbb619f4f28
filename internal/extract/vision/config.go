package vision

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the vision client.
type Config struct {
	APIKey  string        // if empty, falls back to env VISION_API_KEY
	BaseURL string        // default https://vision.googleapis.com
	Timeout time.Duration // http client timeout
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("VISION_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://vision.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
