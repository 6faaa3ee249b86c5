package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	AdminUserID      int64
	RegistryPath     string
	RedisURL         string

	CoinMarketCapAPIKey string
	BscScanAPIKey       string
	HTTPAPIKey          string

	QuoteCacheTTLSecs int
	RateRefreshSecs   int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:            os.Getenv("REDIS_URL"),
		CoinMarketCapAPIKey: os.Getenv("COIN_MARKET_CAP_API_KEY"),
		BscScanAPIKey:       os.Getenv("BSC_SCAN_API_KEY"),
		HTTPAPIKey:          os.Getenv("API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, fiat rate mirror disabled")
	}
	if cfg.CoinMarketCapAPIKey == "" {
		log.Println("Warning: COIN_MARKET_CAP_API_KEY not set")
	}
	if cfg.BscScanAPIKey == "" {
		log.Println("Warning: BSC_SCAN_API_KEY not set, balance lookups will fail")
	}

	if v := strings.TrimSpace(os.Getenv("ADMIN_USER_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.AdminUserID = n
		} else {
			log.Printf("Warning: invalid ADMIN_USER_ID=%q, admin commands disabled", v)
		}
	}

	cfg.RegistryPath = strings.TrimSpace(os.Getenv("REGISTRY_PATH"))
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = "ccr.json"
	}

	cfg.QuoteCacheTTLSecs = 60
	if v := strings.TrimSpace(os.Getenv("QUOTE_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuoteCacheTTLSecs = n
		}
	}

	cfg.RateRefreshSecs = 86400
	if v := strings.TrimSpace(os.Getenv("RATE_REFRESH_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateRefreshSecs = n
		}
	}

	return cfg
}
