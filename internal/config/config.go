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

var ErrMissingRequiredValue = errors.New("missing required value")

type APIConfig struct {
	Addr             string
	DatabaseURL      string
	DBSchema         string
	TelegramBotToken string
	DevMode          bool
	HeliusAPIKey     string
	HeliusBaseURL    string
	WalletCacheTTL   time.Duration
	SentryDSN        string
	DiscordBotToken  string
	DiscordChannelID string
	AllowedOrigins   []string
	RatePerSecond    int
	RateBurst        int
}

type ClientConfig struct {
	APIBaseURL    string
	Home          string
	AutosaveEvery time.Duration
	SyncEvery     time.Duration
	InitData      string
	StartParam    string
	BotName       string
}

// LoadDotEnv reads a .env file if one exists. Variables already set in the
// environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("BRICKS_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBSchema:         envDefault("BRICKS_DB_SCHEMA", "bricks"),
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DevMode:          envBoolDefault("BRICKS_DEV_MODE", false),
		HeliusAPIKey:     strings.TrimSpace(os.Getenv("HELIUS_API_KEY")),
		HeliusBaseURL:    strings.TrimRight(envDefault("HELIUS_BASE_URL", "https://api.helius.xyz"), "/"),
		WalletCacheTTL:   envDurationDefault("BRICKS_WALLET_CACHE_TTL", 5*time.Minute),
		SentryDSN:        strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		DiscordBotToken:  strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		DiscordChannelID: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
		AllowedOrigins:   envListDefault("BRICKS_ALLOWED_ORIGINS", []string{"*"}),
		RatePerSecond:    envIntDefault("BRICKS_RATE_PER_SEC", 2),
		RateBurst:        envIntDefault("BRICKS_RATE_BURST", 20),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL: %w", ErrMissingRequiredValue)
	}
	if cfg.TelegramBotToken == "" && !cfg.DevMode {
		return cfg, fmt.Errorf("TELEGRAM_BOT_TOKEN is required unless BRICKS_DEV_MODE is set: %w", ErrMissingRequiredValue)
	}
	return cfg, nil
}

func LoadClientFromEnv() (ClientConfig, error) {
	home := strings.TrimSpace(os.Getenv("BRICKS_HOME"))
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("resolve home dir: %w", err)
		}
		home = filepath.Join(userHome, ".bricks")
	}
	return ClientConfig{
		APIBaseURL:    strings.TrimRight(envDefault("BRICKS_API_BASE_URL", "http://localhost:8080"), "/"),
		Home:          home,
		AutosaveEvery: envDurationDefault("BRICKS_AUTOSAVE_EVERY", 5*time.Second),
		SyncEvery:     envDurationDefault("BRICKS_SYNC_EVERY", 10*time.Second),
		InitData:      strings.TrimSpace(os.Getenv("BRICKS_INIT_DATA")),
		StartParam:    strings.TrimSpace(os.Getenv("BRICKS_START_PARAM")),
		BotName:       envDefault("BRICKS_BOT_NAME", "BricksAITycoonBot"),
	}, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
