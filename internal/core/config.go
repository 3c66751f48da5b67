package core

import (
	"fmt"
	"time"
)

type Config struct {
	Spotify  SpotifyConfig
	Tidal    TidalConfig
	Telegram TelegramConfig
	Cache    CacheConfig
	Rate     RateConfig
	Match    MatchConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type TidalConfig struct {
	ClientID     string
	ClientSecret string
	CountryCode  string
}

type TelegramConfig struct {
	BotToken            string
	GroupID             int64
	Language            string
	FloodLimitPerMinute int
}

type CacheConfig struct {
	TTL               time.Duration
	MaxEntries        int
	FalsePositiveRate float64
}

type RateConfig struct {
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
}

type MatchConfig struct {
	Threshold   float64
	SearchLimit int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	TokenDBPath string
}

func DefaultConfig() *Config {
	return &Config{
		Tidal: TidalConfig{
			CountryCode: "US",
		},
		Telegram: TelegramConfig{
			Language:            "en",
			FloodLimitPerMinute: 10,
		},
		Cache: CacheConfig{
			TTL:               15 * time.Minute,
			MaxEntries:        2048,
			FalsePositiveRate: 0.001,
		},
		Rate: RateConfig{
			RequestsPerSecond: 10,
			Burst:             5,
			MaxAttempts:       3,
			BaseDelay:         500 * time.Millisecond,
			MaxDelay:          5 * time.Second,
		},
		Match: MatchConfig{
			Threshold:   0.7,
			SearchLimit: 10,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			TokenDBPath: "./trackbridge_tokens.db",
		},
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}
	if c.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}
	if c.Tidal.ClientID == "" {
		return fmt.Errorf("tidal client ID is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if c.Match.Threshold <= 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("match threshold must be in (0, 1], got %v", c.Match.Threshold)
	}
	if c.Rate.MaxAttempts < 1 {
		return fmt.Errorf("rate max attempts must be at least 1, got %d", c.Rate.MaxAttempts)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache max entries must be at least 1, got %d", c.Cache.MaxEntries)
	}
	return nil
}
