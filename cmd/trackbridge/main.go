// Package main provides the TrackBridge CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"trackbridge/internal/cache"
	"trackbridge/internal/chat"
	"trackbridge/internal/chat/telegram"
	"trackbridge/internal/core"
	"trackbridge/internal/flood"
	httpserver "trackbridge/internal/http"
	"trackbridge/internal/i18n"
	"trackbridge/internal/limit"
	"trackbridge/internal/match"
	"trackbridge/internal/session"
	"trackbridge/internal/spotify"
	"trackbridge/internal/store"
	"trackbridge/internal/tidal"
	"trackbridge/pkg/tracklink"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trackbridge",
	Short: "TrackBridge - Spotify ↔ TIDAL track link converter",
	Long: `TrackBridge is a service that watches a chat group for Spotify and TIDAL
track links and replies with the equivalent track on the other service.`,
	RunE: runTrackBridge,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("tidal-client-id", "", "TIDAL client ID")
	rootCmd.PersistentFlags().String("tidal-client-secret", "", "TIDAL client secret")
	rootCmd.PersistentFlags().String("tidal-country-code", "US", "TIDAL catalog country code")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().Int64("telegram-group-id", 0, "Telegram group chat ID to monitor")
	rootCmd.PersistentFlags().String("language", "en", "bot reply language")
	rootCmd.PersistentFlags().Int("flood-limit", 10, "max conversions per sender per minute")
	rootCmd.PersistentFlags().Float64("match-threshold", 0, "minimum confidence for a match")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server bind address")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().String("token-db-path", "", "path to the session token database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("TRACKBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	cfg.Tidal.ClientID = viper.GetString("tidal-client-id")
	cfg.Tidal.ClientSecret = viper.GetString("tidal-client-secret")
	if country := viper.GetString("tidal-country-code"); country != "" {
		cfg.Tidal.CountryCode = country
	}

	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")
	cfg.Telegram.GroupID = viper.GetInt64("telegram-group-id")
	if language := viper.GetString("language"); language != "" {
		cfg.Telegram.Language = language
	}
	if floodLimit := viper.GetInt("flood-limit"); floodLimit > 0 {
		cfg.Telegram.FloodLimitPerMinute = floodLimit
	}

	if threshold := viper.GetFloat64("match-threshold"); threshold != 0 {
		cfg.Match.Threshold = threshold
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	cfg.Log.Level = viper.GetString("log-level")

	if path := viper.GetString("token-db-path"); path != "" {
		cfg.App.TokenDBPath = path
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

// newMessageHandler builds the chat message handler: parse for a track
// link, charge the sender's flood budget, resolve, reply. Plain chatter
// never touches the flood budget; only messages carrying a track link count
// against the per-sender conversion limit.
func newMessageHandler(
	ctx context.Context,
	floodgate *flood.Floodgate,
	resolve func(ctx context.Context, rawText string) (string, bool),
	send func(ctx context.Context, chatID, replyToID, text string) (string, error),
	logger *zap.Logger,
) func(*chat.Message) {
	links := tracklink.NewParser()

	return func(msg *chat.Message) {
		if _, ok := links.Parse(msg.Text); !ok {
			return
		}

		if !floodgate.Allow(msg.ChatID, msg.SenderID) {
			logger.Debug("Sender over conversion limit, ignoring link",
				zap.String("chat_id", msg.ChatID),
				zap.String("sender", msg.SenderName))
			return
		}

		reply, ok := resolve(ctx, msg.Text)
		if !ok {
			return
		}

		if _, err := send(ctx, msg.ChatID, msg.ID, reply); err != nil {
			logger.Warn("Failed to send reply",
				zap.String("chat_id", msg.ChatID),
				zap.Error(err))
		}
	}
}

func runTrackBridge(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting TrackBridge",
		zap.String("version", "1.0.0"),
		zap.Int64("telegram_group", config.Telegram.GroupID))

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	tokens, err := store.Open(config.App.TokenDBPath)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer tokens.Close()

	sessions := session.NewManager(config, tokens, logger.Named("session"))
	if err := sessions.Start(ctx); err != nil {
		return fmt.Errorf("failed to start provider sessions: %w", err)
	}

	spotifyClient := spotify.NewClient(sessions.SpotifyHTTPClient(), logger.Named("spotify"))
	tidalClient := tidal.NewClient(sessions, config.Tidal.CountryCode, logger.Named("tidal"))

	resultCache := cache.New(
		config.Cache.MaxEntries,
		config.Cache.TTL,
		config.Cache.FalsePositiveRate,
		logger.Named("cache"),
	)

	limiter := limit.NewController(&config.Rate, logger.Named("limit"))
	scorer := match.NewScorer(config.Match.Threshold, logger.Named("match"))

	ready := func() bool {
		return sessions.Healthy(core.ProviderSpotify) && sessions.Healthy(core.ProviderTidal)
	}
	httpServer := httpserver.NewServer(&config.Server, ready, logger.Named("http"))
	limiter.SetRetryHook(httpServer.RecordRetry)

	engine := core.NewEngine(
		config,
		[]core.ProviderClient{spotifyClient, tidalClient},
		resultCache,
		limiter,
		scorer,
		sessions,
		httpServer,
		logger.Named("engine"),
	)

	frontend := telegram.NewFrontend(&telegram.Config{
		BotToken: config.Telegram.BotToken,
		GroupID:  config.Telegram.GroupID,
	}, logger.Named("telegram"))

	if err := frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram frontend: %w", err)
	}

	floodgate := flood.New(config.Telegram.FloodLimitPerMinute)
	defer floodgate.Stop()

	localizer := i18n.NewLocalizer(config.Telegram.Language)
	groupChat := strconv.FormatInt(config.Telegram.GroupID, 10)

	if config.Telegram.GroupID != 0 {
		if _, err := frontend.SendText(ctx, groupChat, "", localizer.T("bot.startup")); err != nil {
			logger.Warn("Failed to announce startup", zap.Error(err))
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return frontend.Listen(gCtx, newMessageHandler(gCtx, floodgate, engine.ResolveFromText, frontend.SendText, logger))
	})

	logger.Info("TrackBridge started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	waitErr := g.Wait()

	if config.Telegram.GroupID != 0 {
		// Best-effort farewell; the run context is already cancelled.
		byeCtx, byeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := frontend.SendText(byeCtx, groupChat, "", localizer.T("bot.shutdown")); err != nil {
			logger.Debug("Failed to announce shutdown", zap.Error(err))
		}
		byeCancel()
	}

	if waitErr != nil {
		logger.Error("TrackBridge stopped with error", zap.Error(waitErr))
		return waitErr
	}

	logger.Info("TrackBridge stopped gracefully")
	return nil
}
