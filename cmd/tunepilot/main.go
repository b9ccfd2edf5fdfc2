// Package main provides the tunepilot CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunepilot/internal/core"
	httpserver "tunepilot/internal/http"
	"tunepilot/internal/spotify"
	"tunepilot/internal/store"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunepilot",
	Short: "tunepilot - free-text playback intents for Spotify",
	Long: `tunepilot is a small HTTP control surface that turns free-text playback
intents ("play X by Y", "resume", "set volume") into Spotify playback commands,
managing the OAuth2 token lifecycle along the way.`,
	RunE: runTunepilot,
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
	rootCmd.PersistentFlags().String("spotify-redirect-url", "", "externally reachable OAuth callback URL")
	rootCmd.PersistentFlags().String("spotify-refresh-token", "", "pre-seeded refresh token (skips interactive login)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Duration("server-read-timeout", 0, "HTTP server read timeout (0 uses the default)")
	rootCmd.PersistentFlags().Duration("server-write-timeout", 0, "HTTP server write timeout (0 uses the default)")
	rootCmd.PersistentFlags().Duration("collection-cache-ttl", 0, "saved collections cache TTL (0 uses the default)")

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

	viper.SetEnvPrefix("TUNEPILOT")
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
	cfg.Spotify.RefreshToken = viper.GetString("spotify-refresh-token")

	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}
	if timeout := viper.GetDuration("server-read-timeout"); timeout != 0 {
		cfg.Server.ReadTimeout = timeout
	}
	if timeout := viper.GetDuration("server-write-timeout"); timeout != 0 {
		cfg.Server.WriteTimeout = timeout
	}

	cfg.Spotify.RedirectURL = viper.GetString("spotify-redirect-url")
	if cfg.Spotify.RedirectURL == "" {
		cfg.Spotify.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", cfg.Server.Port)
	}

	if ttl := viper.GetDuration("collection-cache-ttl"); ttl != 0 {
		cfg.Resolver.CollectionCacheTTL = ttl
	}

	cfg.Log.Level = viper.GetString("log-level")

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

func runTunepilot(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting tunepilot",
		zap.String("redirect_url", config.Spotify.RedirectURL),
		zap.Bool("refresh_token_seeded", config.Spotify.RefreshToken != ""))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	oauthConfig := spotify.NewOAuthConfig(&config.Spotify)
	tokens := spotify.NewTokenStore(oauthConfig, config.Spotify.RefreshToken, logger.Named("tokens"))
	player := spotify.NewClient(tokens, logger.Named("spotify"))

	collectionCache := store.NewCollectionCache(config.Resolver.CollectionCacheTTL)
	resolver := core.NewResolver(player, collectionCache, logger.Named("resolver"))
	devices := core.NewDeviceManager(player, logger.Named("devices"))
	orchestrator := core.NewOrchestrator(tokens, devices, resolver, player, logger.Named("orchestrator"))

	httpServer := httpserver.NewServer(&config.Server, orchestrator, tokens, logger.Named("http"))
	tokens.OnRefresh = httpServer.RecordTokenRefresh

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("tunepilot started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("tunepilot stopped with error", zap.Error(err))
		return err
	}

	logger.Info("tunepilot stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}

	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}

	return nil
}
