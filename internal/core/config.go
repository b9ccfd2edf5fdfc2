package core

import (
	"time"
)

type Config struct {
	Spotify  SpotifyConfig
	Resolver ResolverConfig
	Server   ServerConfig
	Log      LogConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// RefreshToken optionally seeds the credential store at startup so
	// long-running deployments can skip the interactive /login flow.
	RefreshToken string
}

type ResolverConfig struct {
	// CollectionCacheTTL bounds how long the caller's saved-collections
	// page may be served from cache. Zero disables caching.
	CollectionCacheTTL time.Duration
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

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://127.0.0.1:8080/callback",
		},
		Resolver: ResolverConfig{
			CollectionCacheTTL: 30 * time.Second,
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
	}
}
