package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Matching    MatchingConfig    `toml:"matching"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	Batch       BatchConfig       `toml:"batch"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	AppleMusic AppleMusicConfig `toml:"apple_music"`
}

// SpotifyConfig contains Spotify Web API client-credentials settings.
type SpotifyConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	TokenURL     string  `toml:"token_url"`
	APIURL       string  `toml:"api_url"`
	Market       string  `toml:"market"`
	RateLimit    float64 `toml:"rate_limit"`
}

// AppleMusicConfig contains Apple Music API settings.
//
// Either Token (a pre-signed developer token) or the TeamID/KeyID/PrivateKeyPath triple must be set.
type AppleMusicConfig struct {
	Token          string        `toml:"token"`
	TeamID         string        `toml:"team_id"`
	KeyID          string        `toml:"key_id"`
	PrivateKeyPath string        `toml:"private_key_path"`
	TokenTTL       time.Duration `toml:"token_ttl"`
	Storefront     string        `toml:"storefront"`
	APIURL         string        `toml:"api_url"`
	RateLimit      float64       `toml:"rate_limit"`
	MaxRetries     int           `toml:"max_retries"`
}

// MatchingConfig holds the similarity threshold and field weights.
type MatchingConfig struct {
	Threshold    float64 `toml:"threshold"`
	TitleWeight  float64 `toml:"title_weight"`
	ArtistWeight float64 `toml:"artist_weight"`
}

// CacheConfig controls how resolution outcomes are memoized.
type CacheConfig struct {
	CacheFailures bool          `toml:"cache_failures"`
	NegativeTTL   time.Duration `toml:"negative_ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	RecordHistory bool   `toml:"record_history"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains log level and optional rotating file output.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// BatchConfig contains worker pool settings for batch matching.
type BatchConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from .env files (default ".env") into the process environment.
// Missing files are ignored.
func LoadEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ApplyEnv overrides credentials with environment variables when they are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	overrides := map[string]*string{
		"SPOTIFY_CLIENT_ID":            &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET":        &c.Credentials.Spotify.ClientSecret,
		"APPLE_MUSIC_TOKEN":            &c.Credentials.AppleMusic.Token,
		"APPLE_MUSIC_TEAM_ID":          &c.Credentials.AppleMusic.TeamID,
		"APPLE_MUSIC_KEY_ID":           &c.Credentials.AppleMusic.KeyID,
		"APPLE_MUSIC_PRIVATE_KEY_PATH": &c.Credentials.AppleMusic.PrivateKeyPath,
		"SONGMATCH_LOG_LEVEL":          &c.Log.Level,
	}
	for key, field := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks value ranges that would otherwise surface as confusing runtime behavior.
func (c *Config) Validate() error {
	m := c.Matching
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("%w: matching.threshold must be within [0, 1], got %v", ErrInvalidConfig, m.Threshold)
	}
	if m.TitleWeight <= 0 || m.ArtistWeight <= 0 {
		return fmt.Errorf("%w: matching weights must be positive", ErrInvalidConfig)
	}
	if m.TitleWeight < m.ArtistWeight {
		return fmt.Errorf("%w: matching.title_weight must be >= matching.artist_weight", ErrInvalidConfig)
	}
	if c.Cache.NegativeTTL < 0 {
		return fmt.Errorf("%w: cache.negative_ttl must not be negative", ErrInvalidConfig)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// HasSpotifyCredentials reports whether client-credentials auth can be attempted.
func (c *Config) HasSpotifyCredentials() bool {
	s := c.Credentials.Spotify
	return s.ClientID != "" && s.ClientSecret != ""
}

// HasAppleMusicCredentials reports whether a developer token is available or can be signed.
func (c *Config) HasAppleMusicCredentials() bool {
	a := c.Credentials.AppleMusic
	if a.Token != "" {
		return true
	}
	return a.TeamID != "" && a.KeyID != "" && a.PrivateKeyPath != ""
}
