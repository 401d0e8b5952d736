package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./songmatch.db" {
			t.Errorf("expected database path ./songmatch.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Matching.Threshold != 0.6 {
			t.Errorf("expected threshold 0.6, got %v", config.Matching.Threshold)
		}

		if config.Matching.TitleWeight < config.Matching.ArtistWeight {
			t.Errorf("title weight %v should not be below artist weight %v", config.Matching.TitleWeight, config.Matching.ArtistWeight)
		}

		if !config.Cache.CacheFailures {
			t.Error("failures should be cached by default")
		}

		if config.Cache.NegativeTTL != 0 {
			t.Errorf("expected no negative TTL by default, got %v", config.Cache.NegativeTTL)
		}

		if config.Credentials.AppleMusic.TokenTTL != 12*time.Hour {
			t.Errorf("expected token ttl 12h, got %v", config.Credentials.AppleMusic.TokenTTL)
		}

		if config.Credentials.AppleMusic.Storefront != "us" {
			t.Errorf("expected storefront us, got %s", config.Credentials.AppleMusic.Storefront)
		}

		if config.HasSpotifyCredentials() || config.HasAppleMusicCredentials() {
			t.Error("default config should not carry credentials")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[credentials.apple_music]
token = "dev-token"
storefront = "gb"

[matching]
threshold = 0.75

[cache]
negative_ttl = "10m"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if !config.HasSpotifyCredentials() || !config.HasAppleMusicCredentials() {
			t.Error("expected both services to have credentials")
		}

		if config.Matching.Threshold != 0.75 {
			t.Errorf("expected threshold 0.75, got %v", config.Matching.Threshold)
		}

		if config.Matching.TitleWeight != 0.55 {
			t.Errorf("unset keys should keep defaults, got title weight %v", config.Matching.TitleWeight)
		}

		if config.Cache.NegativeTTL != 10*time.Minute {
			t.Errorf("expected negative ttl 10m, got %v", config.Cache.NegativeTTL)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"SPOTIFY_CLIENT_ID":     "env-id",
			"SPOTIFY_CLIENT_SECRET": "env-secret",
			"APPLE_MUSIC_TOKEN":     "env-token",
			"APPLE_MUSIC_KEY_ID":    "",
		}
		config.Credentials.AppleMusic.KeyID = "file-key"

		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		if config.Credentials.Spotify.ClientID != "env-id" || config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("spotify credentials not overridden: %+v", config.Credentials.Spotify)
		}
		if config.Credentials.AppleMusic.Token != "env-token" {
			t.Errorf("expected apple token env-token, got %s", config.Credentials.AppleMusic.Token)
		}
		if config.Credentials.AppleMusic.KeyID != "file-key" {
			t.Errorf("empty env value should not override, got %s", config.Credentials.AppleMusic.KeyID)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(c *Config)
		}{
			{name: "threshold above one", mutate: func(c *Config) { c.Matching.Threshold = 1.5 }},
			{name: "negative threshold", mutate: func(c *Config) { c.Matching.Threshold = -0.1 }},
			{name: "artist outweighs title", mutate: func(c *Config) { c.Matching.TitleWeight, c.Matching.ArtistWeight = 0.3, 0.7 }},
			{name: "zero weight", mutate: func(c *Config) { c.Matching.ArtistWeight = 0 }},
			{name: "negative ttl", mutate: func(c *Config) { c.Cache.NegativeTTL = -time.Second }},
			{name: "no workers", mutate: func(c *Config) { c.Batch.Workers = 0 }},
			{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				err := config.Validate()
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
