package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Chart       ChartConfig       `toml:"chart"`
	Stores      StoresConfig      `toml:"stores"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// PlaylistConfig identifies the target playlist.
type PlaylistConfig struct {
	ID     string `toml:"id"`
	Market string `toml:"market"`
}

// ChartConfig contains chart source settings.
type ChartConfig struct {
	Cutoff    string `toml:"cutoff"`
	UserAgent string `toml:"user_agent"`
}

// StoresConfig contains paths for the three persistent JSON stores.
type StoresConfig struct {
	AddedPath    string `toml:"added_path"`
	CachePath    string `toml:"cache_path"`
	NotFoundPath string `toml:"not_found_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains sync run settings.
type SyncConfig struct {
	SearchRate float64 `toml:"search_rate"`
}

// ServerConfig contains settings for the loopback OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Map flattens the Spotify credentials for service construction.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"refresh_token": s.RefreshToken,
	}
}

// Update stores the refresh token from a completed authorization flow.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.RefreshToken == "" {
		return fmt.Errorf("%w: token has no refresh token", ErrInvalidArgument)
	}
	s.RefreshToken = token.RefreshToken
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment variable overrides for credentials and playlist ID.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded
// example config, with environment variable overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration back to disk as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables onto the config. The variable
// names follow the original cron-job deployment of this tool.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&c.Credentials.Spotify.ClientID, "SPOTIPY_CLIENT_ID")
	overlay(&c.Credentials.Spotify.ClientSecret, "SPOTIPY_CLIENT_SECRET")
	overlay(&c.Credentials.Spotify.RedirectURI, "SPOTIPY_REDIRECT_URI")
	overlay(&c.Credentials.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	overlay(&c.Playlist.ID, "SPOTIFY_PLAYLIST_ID")
}

// CutoffDate parses the configured chart cutoff. Entries charting before
// this date are ineligible.
func (c *Config) CutoffDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Chart.Cutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: chart.cutoff %q: %v", ErrInvalidConfig, c.Chart.Cutoff, err)
	}
	return t, nil
}

// Validate checks that every item a sync run needs is present.
//
// All missing items are reported in a single error so a misconfigured
// deployment fails once with the complete list, before any network
// activity.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, "credentials.spotify.client_id (SPOTIPY_CLIENT_ID)")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, "credentials.spotify.client_secret (SPOTIPY_CLIENT_SECRET)")
	}
	if c.Credentials.Spotify.RefreshToken == "" {
		missing = append(missing, "credentials.spotify.refresh_token (SPOTIFY_REFRESH_TOKEN)")
	}
	if c.Playlist.ID == "" {
		missing = append(missing, "playlist.id (SPOTIFY_PLAYLIST_ID)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if _, err := c.CutoffDate(); err != nil {
		return err
	}
	return nil
}
