package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".mailbin"
	envPrefix  = "MAILBIN"

	KeyVersion         = "version"
	KeyAPIBaseURL      = "api.base_url"
	KeyNewslettersPath = "api.newsletters_path"
	KeyClientID        = "oauth.client_id"
	KeyClientSecret    = "oauth.client_secret"
	KeyScopes          = "oauth.scopes"
	KeyListenAddr      = "oauth.listen_addr"
	KeyOAuthTimeout    = "oauth.timeout"
	KeyProfileURL      = "oauth.profile_url"
	KeySessionSecret   = "session.secret"
	KeySessionTTL      = "session.ttl"
	KeyStoreBackend    = "store.backend"
	KeyStorePath       = "store.path"
	KeyLogLevel        = "log.level"

	DefaultAPIBaseURL      = "http://localhost:8000"
	DefaultNewslettersPath = "/emails/newsletters"
	DefaultListenAddr      = "127.0.0.1:0"
	DefaultOAuthTimeout    = 5 * time.Minute
	DefaultProfileURL      = "https://www.googleapis.com/userinfo/v2/me"
	DefaultSessionTTL      = 24 * time.Hour
	DefaultLogLevel        = "warn"
)

const (
	BackendChain  = "chain"
	BackendFile   = "file"
	BackendPass   = "pass"
	BackendSQLite = "sqlite"
)

var ErrUnknownStoreBackend = errors.New("unknown store backend")

// DefaultScopes grant read access to the mailbox plus the identity claims shown by status.
var DefaultScopes = []string{
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	gmail.GmailReadonlyScope,
}

type Config struct {
	API     APIConfig
	OAuth   OAuthConfig
	Session SessionConfig
	Store   StoreConfig
	Log     LogConfig

	// File is the config file that was read, empty when none exists.
	File string
}

type APIConfig struct {
	BaseURL         string
	NewslettersPath string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	ListenAddr   string
	Timeout      time.Duration
	ProfileURL   string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type StoreConfig struct {
	Backend string
	Path    string
}

type LogConfig struct {
	Level string
}

func DefaultDir(homeDir string) string {
	return filepath.Join(homeDir, configDir)
}

func DefaultFile(homeDir string) string {
	return filepath.Join(DefaultDir(homeDir), configName+"."+configType)
}

// Load reads the config file (optional) and MAILBIN_* environment overrides.
// An explicit file must exist; the default location may be absent.
func Load(v *viper.Viper, homeDir string, explicitFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, homeDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(DefaultDir(homeDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if explicitFile != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if version := v.GetInt(KeyVersion); version > currentSchemaVersion {
		return Config{}, fmt.Errorf("unsupported config schema version %d (current %d)", version, currentSchemaVersion)
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:         strings.TrimSpace(v.GetString(KeyAPIBaseURL)),
			NewslettersPath: v.GetString(KeyNewslettersPath),
		},
		OAuth: OAuthConfig{
			ClientID:     strings.TrimSpace(v.GetString(KeyClientID)),
			ClientSecret: strings.TrimSpace(v.GetString(KeyClientSecret)),
			Scopes:       v.GetStringSlice(KeyScopes),
			ListenAddr:   v.GetString(KeyListenAddr),
			Timeout:      v.GetDuration(KeyOAuthTimeout),
			ProfileURL:   v.GetString(KeyProfileURL),
		},
		Session: SessionConfig{
			Secret: v.GetString(KeySessionSecret),
			TTL:    v.GetDuration(KeySessionTTL),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreBackend))),
			Path:    expandHome(v.GetString(KeyStorePath), homeDir),
		},
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
		},
		File: v.ConfigFileUsed(),
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}

	return cfg, nil
}

// Defaults returns the built-in configuration, ignoring files and environment.
func Defaults(homeDir string) Config {
	return Config{
		API:     APIConfig{BaseURL: DefaultAPIBaseURL, NewslettersPath: DefaultNewslettersPath},
		OAuth:   OAuthConfig{Scopes: DefaultScopes, ListenAddr: DefaultListenAddr, Timeout: DefaultOAuthTimeout, ProfileURL: DefaultProfileURL},
		Session: SessionConfig{TTL: DefaultSessionTTL},
		Store:   StoreConfig{Backend: BackendChain, Path: filepath.Join(DefaultDir(homeDir), "session")},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Validate reports configuration faults that make session commands unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("%w: set %s or %s_SESSION_SECRET", domain.ErrMissingSigningSecret, KeySessionSecret, envPrefix)
	}
	if c.Session.TTL <= 0 {
		return domain.ErrInvalidSessionTTL
	}

	switch c.Store.Backend {
	case BackendChain, BackendFile, BackendPass, BackendSQLite:
	default:
		return fmt.Errorf("%w %q (want chain, file, pass or sqlite)", ErrUnknownStoreBackend, c.Store.Backend)
	}

	return nil
}

// OAuth2 returns the Google OAuth client configuration. RedirectURL is set per flow.
func (c Config) OAuth2() *oauth2.Config {
	scopes := c.OAuth.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// Redacted hides secrets for display.
func (c Config) Redacted() Config {
	redacted := c
	redacted.Session.Secret = redact(c.Session.Secret)
	redacted.OAuth.ClientSecret = redact(c.OAuth.ClientSecret)
	return redacted
}

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault(KeyVersion, currentSchemaVersion)
	v.SetDefault(KeyAPIBaseURL, DefaultAPIBaseURL)
	v.SetDefault(KeyNewslettersPath, DefaultNewslettersPath)
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyClientSecret, "")
	v.SetDefault(KeyScopes, DefaultScopes)
	v.SetDefault(KeyListenAddr, DefaultListenAddr)
	v.SetDefault(KeyOAuthTimeout, DefaultOAuthTimeout)
	v.SetDefault(KeyProfileURL, DefaultProfileURL)
	v.SetDefault(KeySessionSecret, "")
	v.SetDefault(KeySessionTTL, DefaultSessionTTL)
	v.SetDefault(KeyStoreBackend, BackendChain)
	v.SetDefault(KeyStorePath, filepath.Join(DefaultDir(homeDir), "session"))
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

func expandHome(path string, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	if path != "" && !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return path
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
