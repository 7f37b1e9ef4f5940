package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	currentSchemaVersion = 1
	configFileMode       = 0o600
	configDirMode        = 0o700
	tempFilePattern      = ".config-*.toml.tmp"
)

var ErrConfigExists = errors.New("config file already exists")

type fileSchema struct {
	Version int           `toml:"version"`
	API     apiSchema     `toml:"api"`
	OAuth   oauthSchema   `toml:"oauth"`
	Session sessionSchema `toml:"session"`
	Store   storeSchema   `toml:"store"`
	Log     logSchema     `toml:"log"`
}

type apiSchema struct {
	BaseURL         string `toml:"base_url"`
	NewslettersPath string `toml:"newsletters_path"`
}

type oauthSchema struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
	ListenAddr   string   `toml:"listen_addr"`
	Timeout      string   `toml:"timeout"`
	ProfileURL   string   `toml:"profile_url"`
}

type sessionSchema struct {
	Secret string `toml:"secret"`
	TTL    string `toml:"ttl"`
}

type storeSchema struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type logSchema struct {
	Level string `toml:"level"`
}

func toSchema(cfg Config) fileSchema {
	return fileSchema{
		Version: currentSchemaVersion,
		API: apiSchema{
			BaseURL:         cfg.API.BaseURL,
			NewslettersPath: cfg.API.NewslettersPath,
		},
		OAuth: oauthSchema{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Scopes:       cfg.OAuth.Scopes,
			ListenAddr:   cfg.OAuth.ListenAddr,
			Timeout:      cfg.OAuth.Timeout.String(),
			ProfileURL:   cfg.OAuth.ProfileURL,
		},
		Session: sessionSchema{
			Secret: cfg.Session.Secret,
			TTL:    cfg.Session.TTL.String(),
		},
		Store: storeSchema{
			Backend: cfg.Store.Backend,
			Path:    cfg.Store.Path,
		},
		Log: logSchema{
			Level: cfg.Log.Level,
		},
	}
}

// Marshal encodes cfg in the on-disk TOML layout.
func Marshal(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config file: %w", err)
	}
	return data, nil
}

// WriteFile atomically writes cfg to path. An existing file is only replaced when overwrite is set.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(path, configFileMode); err != nil {
		return fmt.Errorf("chmod config file: %w", err)
	}

	return nil
}
