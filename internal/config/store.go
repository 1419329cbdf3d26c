package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// File names inside the data directory.
const (
	AppName       = "termai"
	FileName      = "config.json"
	LegacyKeyName = "key"
	BackupSuffix  = ".bak"
)

// DefaultDir is the per-user data directory, ~/.local/share/termai on Linux.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Prompter asks the user for the first-run settings.
type Prompter interface {
	Provider() (string, error)
	APIKey(provider string) (string, error)
}

// Store reads and writes the settings file.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore returns a store rooted at dir. A nil logger uses the default one.
func NewStore(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Path is the settings file path.
func (s *Store) Path() string { return filepath.Join(s.dir, FileName) }

func (s *Store) legacyKeyPath() string { return filepath.Join(s.dir, LegacyKeyName) }

func (s *Store) backupPath() string { return s.legacyKeyPath() + BackupSuffix }

// Load returns the settings, migrating older formats and running the
// first-run setup when nothing exists yet. With a nil prompter, setup cannot
// run and [ErrNotReady] is returned instead.
func (s *Store) Load(p Prompter) (*Config, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}

	bts, err := os.ReadFile(s.Path())
	if err == nil {
		return s.decode(bts)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read settings file: %w", err)
	}

	cfg := Default()
	key, err := s.migrateKeyFile()
	if err != nil {
		return nil, err
	}
	if key != "" {
		cfg.Gemini.APIKey = key
	} else {
		if p == nil {
			return nil, ErrNotReady
		}
		if err := setup(p, &cfg); err != nil {
			return nil, err
		}
	}

	if err := s.Save(&cfg); err != nil {
		return nil, err
	}
	s.logger.Info("Configuration saved", "path", s.Path())
	return &cfg, nil
}

// Save writes the settings file and removes the legacy key backup, which is
// only kept until a settings file exists.
func (s *Store) Save(cfg *Config) error {
	bts, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	return s.write(bts)
}

// write stores compact JSON indented the way Save always writes it.
func (s *Store) write(bts []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bts, "", "    "); err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(s.Path(), buf.Bytes(), 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("could not write settings file: %w", err)
	}
	if err := os.Remove(s.backupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not remove legacy key backup: %w", err)
	}
	return nil
}

// Remove deletes the settings file. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not remove settings file: %w", err)
	}
	return nil
}

func (s *Store) decode(bts []byte) (*Config, error) {
	var doc document
	if err := json.Unmarshal(bts, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s: not a JSON object", ErrMalformed, s.Path())
	}

	changed, err := doc.upgrade()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.Path(), err)
	}

	cfg := Default()
	if err := doc.decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.Path(), err)
	}

	if changed {
		bts, err := json.Marshal(&cfg)
		if err != nil {
			return nil, fmt.Errorf("could not encode settings: %w", err)
		}
		if bts, err = doc.keepUnknown(bts, ""); err != nil {
			return nil, fmt.Errorf("could not encode settings: %w", err)
		}
		if err := s.write(bts); err != nil {
			return nil, err
		}
		s.logger.Info("Migrated settings to the multi-provider format", "path", s.Path())
	}
	return &cfg, nil
}

// migrateKeyFile reads the bare legacy key file and moves it aside.
func (s *Store) migrateKeyFile() (string, error) {
	bts, err := os.ReadFile(s.legacyKeyPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not read legacy key file: %w", err)
	}

	s.logger.Info("Migrating legacy key file to the new settings format")
	if err := os.Rename(s.legacyKeyPath(), s.backupPath()); err != nil {
		return "", fmt.Errorf("could not back up legacy key file: %w", err)
	}
	return strings.TrimSpace(string(bts)), nil
}

func setup(p Prompter, cfg *Config) error {
	provider, err := p.Provider()
	if err != nil {
		return fmt.Errorf("could not read provider: %w", err)
	}
	if !slices.Contains(Providers, provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	key, err := p.APIKey(provider)
	if err != nil {
		return fmt.Errorf("could not read api key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	cfg.Provider = provider
	cfg.setAPIKey(provider, key)
	return nil
}
