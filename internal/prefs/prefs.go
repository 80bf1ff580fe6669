// Package prefs persists the bound device identity between runs.
package prefs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/heosctl/internal/device"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	keyAddress  = "ip"
	keyPlayerID = "pid"
	keyName     = "name"
)

// Store reads and writes the preference file.
type Store struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

// NewStore returns a store for path on fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, path string, logger *slog.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{fs: fs, path: path, logger: logger}
}

// DefaultPath resolves prefs.json under the XDG state directory.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "heosctl", "prefs.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(home, ".local", "state", "heosctl", "prefs.json"), nil
}

// Path returns the preference file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted identity exactly as saved.
//
// A missing or unreadable file yields the unbound identity. Only an absent
// name key falls back to the unbound name; an empty saved name stays empty.
func (s *Store) Load() device.Identity {
	v := s.viper()
	if err := v.ReadInConfig(); err != nil {
		s.logger.Info("preferences unavailable; using defaults", "path", s.path, "error", err.Error())
		return device.Unbound()
	}

	identity := device.Identity{
		Address:  v.GetString(keyAddress),
		PlayerID: v.GetString(keyPlayerID),
		Name:     device.NotConnectedName,
	}
	if v.IsSet(keyName) {
		identity.Name = v.GetString(keyName)
	}
	return identity
}

// Save overwrites the preference file with identity.
func (s *Store) Save(identity device.Identity) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	v := s.viper()
	v.Set(keyAddress, identity.Address)
	v.Set(keyPlayerID, identity.PlayerID)
	v.Set(keyName, identity.Name)
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write prefs %q: %w", s.path, err)
	}
	return nil
}

func (s *Store) viper() *viper.Viper {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	v.SetConfigPermissions(0o600)
	return v
}
