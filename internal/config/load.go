package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// maxConfigBytes caps how much of config.jsonc is read.
const maxConfigBytes = 256 << 10

// Loaded is the outcome of one config resolution.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config from the host filesystem.
func Load(explicitPath string) (Loaded, error) {
	return LoadFS(afero.NewOsFs(), explicitPath)
}

// LoadFS resolves the config path and overlays the file found on fsys onto
// Default. A missing file yields the defaults plus a warning; anything else
// that prevents reading or parsing is an error naming the path.
func LoadFS(fsys afero.Fs, explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	info, err := fsys.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("stat config %q: %w", path, err)
	case info.IsDir():
		return Loaded{}, fmt.Errorf("config %q is a directory", path)
	case info.Size() > maxConfigBytes:
		return Loaded{}, fmt.Errorf("config %q is %d bytes; limit is %d", path, info.Size(), maxConfigBytes)
	}

	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(content), loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Config = cfg
	loaded.Warnings = warnings
	loaded.Exists = true
	return loaded, nil
}
