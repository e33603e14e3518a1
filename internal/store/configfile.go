package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/DaanHessen/chromium-runner/internal/engine"
)

// LoadConfig reads and parses the config file at path. Parse failures come
// back as *engine.ParseError unwrapped so callers can inspect them.
func LoadConfig(path string) (*engine.BrowserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return engine.ParseConfig(data)
}

// SaveConfig writes cfg to path through a temp file in the same directory,
// so a failed write never leaves a truncated config behind.
func SaveConfig(path string, cfg *engine.BrowserConfig) error {
	data, err := engine.MarshalConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".chromium-runner-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp config")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp config")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp config")
	}
	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return errors.Wrap(err, "chmod temp config")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace config %s", path)
}
