package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings for serving: branch redirects
// for renamed branches, and ref prefixes hidden from unauthenticated
// accessors.
type Config struct {
	// Hidden lists fully qualified ref-name prefixes (e.g. "refs/meta/")
	// whose tips do not contribute to reachability for plain accessors.
	Hidden []string `toml:"hidden,omitempty"`

	// Redirects maps a stale branch name to its canonical current name,
	// e.g. master = "main".
	Redirects map[string]string `toml:"redirects,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GotDir, "config.toml")
}

// ReadConfig reads .got/config.toml. Missing config returns an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Redirects: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	if cfg.Redirects == nil {
		cfg.Redirects = make(map[string]string)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .got/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.GotDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetRedirect stores/updates a branch redirect in repository config.
func (r *Repo) SetRedirect(from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("set redirect: both branch names are required")
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Redirects[from] = to
	return r.WriteConfig(cfg)
}
