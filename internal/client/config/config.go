package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".sessionkeeper"
	fileName = "authctl.yaml"
)

// Config holds runtime settings for authctl.
//
// Profile namespaces the keychain entries so one machine can hold sessions
// for several servers.
type Config struct {
	ServerAddr string        `yaml:"server_addr"`
	Timeout    time.Duration `yaml:"timeout"`
	Profile    string        `yaml:"profile"`
}

func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:50051"
	c.Timeout = 10 * time.Second
	c.Profile = "default"
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return errors.New("server address cannot be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// DefaultPath is ~/.sessionkeeper/authctl.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Load applies defaults and overlays the YAML file at path. An empty path
// means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// yaml.v3 writes durations as integers but only reads them back as
	// strings, so the timeout is stored in its String form.
	data, err := yaml.Marshal(struct {
		ServerAddr string `yaml:"server_addr"`
		Timeout    string `yaml:"timeout"`
		Profile    string `yaml:"profile"`
	}{c.ServerAddr, c.Timeout.String(), c.Profile})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
