// Package config loads aurguard settings from ~/.aurguard/config.yaml,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".aurguard"
	DefaultConfigFile = "config.yaml"
	DefaultLogFile    = "audit.jsonl"

	DefaultPacmanLog = "/var/log/pacman.log"
	DefaultHTTPAddr  = "127.0.0.1:8787"
)

// DefaultMirrors are probed by check_mirror_status when the config file
// lists none.
var DefaultMirrors = []string{
	"https://geo.mirror.pkgbuild.com/",
	"https://mirror.rackspace.com/archlinux/",
	"https://mirrors.kernel.org/archlinux/",
}

type Config struct {
	// Endpoint overrides; empty means each client's built-in default.
	AURBaseURL  string `yaml:"aur_base_url"`
	WikiBaseURL string `yaml:"wiki_base_url"`
	NewsFeedURL string `yaml:"news_feed_url"`

	Mirrors   []string `yaml:"mirrors"`
	PacmanLog string   `yaml:"pacman_log_path"`

	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`

	RequestTimeout Duration `yaml:"request_timeout"`

	ConfigDir string `yaml:"-"`
}

// Duration parses yaml values like "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Mirrors:        append([]string{}, DefaultMirrors...),
		PacmanLog:      DefaultPacmanLog,
		HTTPAddr:       DefaultHTTPAddr,
		RequestTimeout: Duration(30 * time.Second),
	}
}

// Load reads the config file at path, or ~/.aurguard/config.yaml when path
// is empty. A missing file is not an error; explicit paths must exist.
// logPath, when non-empty, overrides the file's log_path.
func Load(path, logPath string) (*Config, error) {
	cfg := Default()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(cfg.ConfigDir); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.ConfigDir, DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if logPath != "" {
		cfg.LogPath = logPath
	}
	return cfg, nil
}

// applyDefaults fills fields the file left empty.
func (c *Config) applyDefaults() {
	if len(c.Mirrors) == 0 {
		c.Mirrors = append([]string{}, DefaultMirrors...)
	}
	if c.PacmanLog == "" {
		c.PacmanLog = DefaultPacmanLog
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(30 * time.Second)
	}
	if c.LogPath == "" && c.ConfigDir != "" {
		c.LogPath = filepath.Join(c.ConfigDir, DefaultLogFile)
	}
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
