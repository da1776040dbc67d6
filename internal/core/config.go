package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
)

// Defaults applied to any zero-valued configuration field.
const (
	DefaultOutputDir          = "."
	DefaultNamePrefix         = "accounts"
	DefaultFleetCommand       = "adb"
	DefaultFleetTimeoutSecond = 10
	DefaultMinOnline          = 1
	DefaultFarmHost           = "localhost"
	DefaultListenAddr         = ":8088"
	DefaultBackend            = "script"
)

// DefaultConfigPath resolves $XDG_CONFIG_HOME/qaf/config.yaml or
// ~/.config/qaf/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "qaf")
}

// LoadConfig reads configuration from path. With an empty path the default
// location is used and a missing file yields defaults. Files ending in .toml
// are decoded as TOML, anything else as YAML.
func LoadConfig(path string) (prov.Config, error) {
	var cfg prov.Config
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decodeConfig(path, content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return cfg, fmt.Errorf("open config: %w", err)
	}

	// Merge secrets from secrets.env next to the config so tokens stay out of YAML
	secrets, _ := LoadSecretsEnv(filepath.Join(filepath.Dir(path), "secrets.env"))
	for _, key := range []string{EnvProvisionerToken, EnvFarmHost, EnvS3AccessKeyID, EnvS3SecretAccessKey} {
		if v := os.Getenv(key); v != "" {
			secrets[key] = v
		}
	}
	if t := secrets[EnvProvisionerToken]; t != "" {
		cfg.Backends.HTTP.Token = t
	}
	if h := secrets[EnvFarmHost]; h != "" {
		cfg.Fleet.FarmHost = h
	}
	if k := secrets[EnvS3AccessKeyID]; k != "" {
		cfg.Archive.S3.AccessKeyID = k
	}
	if k := secrets[EnvS3SecretAccessKey]; k != "" {
		cfg.Archive.S3.SecretAccessKey = k
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

func decodeConfig(path string, content []byte, cfg *prov.Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(content), cfg)
		return err
	}
	return yaml.Unmarshal(content, cfg)
}

// ApplyDefaults fills every unset field with its documented default.
func ApplyDefaults(cfg *prov.Config) {
	p := &cfg.Provisioning
	if p.MaxChunk <= 0 {
		p.MaxChunk = DefaultMaxChunk
	}
	if p.OutputDir == "" {
		p.OutputDir = DefaultOutputDir
	}
	if p.NamePrefix == "" {
		p.NamePrefix = DefaultNamePrefix
	}
	if p.OutputFormat == "" {
		p.OutputFormat = FormatJSON
	}
	if cfg.Backends.Default == "" {
		cfg.Backends.Default = DefaultBackend
	}
	if cfg.Backends.HTTP.TimeoutSeconds <= 0 {
		cfg.Backends.HTTP.TimeoutSeconds = 120
	}
	if cfg.Backends.HTTP.Retries == 0 {
		cfg.Backends.HTTP.Retries = 3
	}

	fl := &cfg.Fleet
	if fl.Command == "" {
		fl.Command = DefaultFleetCommand
		if len(fl.Args) == 0 {
			fl.Args = []string{"devices"}
		}
	}
	if fl.TimeoutSeconds <= 0 {
		fl.TimeoutSeconds = DefaultFleetTimeoutSecond
	}
	if fl.MinOnline <= 0 {
		fl.MinOnline = DefaultMinOnline
	}
	if fl.FarmHost == "" {
		fl.FarmHost = DefaultFarmHost
	}
	if fl.ListenAddr == "" {
		fl.ListenAddr = DefaultListenAddr
	}
	if fl.SSH.Port == 0 {
		fl.SSH.Port = 22
	}
	if fl.SSH.KeyPath == "" {
		fl.SSH.KeyPath = filepath.Join(configDir(), "ssh", "id_ed25519")
	}
	if fl.SSH.KnownHosts == "" {
		fl.SSH.KnownHosts = filepath.Join(configDir(), "ssh", "known_hosts")
	}

	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(configDir(), "sessions.db")
	}

	sf := &cfg.Archive.SFTP
	if sf.Port == 0 {
		sf.Port = 22
	}
	if sf.Host == "" {
		sf.Host = fl.FarmHost
	}
	if sf.KeyPath == "" {
		sf.KeyPath = fl.SSH.KeyPath
	}
	if sf.KnownHosts == "" {
		sf.KnownHosts = fl.SSH.KnownHosts
	}
	if sf.RemoteDir == "" {
		sf.RemoteDir = "qaf/sessions"
	}
}

// WriteDefaultConfig writes a fully defaulted YAML config to path unless a
// file already exists there. It reports whether a file was written.
func WriteDefaultConfig(path string) (bool, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	var cfg prov.Config
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
