package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	pathEnvVar  = "WISE_CONFIG"
	envPrefix   = "WISE"
	defaultPath = "~/.wise/synchronizer.toml"
)

// ResolvePath expands path, falling back to $WISE_CONFIG and then to the
// default location.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv(pathEnvVar)
	}
	if path == "" {
		path = defaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrapf(err, "expand config path %s", path)
	}
	return expanded, nil
}

// Load reads the config at path. A missing file is created with defaults.
// WISE_* environment variables override file values, e.g. WISE_SYNC_CONCURRENCY.
func Load(path string) (*Config, error) {
	cfgPath, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig(cfgPath)

	if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to build default config")
		}
		if err := Write(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to build default config")
		}
	}

	if err := readConfigFromFile(cfgPath, cfg); err != nil {
		return nil, errors.Wrapf(err, "read config %s", cfgPath)
	}
	cfg.Path = cfgPath
	return cfg, nil
}

// Write stores cfg at cfg.Path.
func Write(cfg *Config) error {
	raw, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Path, []byte(raw), 0o644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) (string, error) {
	buf := bytes.NewBuffer(nil)
	e := toml.NewEncoder(buf)
	e.SetIndentTables(true)
	e.SetArraysMultiline(true)
	if err := e.Encode(cfg); err != nil {
		return "", errors.Wrap(err, "encode config")
	}
	return buf.String(), nil
}

func readConfigFromFile(cfgPath string, cfg *Config) error {
	vp := viper.New()
	vp.SetConfigFile(cfgPath)
	vp.SetConfigType("toml")
	vp.AutomaticEnv()
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := vp.ReadInConfig(); err != nil {
		return err
	}
	return vp.Unmarshal(cfg)
}
