// Package config loads synchronizer settings from a TOML file.
package config

import (
	"time"
)

type Config struct {
	Path       string     `mapstructure:"-" toml:"-"`
	Delegator  string     `mapstructure:"delegator" toml:"delegator"`
	RPC        RPC        `mapstructure:"rpc" toml:"rpc"`
	Signer     Signer     `mapstructure:"signer" toml:"signer"`
	Clickhouse Clickhouse `mapstructure:"clickhouse" toml:"clickhouse"`
	Sync       Sync       `mapstructure:"sync" toml:"sync"`
	Metrics    Metrics    `mapstructure:"metrics" toml:"metrics"`
}

type RPC struct {
	URL string `mapstructure:"url" toml:"url"`
	// RPS limits requests per second to the node, 0 disables the limit.
	RPS int `mapstructure:"rps" toml:"rps"`
}

type Signer struct {
	URL    string `mapstructure:"url" toml:"url"`
	DryRun bool   `mapstructure:"dry_run" toml:"dry_run"`
}

type Clickhouse struct {
	// DSN is optional; without it decisions and cursors are not persisted.
	DSN string `mapstructure:"dsn" toml:"dsn"`
}

type Sync struct {
	Concurrency     int           `mapstructure:"concurrency" toml:"concurrency"`
	HistoryPageSize int           `mapstructure:"history_page_size" toml:"history_page_size"`
	HistoryDepth    int           `mapstructure:"history_depth" toml:"history_depth"`
	PollInterval    time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
	RetryTimeout    time.Duration `mapstructure:"retry_timeout" toml:"retry_timeout"`
	// FromBlock overrides the stored cursor, 0 keeps it.
	FromBlock uint64 `mapstructure:"from_block" toml:"from_block"`
	// UntilBlock stops after the given block, 0 follows the head.
	UntilBlock uint64 `mapstructure:"until_block" toml:"until_block"`
}

type Metrics struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

func DefaultConfig(path string) *Config {
	return &Config{
		Path: path,
		RPC: RPC{
			URL: "https://api.steemit.com",
			RPS: 20,
		},
		Signer: Signer{
			DryRun: true,
		},
		Sync: Sync{
			Concurrency:     4,
			HistoryPageSize: 1000,
			PollInterval:    3 * time.Second,
			RetryTimeout:    5 * time.Minute,
		},
		Metrics: Metrics{
			Addr: ":9100",
		},
	}
}
