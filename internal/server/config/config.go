// Package config handles configuration for the vault server: defaults, a
// JSON overlay, environment variables and command-line flags, applied in
// that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
)

// Config holds runtime settings for the vault server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDriver / DatabaseDSN: "pgx" (PostgreSQL) or "sqlite" and its DSN.
//   - SecretKey: master secret the storage key is derived from. No default.
//   - KDFSalt: per-deployment key derivation salt. Empty selects the legacy
//     build-wide salt so existing data stays readable.
//   - MinPasswordScore: minimum zxcvbn score (0-4) for master passwords.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - LogoURLValidity: lifetime of presigned logo URLs.
type Config struct {
	EndpointAddrHTTP string
	DatabaseDriver   string
	DatabaseDSN      string
	SecretKey        string
	KDFSalt          string
	MinPasswordScore int
	ShutdownTimeout  time.Duration
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	LogoURLValidity  time.Duration
}

// LoadDefaults populates Config with development defaults. SecretKey is
// deliberately left empty: the server refuses to start without one.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDriver = string(dbx.SQLite)
	c.DatabaseDSN = "vault.db"
	c.MinPasswordScore = 2
	c.ShutdownTimeout = 10 * time.Second
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogoURLValidity = 15 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the server cannot start with. Errors wrap
// common.ErrConfiguration.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key is not set (SECRET_KEY, -s or secret_key)", common.ErrConfiguration)
	}
	if _, err := dbx.ParseDialect(c.DatabaseDriver); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("%w: database DSN is empty", common.ErrConfiguration)
	}
	if c.MinPasswordScore < 0 || c.MinPasswordScore > 4 {
		return fmt.Errorf("%w: min password score %d is outside 0..4", common.ErrConfiguration, c.MinPasswordScore)
	}
	if c.EndpointAddrHTTP == "" {
		return fmt.Errorf("%w: http endpoint address is empty", common.ErrConfiguration)
	}
	return nil
}
