package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/flagx"
	"github.com/dmitrijs2005/passvault/internal/timex"
	"gopkg.in/yaml.v3"
)

// JsonConfig defines a configuration structure tailored for JSON (or YAML)
// unmarshalling.
// Durations use timex.Duration, which accepts both "1s"-style strings and
// integer nanoseconds. MinPasswordScore is a pointer so an explicit 0 can be
// told apart from an absent key.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDriver   string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN      string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey        string         `json:"secret_key" yaml:"secret_key"`
	KDFSalt          string         `json:"kdf_salt" yaml:"kdf_salt"`
	MinPasswordScore *int           `json:"min_password_score" yaml:"min_password_score"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	S3RootUser       string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogoURLValidity  timex.Duration `json:"logo_url_validity" yaml:"logo_url_validity"`
}

// parseJson loads configuration values from the file named by the -c or
// -config flag. Files ending in .yaml or .yml are read as YAML, anything
// else as JSON. Without the flag nothing is loaded. Keys missing from the
// file keep their current values. An unreadable or invalid file panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := decodeConfigFile(jsonConfigFile, file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.KDFSalt, c.KDFSalt)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.MinPasswordScore != nil {
		config.MinPasswordScore = *c.MinPasswordScore
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.LogoURLValidity.Duration != 0 {
		config.LogoURLValidity = c.LogoURLValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func decodeConfigFile(name string, data []byte, c *JsonConfig) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return json.Unmarshal(data, c)
	}
}
