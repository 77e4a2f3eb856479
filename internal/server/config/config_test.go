package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "vault.db", c.DatabaseDSN)
	assert.Empty(t, c.SecretKey)
	assert.Empty(t, c.KDFSalt)
	assert.Equal(t, 2, c.MinPasswordScore)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "admin", c.S3RootUser)
	assert.Equal(t, "secretpassword", c.S3RootPassword)
	assert.Equal(t, "vault", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "http://127.0.0.1:9000/", c.S3BaseEndpoint)
	assert.Equal(t, 15*time.Minute, c.LogoURLValidity)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"secret_key":   "from-json",
		"database_dsn": "json.db",
		"s3_bucket":    "json-bucket",
	})

	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("DATABASE_URL", "env.db")

	os.Args = []string{"server", "-c", path, "-d", "flag.db"}

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, "from-env", c.SecretKey, "env beats json")
	assert.Equal(t, "flag.db", c.DatabaseDSN, "flag beats env")
	assert.Equal(t, "json-bucket", c.S3Bucket, "json beats defaults")
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.SecretKey = "k"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "postgres ok", mutate: func(c *Config) { c.DatabaseDriver = "pgx"; c.DatabaseDSN = "postgres://x" }},
		{name: "missing secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: true},
		{name: "empty dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: true},
		{name: "score too high", mutate: func(c *Config) { c.MinPasswordScore = 5 }, wantErr: true},
		{name: "score negative", mutate: func(c *Config) { c.MinPasswordScore = -1 }, wantErr: true},
		{name: "no address", mutate: func(c *Config) { c.EndpointAddrHTTP = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "s")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("KDF_SALT", "")

	c := &Config{KDFSalt: "old", DatabaseDSN: "keep.db"}
	parseEnv(c)

	assert.Equal(t, "s", c.SecretKey)
	assert.Equal(t, "pgx", c.DatabaseDriver)
	assert.Empty(t, c.KDFSalt, "set-but-empty clears")
	assert.Equal(t, "keep.db", c.DatabaseDSN)
}
