package config

import (
	"os"
)

// parseEnv overlays the settings that are conventionally passed through the
// environment. Unset variables leave the current value alone; a variable set
// to the empty string clears it.
func parseEnv(config *Config) {
	vars := []struct {
		name string
		dst  *string
	}{
		{"SECRET_KEY", &config.SecretKey},
		{"DATABASE_URL", &config.DatabaseDSN},
		{"DATABASE_DRIVER", &config.DatabaseDriver},
		{"KDF_SALT", &config.KDFSalt},
	}

	for _, v := range vars {
		if value, ok := os.LookupEnv(v.name); ok {
			*v.dst = value
		}
	}
}
