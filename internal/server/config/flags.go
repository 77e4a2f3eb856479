package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/passvault/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-k", "-w", "-t", "-u", "-p", "-b", "-g", "-e", "-l"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   database driver, "pgx" or "sqlite"
//	-d string   database DSN
//	-s string   master secret key
//	-k string   key derivation salt
//	-w int      minimum master password score, 0-4
//	-t int      shutdown timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l int      presigned logo URL validity, minutes
//
// os.Args is filtered through flagx.FilterArgs first so flags that belong to
// other components (-c) do not break parsing.
func parseFlags(config *Config) {
	parseFlagArgs(config, os.Args[1:])
}

func parseFlagArgs(config *Config, rawArgs []string) {
	args := flagx.FilterArgs(rawArgs, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "m", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "master secret key")
	fs.StringVar(&config.KDFSalt, "k", config.KDFSalt, "key derivation salt")
	fs.IntVar(&config.MinPasswordScore, "w", config.MinPasswordScore, "minimum master password score (0-4)")

	shutdownTimeout := fs.Int("t", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	logoURLValidity := fs.Int("l", int(config.LogoURLValidity.Minutes()), "logo URL validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// whole-unit flags only override when given, so "90s" from JSON survives
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.ShutdownTimeout = time.Duration(*shutdownTimeout) * time.Second
		case "l":
			config.LogoURLValidity = time.Duration(*logoURLValidity) * time.Minute
		}
	})
}
